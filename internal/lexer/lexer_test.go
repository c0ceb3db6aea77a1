package lexer

import "testing"

func expectToken(t *testing.T, input string, expected Kind) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expected {
		t.Errorf("input %q: expected %v, got %v", input, expected, tok.Kind)
	}
}

func expectTokenValue(t *testing.T, input string, expectedKind Kind, expectedValue string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expectedKind {
		t.Errorf("input %q: expected kind %v, got %v", input, expectedKind, tok.Kind)
	}
	if tok.Value != expectedValue {
		t.Errorf("input %q: expected value %q, got %q", input, expectedValue, tok.Value)
	}
}

func expectTokens(t *testing.T, input string, expected []Kind) {
	t.Helper()
	l := New(input)
	for i, exp := range expected {
		tok := l.Next()
		if tok.Kind != exp {
			t.Errorf("input %q token %d: expected %v, got %v", input, i, exp, tok.Kind)
		}
	}
}

func expectError(t *testing.T, input string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != Error {
		t.Errorf("input %q: expected error, got %v", input, tok.Kind)
	}
}

func TestKeywords(t *testing.T) {
	cases := []struct {
		input string
		kind  Kind
	}{
		{"surface", Surface}, {"light", Light}, {"volume", Volume},
		{"displacement", Displacement}, {"imager", Imager},
		{"float", Float}, {"color", Color}, {"point", Point}, {"vector", Vector},
		{"normal", Normal}, {"matrix", Matrix}, {"string", String}, {"void", Void},
		{"uniform", Uniform}, {"varying", Varying}, {"output", Output}, {"extern", Extern},
		{"if", If}, {"else", Else}, {"while", While}, {"for", For},
		{"break", Break}, {"continue", Continue}, {"return", Return},
		{"illuminance", Illuminance}, {"illuminate", Illuminate}, {"solar", Solar},
		{"texture", Texture}, {"environment", Environment}, {"shadow", Shadow},
	}
	for _, c := range cases {
		expectToken(t, c.input, c.kind)
	}
}

func TestIdentifiers(t *testing.T) {
	expectTokenValue(t, "Ci", Ident, "Ci")
	expectTokenValue(t, "_foo", Ident, "_foo")
	expectTokenValue(t, "myVar2", Ident, "myVar2")
}

func TestIntegerLiteral(t *testing.T) {
	expectTokenValue(t, "42", IntLiteral, "42")
	expectTokenValue(t, "0", IntLiteral, "0")
}

func TestFloatLiteral(t *testing.T) {
	cases := []string{"3.14", "0.5", "1.", "1e10", "1.5e-3", "2E+4"}
	for _, c := range cases {
		expectTokenValue(t, c, FloatLiteral, c)
	}
}

func TestStringLiteral(t *testing.T) {
	expectTokenValue(t, `"hello"`, StringLiteral, "hello")
	expectTokenValue(t, `""`, StringLiteral, "")
	expectTokenValue(t, `"line\nbreak"`, StringLiteral, "line\nbreak")
	expectTokenValue(t, `"a\"b"`, StringLiteral, `a"b`)
}

func TestUnterminatedStringIsError(t *testing.T) {
	expectError(t, `"unterminated`)
	expectError(t, "\"has\nnewline\"")
}

func TestOperators(t *testing.T) {
	cases := []struct {
		input string
		kind  Kind
	}{
		{"+", Plus}, {"-", Minus}, {"*", Star}, {"/", Slash}, {"%", Percent},
		{"=", Assign}, {"+=", PlusAssign}, {"-=", MinusAssign},
		{"*=", StarAssign}, {"/=", SlashAssign},
		{"==", Eq}, {"!=", NotEq}, {"<", Lt}, {"<=", LtEq}, {">", Gt}, {">=", GtEq},
		{"&&", AndAnd}, {"||", OrOr}, {"!", Bang}, {"?", Question},
		{".", Dot}, {",", Comma}, {":", Colon}, {";", Semicolon},
		{"(", LParen}, {")", RParen}, {"{", LBrace}, {"}", RBrace},
		{"[", LBracket}, {"]", RBracket},
	}
	for _, c := range cases {
		expectToken(t, c.input, c.kind)
	}
}

func TestAmbiguousTwoCharOperators(t *testing.T) {
	expectTokens(t, "a+=b", []Kind{Ident, PlusAssign, Ident, EOF})
	expectTokens(t, "a+b", []Kind{Ident, Plus, Ident, EOF})
	expectTokens(t, "a<=b", []Kind{Ident, LtEq, Ident, EOF})
	expectTokens(t, "a<b", []Kind{Ident, Lt, Ident, EOF})
}

func TestLineComment(t *testing.T) {
	expectTokens(t, "1 // a comment\n2", []Kind{IntLiteral, IntLiteral, EOF})
}

func TestBlockComment(t *testing.T) {
	expectTokens(t, "1 /* skip\nthis */ 2", []Kind{IntLiteral, IntLiteral, EOF})
}

func TestPreprocessorLineSkipped(t *testing.T) {
	expectTokens(t, "#define FOO 1\nsurface", []Kind{Surface, EOF})
}

func TestLineNumbersTrackNewlines(t *testing.T) {
	l := New("a\nb\n\nc")
	var lines []int
	for {
		tok := l.Next()
		if tok.Kind == EOF {
			break
		}
		lines = append(lines, tok.Line)
	}
	want := []int{1, 2, 4}
	if len(lines) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("token %d: line = %d, want %d", i, lines[i], want[i])
		}
	}
}

func TestTokenizeShaderSkeleton(t *testing.T) {
	src := `surface matte(float Ka = 1, Kd = 1) {
		Ci = Cs * (Ka + Kd);
	}`
	l := New(src)
	toks := l.Tokenize()
	if toks[len(toks)-1].Kind != EOF {
		t.Fatalf("last token should be EOF, got %v", toks[len(toks)-1].Kind)
	}
	if toks[0].Kind != Surface {
		t.Fatalf("first token should be 'surface', got %v", toks[0].Kind)
	}
}

func TestUnexpectedCharacterIsError(t *testing.T) {
	expectError(t, "@")
	expectError(t, "~")
}
