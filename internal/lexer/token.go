// Package lexer tokenizes RenderMan Shading Language source text.
package lexer

// Kind identifies the lexical category of a Token.
type Kind uint8

const (
	Error Kind = iota
	EOF

	// Literals
	IntLiteral
	FloatLiteral
	StringLiteral
	Ident

	// Shader kinds
	Light
	Surface
	Volume
	Displacement
	Imager

	// Type keywords
	Float
	String
	Color
	Point
	Vector
	Normal
	Matrix
	Void

	// Storage keywords
	Uniform
	Varying
	Output
	Extern

	// Statement keywords
	If
	Else
	While
	For
	Break
	Continue
	Return
	Illuminance
	Illuminate
	Solar
	Texture
	Environment
	Shadow

	// Operators
	Plus
	Minus
	Star
	Slash
	Percent
	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	AndAnd
	OrOr
	Bang
	Question
	Dot
	Comma
	Colon
	Semicolon

	// Delimiters
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
)

var kindNames = map[Kind]string{
	Error: "error", EOF: "EOF",
	IntLiteral: "integer", FloatLiteral: "float", StringLiteral: "string", Ident: "identifier",
	Light: "light", Surface: "surface", Volume: "volume", Displacement: "displacement", Imager: "imager",
	Float: "float", String: "string", Color: "color", Point: "point", Vector: "vector",
	Normal: "normal", Matrix: "matrix", Void: "void",
	Uniform: "uniform", Varying: "varying", Output: "output", Extern: "extern",
	If: "if", Else: "else", While: "while", For: "for", Break: "break", Continue: "continue",
	Return: "return", Illuminance: "illuminance", Illuminate: "illuminate", Solar: "solar",
	Texture: "texture", Environment: "environment", Shadow: "shadow",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=", SlashAssign: "/=",
	Eq: "==", NotEq: "!=", Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=",
	AndAnd: "&&", OrOr: "||", Bang: "!", Question: "?", Dot: ".", Comma: ",", Colon: ":", Semicolon: ";",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Keywords maps reserved words to their token kind.
var Keywords = map[string]Kind{
	"light": Light, "surface": Surface, "volume": Volume,
	"displacement": Displacement, "imager": Imager,
	"float": Float, "string": String, "color": Color, "point": Point,
	"vector": Vector, "normal": Normal, "matrix": Matrix, "void": Void,
	"uniform": Uniform, "varying": Varying, "output": Output, "extern": Extern,
	"if": If, "else": Else, "while": While, "for": For,
	"break": Break, "continue": Continue, "return": Return,
	"illuminance": Illuminance, "illuminate": Illuminate, "solar": Solar,
	"texture": Texture, "environment": Environment, "shadow": Shadow,
}

// Token is a single lexical token: its kind, source byte range, and
// (for identifiers and literals) the matched text.
type Token struct {
	Kind  Kind
	Start int
	End   int
	Value string
	Line  int
}

// Text returns the token's source slice.
func (t Token) Text(source string) string {
	if t.Start >= 0 && t.End <= len(source) {
		return source[t.Start:t.End]
	}
	return ""
}
