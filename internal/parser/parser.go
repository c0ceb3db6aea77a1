// Package parser provides RSL parsing and semantic analysis into a
// syntax tree.
//
// Parsing is hand-written recursive descent rather than a generated
// LALR table (the original's liblalr-generated driver has no
// idiomatic Go equivalent), but every semantic action — scope
// push/pop, symbol binding, implicit-global injection, type/storage
// inference, overload resolution — happens inline as each production
// reduces, exactly where the original grammar's semantic actions run.
package parser

import (
	"fmt"

	"github.com/reyes-sl/shade/internal/diagnostic"
	"github.com/reyes-sl/shade/internal/lexer"
	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/syntaxtree"
	"github.com/reyes-sl/shade/internal/value"
)

// Options configures a single parse.
type Options struct {
	IncludePaths                   []string
	ToleratesUnresolvedIdentifiers bool

	// ErrorLimit caps the number of error-level diagnostics Parse
	// accumulates before giving up on the rest of the source early.
	// Zero means unlimited.
	ErrorLimit int

	// DefaultCoordinateSystem/DefaultColorSpace name the space a bare
	// point/vector/normal or color constructor picks up when it carries
	// no explicit space string, e.g. point(0,0,0). A matrix cast gets no
	// default space.
	DefaultCoordinateSystem string
	DefaultColorSpace       string
}

// Parser parses RSL source into a syntaxtree.Node using a single
// left-to-right pass: tokens are consumed, nodes are built, and the
// node's type/storage/symbol are resolved immediately, the way the
// original grammar's semantic actions run at each reduction.
type Parser struct {
	source string
	tokens []lexer.Token
	pos    int

	symbols *symtab.Table
	diags   *diagnostic.DiagnosticList
	opts    Options

	loopDepth int // enclosing while/for nesting, for break/continue validation
}

// New creates a Parser over already-preprocessed source, using tbl as
// the (possibly already builtin-populated) symbol table and diags as
// the error sink.
func New(source string, tbl *symtab.Table, diags *diagnostic.DiagnosticList, opts Options) *Parser {
	lex := lexer.New(source)
	return &Parser{
		source:  source,
		tokens:  lex.Tokenize(),
		symbols: tbl,
		diags:   diags,
		opts:    opts,
	}
}

// Parse runs the parser and returns the root KindList node holding
// every shader and function definition, or nil if the source
// contained any error-level diagnostic — per spec.md §7, the parser
// returns a null tree if the error count is non-zero at end of input.
func (p *Parser) Parse() *syntaxtree.Node {
	root := syntaxtree.New(syntaxtree.KindList, 1)
	for p.current().Kind != lexer.EOF {
		if p.opts.ErrorLimit > 0 && p.diags.ErrorCount() >= p.opts.ErrorLimit {
			p.errorAt(p.current(), diagnostic.ParsingFailed,
				fmt.Sprintf("stopping after %d errors (error-limit reached)", p.opts.ErrorLimit))
			break
		}
		def := p.parseDefinition()
		if def != nil {
			root.AddNode(def)
		}
		if p.current().Kind == lexer.Error {
			p.errorAt(p.current(), diagnostic.SyntaxError, "unrecognized character")
			p.advance()
		}
	}
	if p.diags.ErrorCount() > 0 {
		return nil
	}
	return root
}

// ----------------------------------------------------------------------------
// Token helpers
// ----------------------------------------------------------------------------

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) lexer.Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind lexer.Kind) bool {
	return p.current().Kind == kind
}

func (p *Parser) match(kind lexer.Kind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != kind {
		p.errorAt(tok, diagnostic.SyntaxError, fmt.Sprintf("expected %s, got %s", kind, tok.Kind))
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) errorAt(tok lexer.Token, code diagnostic.Code, message string) {
	p.diags.AddErrorRange(tok.Start, tok.End, code, message)
}

// synchronize skips tokens until a likely statement/definition
// boundary, so a single syntax error does not cascade into a wall of
// follow-on errors.
func (p *Parser) synchronize() {
	for p.current().Kind != lexer.EOF {
		if p.current().Kind == lexer.Semicolon {
			p.advance()
			return
		}
		if isShaderKindToken(p.current().Kind) {
			return
		}
		p.advance()
	}
}

func isShaderKindToken(k lexer.Kind) bool {
	switch k {
	case lexer.Light, lexer.Surface, lexer.Volume, lexer.Displacement, lexer.Imager:
		return true
	default:
		return false
	}
}

// ----------------------------------------------------------------------------
// Top level: shader and function definitions
// ----------------------------------------------------------------------------

func (p *Parser) parseDefinition() *syntaxtree.Node {
	if isShaderKindToken(p.current().Kind) {
		return p.parseShaderDefinition()
	}
	if isTypeToken(p.current().Kind) || p.check(lexer.Void) {
		return p.parseFunctionDefinition()
	}
	p.errorAt(p.current(), diagnostic.SyntaxError, "expected a shader or function definition")
	p.synchronize()
	return nil
}

func shaderKindFor(k lexer.Kind) symtab.ShaderKind {
	switch k {
	case lexer.Light:
		return symtab.KindLight
	case lexer.Volume:
		return symtab.KindVolume
	case lexer.Displacement:
		return symtab.KindDisplacement
	case lexer.Imager:
		return symtab.KindImager
	default:
		return symtab.KindSurface
	}
}

func (p *Parser) parseShaderDefinition() *syntaxtree.Node {
	kindTok := p.advance()
	kind := shaderKindFor(kindTok.Kind)

	nameTok, _ := p.expect(lexer.Ident)
	shader := syntaxtree.New(syntaxtree.KindShader, kindTok.Line)
	shader.Lexeme = nameTok.Text(p.source)
	shader.Attr = kind

	p.symbols.PushShaderScope(kind)
	shader.Globals = make(map[string]*symtab.Symbol)
	for _, g := range symtab.GlobalNames(kind) {
		shader.Globals[g.Name] = p.symbols.FindSymbol(g.Name)
	}
	params := p.parseFormalParameters()
	body := p.parseBlock()
	p.symbols.PopScope()

	shader.AddNode(params)
	shader.AddNode(body)

	if kind == symtab.KindLight && !containsLightingStatement(body) {
		body.AddNodeAtFront(syntaxtree.New(syntaxtree.KindAmbient, kindTok.Line))
	}

	return shader
}

func containsLightingStatement(n *syntaxtree.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case syntaxtree.KindSolar, syntaxtree.KindIlluminate:
		return true
	}
	for _, c := range n.Nodes {
		if containsLightingStatement(c) {
			return true
		}
	}
	return false
}

func (p *Parser) parseFunctionDefinition() *syntaxtree.Node {
	typTok := p.current()
	retType := p.parseTypeToken()

	nameTok, _ := p.expect(lexer.Ident)
	fn := syntaxtree.New(syntaxtree.KindFunction, typTok.Line)
	fn.Lexeme = nameTok.Text(p.source)
	fn.Type = retType

	p.symbols.PushScope()
	params := p.parseFormalParameters()
	body := p.parseBlock()
	p.symbols.PopScope()

	fn.AddNode(params)
	fn.AddNode(body)

	sig := symtab.Signature{Params: paramSignature(params), Return: retType}
	if sym, err := p.symbols.AddSymbol(fn.Lexeme); err == nil {
		sym.Kind = symtab.KindFunction
		sym.Signatures = []symtab.Signature{sig}
		fn.Symbol = sym
	} else {
		p.errorAt(nameTok, diagnostic.DuplicateSymbol, err.Error())
	}
	return fn
}

func paramSignature(params *syntaxtree.Node) []symtab.Parameter {
	var out []symtab.Parameter
	for _, decl := range params.Nodes {
		out = append(out, symtab.Parameter{Type: decl.Type, Storage: decl.Storage})
	}
	return out
}

// parseFormalParameters parses a possibly-empty, semicolon-separated
// list of (storage? type declarator (',' declarator)*) groups,
// flattened into one KindList of KindVariableDefinition declarators.
func (p *Parser) parseFormalParameters() *syntaxtree.Node {
	list := syntaxtree.New(syntaxtree.KindList, p.current().Line)
	p.expect(lexer.LParen)
	for !p.check(lexer.RParen) && p.current().Kind != lexer.EOF {
		list.AddNodesAtEnd(p.parseParameterGroup().Nodes)
		if !p.match(lexer.Semicolon) {
			break
		}
	}
	p.expect(lexer.RParen)
	return list
}

func (p *Parser) parseParameterGroup() *syntaxtree.Node {
	storage := value.StorageUniform // spec.md §4.3 rule 2: parameter default is uniform
	if p.check(lexer.Uniform) {
		p.advance()
	} else if p.check(lexer.Varying) {
		p.advance()
		storage = value.StorageVarying
	} else if p.check(lexer.Output) || p.check(lexer.Extern) {
		p.advance()
	}

	typ := p.parseTypeToken()
	group := syntaxtree.New(syntaxtree.KindList, p.current().Line)
	for {
		group.AddNode(p.parseDeclarator(typ, storage, true))
		if !p.match(lexer.Comma) {
			break
		}
	}
	return group
}

func (p *Parser) parseDeclarator(typ value.Type, storage value.Storage, isParameter bool) *syntaxtree.Node {
	nameTok, _ := p.expect(lexer.Ident)
	decl := syntaxtree.New(syntaxtree.KindVariableDefinition, nameTok.Line)
	decl.Lexeme = nameTok.Text(p.source)
	decl.SetType(typ)
	decl.Storage = storage

	kind := symtab.KindVariable
	if isParameter {
		kind = symtab.KindParameter
	}
	if sym, err := p.symbols.AddSymbol(decl.Lexeme); err == nil {
		sym.Type = typ
		sym.Storage = storage
		sym.Kind = kind
		decl.Symbol = sym
	} else {
		p.errorAt(nameTok, diagnostic.DuplicateSymbol, err.Error())
	}

	if p.match(lexer.Assign) {
		init := p.parseAssignmentExpr()
		p.coerceAssignment(decl, init)
		decl.AddNode(init)
	}
	return decl
}

func isTypeToken(k lexer.Kind) bool {
	switch k {
	case lexer.Float, lexer.String, lexer.Color, lexer.Point, lexer.Vector, lexer.Normal, lexer.Matrix:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTypeToken() value.Type {
	tok := p.advance()
	switch tok.Kind {
	case lexer.Float:
		return value.TypeFloat
	case lexer.String:
		return value.TypeString
	case lexer.Color:
		return value.TypeColor
	case lexer.Point:
		return value.TypePoint
	case lexer.Vector:
		return value.TypeVector
	case lexer.Normal:
		return value.TypeNormal
	case lexer.Matrix:
		return value.TypeMatrix
	case lexer.Void:
		return value.TypeNull
	default:
		p.errorAt(tok, diagnostic.SyntaxError, fmt.Sprintf("expected a type, got %s", tok.Kind))
		return value.TypeNull
	}
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Parser) parseBlock() *syntaxtree.Node {
	openTok, _ := p.expect(lexer.LBrace)
	block := syntaxtree.New(syntaxtree.KindBlock, openTok.Line)
	p.symbols.PushScope()
	for !p.check(lexer.RBrace) && p.current().Kind != lexer.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			block.AddNode(stmt)
		}
	}
	p.symbols.PopScope()
	p.expect(lexer.RBrace)
	return block
}

func (p *Parser) parseStatement() *syntaxtree.Node {
	switch p.current().Kind {
	case lexer.LBrace:
		return p.parseBlock()
	case lexer.Return:
		return p.parseReturn()
	case lexer.Break:
		return p.parseBreakContinue(syntaxtree.KindBreak)
	case lexer.Continue:
		return p.parseBreakContinue(syntaxtree.KindContinue)
	case lexer.If:
		return p.parseIf()
	case lexer.While:
		return p.parseWhile()
	case lexer.For:
		return p.parseFor()
	case lexer.Illuminance:
		return p.parseIlluminance()
	case lexer.Illuminate:
		return p.parseIlluminate()
	case lexer.Solar:
		return p.parseSolar()
	case lexer.Uniform, lexer.Varying, lexer.Output, lexer.Extern:
		return p.parseVariableDefinitionStatement()
	default:
		if isTypeToken(p.current().Kind) {
			return p.parseVariableDefinitionStatement()
		}
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseVariableDefinitionStatement() *syntaxtree.Node {
	startTok := p.current()
	storage := value.StorageVarying // spec.md §4.3 rule 2: local default is varying
	if p.check(lexer.Uniform) {
		p.advance()
		storage = value.StorageUniform
	} else if p.check(lexer.Varying) {
		p.advance()
	} else if p.check(lexer.Output) || p.check(lexer.Extern) {
		p.advance()
	}
	typ := p.parseTypeToken()

	list := syntaxtree.New(syntaxtree.KindList, startTok.Line)
	for {
		list.AddNode(p.parseDeclarator(typ, storage, false))
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.Semicolon)
	if len(list.Nodes) == 1 {
		return list.Nodes[0]
	}
	return list
}

func (p *Parser) parseReturn() *syntaxtree.Node {
	tok := p.advance()
	n := syntaxtree.New(syntaxtree.KindReturn, tok.Line)
	if !p.check(lexer.Semicolon) {
		n.AddNode(p.parseExpression())
	}
	p.expect(lexer.Semicolon)
	return n
}

func (p *Parser) parseBreakContinue(kind syntaxtree.Kind) *syntaxtree.Node {
	tok := p.advance()
	n := syntaxtree.New(kind, tok.Line)
	n.Lexeme = "1"
	if p.check(lexer.IntLiteral) {
		n.Lexeme = p.advance().Text(p.source)
	}
	if n.Integer() > p.loopDepth {
		p.errorAt(tok, diagnostic.BreakDepthExceeded,
			fmt.Sprintf("%s %s exceeds %d enclosing loop(s)", tok.Kind, n.Lexeme, p.loopDepth))
	}
	p.expect(lexer.Semicolon)
	return n
}

func (p *Parser) parseIf() *syntaxtree.Node {
	tok := p.advance()
	p.expect(lexer.LParen)
	cond := p.parseExpression()
	p.expect(lexer.RParen)
	then := p.parseStatement()

	if p.match(lexer.Else) {
		n := syntaxtree.New(syntaxtree.KindIfElse, tok.Line)
		n.AddNode(cond)
		n.AddNode(then)
		n.AddNode(p.parseStatement())
		return n
	}
	n := syntaxtree.New(syntaxtree.KindIf, tok.Line)
	n.AddNode(cond)
	n.AddNode(then)
	return n
}

func (p *Parser) parseWhile() *syntaxtree.Node {
	tok := p.advance()
	p.expect(lexer.LParen)
	cond := p.parseExpression()
	p.expect(lexer.RParen)

	p.loopDepth++
	body := p.parseStatement()
	p.loopDepth--

	n := syntaxtree.New(syntaxtree.KindWhile, tok.Line)
	n.AddNode(cond)
	n.AddNode(body)
	return n
}

func (p *Parser) parseFor() *syntaxtree.Node {
	tok := p.advance()
	p.expect(lexer.LParen)

	var init *syntaxtree.Node
	if !p.check(lexer.Semicolon) {
		init = p.parseExpression()
	}
	p.expect(lexer.Semicolon)

	var cond *syntaxtree.Node
	if !p.check(lexer.Semicolon) {
		cond = p.parseExpression()
	}
	p.expect(lexer.Semicolon)

	var update *syntaxtree.Node
	if !p.check(lexer.RParen) {
		update = p.parseExpression()
	}
	p.expect(lexer.RParen)

	p.loopDepth++
	body := p.parseStatement()
	p.loopDepth--

	n := syntaxtree.New(syntaxtree.KindFor, tok.Line)
	n.AddNode(nilSafe(init, tok.Line))
	n.AddNode(nilSafe(cond, tok.Line))
	n.AddNode(nilSafe(update, tok.Line))
	n.AddNode(body)
	return n
}

func nilSafe(n *syntaxtree.Node, line int) *syntaxtree.Node {
	if n != nil {
		return n
	}
	return syntaxtree.New(syntaxtree.KindNull, line)
}

func (p *Parser) parseExpressionStatement() *syntaxtree.Node {
	tok := p.current()
	n := syntaxtree.New(syntaxtree.KindExprStatement, tok.Line)
	n.AddNode(p.parseExpression())
	p.expect(lexer.Semicolon)
	return n
}

// ----------------------------------------------------------------------------
// Lighting-integration statements
// ----------------------------------------------------------------------------

func (p *Parser) parseIlluminance() *syntaxtree.Node {
	tok := p.advance()
	p.expect(lexer.LParen)
	pos := p.parseAssignmentExpr()
	p.expect(lexer.Comma)
	axis := p.parseAssignmentExpr()
	p.expect(lexer.Comma)
	angle := p.parseAssignmentExpr()
	p.expect(lexer.RParen)

	p.symbols.PushIlluminanceScope()
	binding := syntaxtree.LightBinding{
		L:  p.symbols.FindSymbol("L"),
		Cl: p.symbols.FindSymbol("Cl"),
		Ol: p.symbols.FindSymbol("Ol"),
	}
	body := p.parseBlock()
	p.symbols.PopScope()

	n := syntaxtree.New(syntaxtree.KindIlluminance, tok.Line)
	n.AddNode(pos)
	n.AddNode(axis)
	n.AddNode(angle)
	n.AddNode(body)
	n.Attr = binding
	return n
}

func (p *Parser) parseIlluminate() *syntaxtree.Node {
	tok := p.advance()
	p.expect(lexer.LParen)
	pos := p.parseAssignmentExpr()
	var axis, angle *syntaxtree.Node
	if p.match(lexer.Comma) {
		axis = p.parseAssignmentExpr()
		p.expect(lexer.Comma)
		angle = p.parseAssignmentExpr()
	}
	p.expect(lexer.RParen)

	p.symbols.PushSolarOrIlluminateScope()
	binding := syntaxtree.LightBinding{L: p.symbols.FindSymbol("L")}
	body := p.parseBlock()
	p.symbols.PopScope()

	n := syntaxtree.New(syntaxtree.KindIlluminate, tok.Line)
	n.AddNode(pos)
	n.AddNode(nilSafe(axis, tok.Line))
	n.AddNode(nilSafe(angle, tok.Line))
	n.AddNode(body)
	n.Attr = binding
	return n
}

func (p *Parser) parseSolar() *syntaxtree.Node {
	tok := p.advance()
	p.symbols.PushSolarOrIlluminateScope()
	var axis, angle *syntaxtree.Node
	if p.match(lexer.LParen) {
		if !p.check(lexer.RParen) {
			axis = p.parseAssignmentExpr()
			p.expect(lexer.Comma)
			angle = p.parseAssignmentExpr()
		}
		p.expect(lexer.RParen)
	}

	binding := syntaxtree.LightBinding{L: p.symbols.FindSymbol("L")}
	body := p.parseBlock()
	p.symbols.PopScope()

	n := syntaxtree.New(syntaxtree.KindSolar, tok.Line)
	n.AddNode(nilSafe(axis, tok.Line))
	n.AddNode(nilSafe(angle, tok.Line))
	n.AddNode(body)
	n.Attr = binding
	return n
}
