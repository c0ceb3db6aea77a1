package parser

import (
	"fmt"

	"github.com/reyes-sl/shade/internal/diagnostic"
	"github.com/reyes-sl/shade/internal/lexer"
	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/syntaxtree"
	"github.com/reyes-sl/shade/internal/value"
)

// parseExpression is the "expression" production used by statement
// contexts (return, for-clauses, expression statements); it is the
// same grammar level as an assignment expression.
func (p *Parser) parseExpression() *syntaxtree.Node {
	return p.parseAssignmentExpr()
}

var assignOps = map[lexer.Kind]syntaxtree.Kind{
	lexer.Assign:       syntaxtree.KindAssign,
	lexer.PlusAssign:   syntaxtree.KindAddAssign,
	lexer.MinusAssign:  syntaxtree.KindSubtractAssign,
	lexer.StarAssign:   syntaxtree.KindMultiplyAssign,
	lexer.SlashAssign:  syntaxtree.KindDivideAssign,
}

func (p *Parser) parseAssignmentExpr() *syntaxtree.Node {
	lhs := p.parseTernary()
	kind, ok := assignOps[p.current().Kind]
	if !ok {
		return lhs
	}
	tok := p.advance()
	rhs := p.parseAssignmentExpr()

	n := syntaxtree.New(kind, tok.Line)
	n.AddNode(lhs)
	n.AddNode(rhs)
	p.typeAssignment(n, lhs, rhs, tok)
	return n
}

func (p *Parser) parseTernary() *syntaxtree.Node {
	cond := p.parseLogicalOr()
	if !p.check(lexer.Question) {
		return cond
	}
	tok := p.advance()
	then := p.parseAssignmentExpr()
	p.expect(lexer.Colon)
	els := p.parseAssignmentExpr()

	n := syntaxtree.New(syntaxtree.KindTernary, tok.Line)
	n.AddNode(cond) // slot 0: condition
	n.AddNode(then) // slot 1: true branch
	n.AddNode(els)  // slot 2: false branch
	n.SetType(then.Type)
	n.Storage = combineStorage(cond, then, els)
	return n
}

func (p *Parser) parseLogicalOr() *syntaxtree.Node {
	left := p.parseLogicalAnd()
	for p.check(lexer.OrOr) {
		tok := p.advance()
		right := p.parseLogicalAnd()
		left = p.buildLogical(syntaxtree.KindOr, tok, left, right)
	}
	return left
}

func (p *Parser) parseLogicalAnd() *syntaxtree.Node {
	left := p.parseEquality()
	for p.check(lexer.AndAnd) {
		tok := p.advance()
		right := p.parseEquality()
		left = p.buildLogical(syntaxtree.KindAnd, tok, left, right)
	}
	return left
}

func (p *Parser) buildLogical(kind syntaxtree.Kind, tok lexer.Token, left, right *syntaxtree.Node) *syntaxtree.Node {
	n := syntaxtree.New(kind, tok.Line)
	n.AddNode(left)
	n.AddNode(right)
	n.SetType(value.TypeFloat)
	n.Storage = combineStorage(left, right)
	return n
}

var equalityOps = map[lexer.Kind]syntaxtree.Kind{
	lexer.Eq:    syntaxtree.KindEqual,
	lexer.NotEq: syntaxtree.KindNotEqual,
}

func (p *Parser) parseEquality() *syntaxtree.Node {
	left := p.parseRelational()
	for {
		kind, ok := equalityOps[p.current().Kind]
		if !ok {
			return left
		}
		tok := p.advance()
		right := p.parseRelational()
		left = p.buildLogical(kind, tok, left, right)
	}
}

var relationalOps = map[lexer.Kind]syntaxtree.Kind{
	lexer.Lt:   syntaxtree.KindLess,
	lexer.LtEq: syntaxtree.KindLessEqual,
	lexer.Gt:   syntaxtree.KindGreater,
	lexer.GtEq: syntaxtree.KindGreaterEqual,
}

func (p *Parser) parseRelational() *syntaxtree.Node {
	left := p.parseAdditive()
	for {
		kind, ok := relationalOps[p.current().Kind]
		if !ok {
			return left
		}
		tok := p.advance()
		right := p.parseAdditive()
		left = p.buildLogical(kind, tok, left, right)
	}
}

var additiveOps = map[lexer.Kind]syntaxtree.Kind{
	lexer.Plus:  syntaxtree.KindAdd,
	lexer.Minus: syntaxtree.KindSubtract,
}

func (p *Parser) parseAdditive() *syntaxtree.Node {
	left := p.parseMultiplicative()
	for {
		kind, ok := additiveOps[p.current().Kind]
		if !ok {
			return left
		}
		tok := p.advance()
		right := p.parseMultiplicative()
		left = p.buildArithmetic(kind, tok, left, right)
	}
}

var multiplicativeOps = map[lexer.Kind]syntaxtree.Kind{
	lexer.Star:  syntaxtree.KindMultiply,
	lexer.Slash: syntaxtree.KindDivide,
	lexer.Dot:   syntaxtree.KindDot,
}

func (p *Parser) parseMultiplicative() *syntaxtree.Node {
	left := p.parseUnary()
	for {
		kind, ok := multiplicativeOps[p.current().Kind]
		if !ok {
			return left
		}
		tok := p.advance()
		right := p.parseUnary()
		if kind == syntaxtree.KindDot {
			left = p.buildDot(tok, left, right)
		} else {
			left = p.buildArithmetic(kind, tok, left, right)
		}
	}
}

func (p *Parser) parseUnary() *syntaxtree.Node {
	switch p.current().Kind {
	case lexer.Minus:
		tok := p.advance()
		operand := p.parseUnary()
		n := syntaxtree.New(syntaxtree.KindNegate, tok.Line)
		n.AddNode(operand)
		n.SetType(operand.Type)
		n.Storage = operand.Storage
		return n
	case lexer.Bang:
		tok := p.advance()
		operand := p.parseUnary()
		n := syntaxtree.New(syntaxtree.KindNot, tok.Line)
		n.AddNode(operand)
		n.SetType(value.TypeFloat)
		n.Storage = operand.Storage
		return n
	default:
		return p.parsePostfix()
	}
}

// parsePostfix handles `expr[index]`. Indexed assignment/access on
// array types is reserved in the grammar but unimplemented (spec.md
// §9 Open Question (a)); this core treats any use of it as a hard
// UNIMPLEMENTED error, per the decision recorded in DESIGN.md.
func (p *Parser) parsePostfix() *syntaxtree.Node {
	n := p.parsePrimary()
	for p.check(lexer.LBracket) {
		tok := p.advance()
		index := p.parseAssignmentExpr()
		p.expect(lexer.RBracket)
		p.errorAt(tok, diagnostic.Unimplemented, "indexed access/assignment is not implemented")
		wrapper := syntaxtree.New(syntaxtree.KindIndex, tok.Line)
		wrapper.AddNode(n)
		wrapper.AddNode(index)
		wrapper.SetType(n.Type)
		wrapper.Storage = value.StorageVarying
		n = wrapper
	}
	return n
}

func (p *Parser) parsePrimary() *syntaxtree.Node {
	tok := p.current()
	switch tok.Kind {
	case lexer.IntLiteral:
		p.advance()
		n := syntaxtree.NewLexeme(syntaxtree.KindInteger, tok.Line, tok.Text(p.source))
		n.SetType(value.TypeInteger)
		n.Storage = value.StorageConstant
		return n
	case lexer.FloatLiteral:
		p.advance()
		n := syntaxtree.NewLexeme(syntaxtree.KindReal, tok.Line, tok.Text(p.source))
		n.SetType(value.TypeFloat)
		n.Storage = value.StorageConstant
		return n
	case lexer.StringLiteral:
		p.advance()
		n := syntaxtree.NewLexeme(syntaxtree.KindString, tok.Line, tok.Text(p.source))
		n.SetType(value.TypeString)
		n.Storage = value.StorageConstant
		return n
	case lexer.Ident:
		return p.parseIdentifierOrCall()
	case lexer.Texture:
		return p.parseSamplingForm(tok, syntaxtree.KindTexture, "texture", value.TypeColor)
	case lexer.Environment:
		return p.parseSamplingForm(tok, syntaxtree.KindEnvironment, "environment", value.TypeColor)
	case lexer.Shadow:
		return p.parseSamplingForm(tok, syntaxtree.KindShadow, "shadow", value.TypeFloat)
	case lexer.LParen:
		return p.parseParenOrTuple()
	default:
		if isTypeToken(tok.Kind) {
			return p.parseTypecast()
		}
		p.errorAt(tok, diagnostic.SyntaxError, fmt.Sprintf("unexpected token %s in expression", tok.Kind))
		p.advance()
		n := syntaxtree.New(syntaxtree.KindNull, tok.Line)
		n.SetType(value.TypeFloat)
		n.Storage = value.StorageUniform
		return n
	}
}

func (p *Parser) parseIdentifierOrCall() *syntaxtree.Node {
	tok := p.advance()
	name := tok.Text(p.source)

	if p.check(lexer.LParen) {
		args := p.parseCallArgs()
		return p.resolveCall(name, tok, args)
	}

	n := syntaxtree.NewLexeme(syntaxtree.KindIdentifier, tok.Line, name)
	p.bindIdentifier(n, tok)
	return n
}

func (p *Parser) parseCallArgs() []*syntaxtree.Node {
	p.expect(lexer.LParen)
	var args []*syntaxtree.Node
	for !p.check(lexer.RParen) && p.current().Kind != lexer.EOF {
		args = append(args, p.parseAssignmentExpr())
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RParen)
	return args
}

// parseSamplingForm parses the texture/environment/shadow call forms.
// texture's default single-argument form implicitly appends the
// current s, t globals, per spec.md §4.3.
func (p *Parser) parseSamplingForm(tok lexer.Token, kind syntaxtree.Kind, builtinName string, resultType value.Type) *syntaxtree.Node {
	p.advance()
	args := p.parseCallArgs()
	if kind == syntaxtree.KindTexture && len(args) == 1 {
		args = append(args, p.lookupImplicitGlobal("s", tok), p.lookupImplicitGlobal("t", tok))
	}

	n := syntaxtree.New(kind, tok.Line)
	n.AddNodesAtEnd(args)
	n.SetType(resultType)
	n.Storage = combineStorage(args...)
	n.Symbol = p.symbols.FindSymbol(builtinName)
	return n
}

func (p *Parser) lookupImplicitGlobal(name string, tok lexer.Token) *syntaxtree.Node {
	n := syntaxtree.NewLexeme(syntaxtree.KindIdentifier, tok.Line, name)
	p.bindIdentifier(n, tok)
	return n
}

// parseParenOrTuple parses '(' expr (',' expr)* ')'. A single
// expression is a grouping; three is a triple (color/point/vector/
// normal, default color per spec.md §4.3, retyped by an enclosing
// typecast); sixteen is a matrix.
func (p *Parser) parseParenOrTuple() *syntaxtree.Node {
	tok := p.advance()
	var elems []*syntaxtree.Node
	for {
		elems = append(elems, p.parseAssignmentExpr())
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RParen)

	switch len(elems) {
	case 1:
		return elems[0]
	case 3:
		n := syntaxtree.New(syntaxtree.KindTriple, tok.Line)
		n.AddNodesAtEnd(elems)
		n.SetType(value.TypeColor)
		n.Storage = combineStorage(elems...)
		return n
	case 16:
		n := syntaxtree.New(syntaxtree.KindSixteenTuple, tok.Line)
		n.AddNodesAtEnd(elems)
		n.SetType(value.TypeMatrix)
		n.Storage = combineStorage(elems...)
		return n
	default:
		p.errorAt(tok, diagnostic.SyntaxError, fmt.Sprintf("a parenthesized tuple must have 1, 3 or 16 elements, got %d", len(elems)))
		n := syntaxtree.New(syntaxtree.KindTriple, tok.Line)
		n.AddNodesAtEnd(elems)
		n.SetType(value.TypeColor)
		n.Storage = value.StorageUniform
		return n
	}
}

// parseTypecast parses `T ["space"] expr` or `T ["space"] (x, y, z)`.
// A cast with no explicit space string picks up opts.DefaultCoordinateSystem/
// DefaultColorSpace instead of leaving the space empty: codegen emits a
// TRANSFORM/VTRANSFORM/NTRANSFORM instruction whenever the resolved
// space is non-empty, so the default now actually reprojects a bare
// point(0,0,0). Color keeps the default only as an annotation on the
// cast — there is no color-space transform opcode to run it through.
func (p *Parser) parseTypecast() *syntaxtree.Node {
	tok := p.current()
	target := p.parseTypeToken()

	space := ""
	if p.check(lexer.StringLiteral) {
		space = p.advance().Value
	} else {
		switch target {
		case value.TypeColor:
			space = p.opts.DefaultColorSpace
		case value.TypePoint, value.TypeVector, value.TypeNormal:
			space = p.opts.DefaultCoordinateSystem
		}
	}

	inner := p.parseUnary()
	n := syntaxtree.New(syntaxtree.KindTypecast, tok.Line)
	n.AddNode(inner)
	n.Attr = space
	n.Type = target
	n.OriginalType = inner.Type
	n.Storage = inner.Storage

	// A bare tuple literal's component type is context-dependent; an
	// enclosing typecast retypes it to the cast's target instead of
	// the triple's own color default.
	if inner.Kind == syntaxtree.KindTriple || inner.Kind == syntaxtree.KindSixteenTuple {
		inner.SetType(target)
	}
	return n
}

func (p *Parser) bindIdentifier(n *syntaxtree.Node, tok lexer.Token) {
	sym := p.symbols.FindSymbol(n.Lexeme)
	if sym == nil {
		if p.opts.ToleratesUnresolvedIdentifiers {
			p.diags.Add(diagnostic.Diagnostic{
				Severity: diagnostic.Warning,
				Code:     diagnostic.UnknownIdentifier,
				Message:  fmt.Sprintf("unresolved identifier %q", n.Lexeme),
				Range:    p.diags.MakeRange(tok.Start, tok.End),
			})
			n.SetType(value.TypeFloat)
			n.Storage = value.StorageUniform
			return
		}
		p.errorAt(tok, diagnostic.UnknownIdentifier, fmt.Sprintf("unresolved identifier %q", n.Lexeme))
		n.SetType(value.TypeFloat)
		n.Storage = value.StorageUniform
		return
	}
	n.Symbol = sym
	n.SetType(sym.Type)
	n.Storage = sym.Storage
}

// resolveCall binds a call to its function/builtin symbol and the
// overload whose parameters best match the argument list, per
// spec.md §4.3 rule 5. dot(a,b) and cross(a,b) are recognized by name
// here and lowered to their dedicated node kinds so the code
// generator can pick the DOT/CROSS instruction instead of a generic
// CALL_n, matching the Instruction taxonomy in spec.md §3.
func (p *Parser) resolveCall(name string, tok lexer.Token, args []*syntaxtree.Node) *syntaxtree.Node {
	sym := p.symbols.FindSymbol(name)
	if sym == nil {
		p.errorAt(tok, diagnostic.UnknownIdentifier, fmt.Sprintf("call to undefined function %q", name))
		return p.fallbackCallNode(name, tok, args)
	}

	infos := make([]symtab.ArgInfo, len(args))
	for i, a := range args {
		infos[i] = symtab.ArgInfo{Type: a.Type, Storage: a.Storage}
	}
	sig, ok := symtab.ResolveOverload(sym.Signatures, infos)
	if !ok {
		p.errorAt(tok, diagnostic.OverloadNotFound, fmt.Sprintf("no overload of %q matches the given arguments", name))
		return p.fallbackCallNode(name, tok, args)
	}

	kind := syntaxtree.KindCall
	if name == "dot" && len(args) == 2 {
		kind = syntaxtree.KindDot
	} else if name == "cross" && len(args) == 2 {
		kind = syntaxtree.KindCross
	}

	n := syntaxtree.New(kind, tok.Line)
	n.Lexeme = name
	n.AddNodesAtEnd(args)
	n.Symbol = sym
	n.Attr = sig.Builtin // the matched overload's Eval, consumed by internal/codegen's CALL_n emission
	n.SetType(sig.Return)
	n.Storage = combineStorage(args...)
	return n
}

func (p *Parser) fallbackCallNode(name string, tok lexer.Token, args []*syntaxtree.Node) *syntaxtree.Node {
	n := syntaxtree.New(syntaxtree.KindCall, tok.Line)
	n.Lexeme = name
	n.AddNodesAtEnd(args)
	n.SetType(value.TypeFloat)
	n.Storage = combineStorage(args...)
	return n
}

func (p *Parser) buildDot(tok lexer.Token, left, right *syntaxtree.Node) *syntaxtree.Node {
	n := syntaxtree.New(syntaxtree.KindDot, tok.Line)
	n.AddNode(left)
	n.AddNode(right)
	n.SetType(value.TypeFloat)
	n.Storage = combineStorage(left, right)
	if !left.Type.IsVec3() || !right.Type.IsVec3() {
		p.errorAt(tok, diagnostic.TypeMismatch, "the dot-product operator requires two vec3-shaped operands")
	}
	return n
}

// buildArithmetic implements spec.md §4.3's binary-arithmetic typing
// rule: color/point/vector/normal combine as vec3 arithmetic among
// matching subtypes, a vec3 and a float broadcast, float combines
// with float, and integer promotes to float.
func (p *Parser) buildArithmetic(kind syntaxtree.Kind, tok lexer.Token, left, right *syntaxtree.Node) *syntaxtree.Node {
	n := syntaxtree.New(kind, tok.Line)
	n.AddNode(left)
	n.AddNode(right)
	n.Storage = combineStorage(left, right)

	lt, rt := numericType(left.Type), numericType(right.Type)
	switch {
	case lt.IsVec3() && rt.IsVec3():
		if lt != rt {
			p.errorAt(tok, diagnostic.TypeMismatch, fmt.Sprintf("cannot combine %s and %s", lt, rt))
		}
		n.SetType(lt)
	case lt.IsVec3() && rt == value.TypeFloat:
		n.SetType(lt)
	case lt == value.TypeFloat && rt.IsVec3():
		n.SetType(rt)
	case lt == value.TypeFloat && rt == value.TypeFloat:
		n.SetType(value.TypeFloat)
	default:
		p.errorAt(tok, diagnostic.TypeMismatch, fmt.Sprintf("incompatible operand types %s and %s", left.Type, right.Type))
		n.SetType(value.TypeFloat)
	}
	return n
}

// numericType treats integer as float for arithmetic typing purposes
// (spec.md §4.3: "integer promotion is explicit").
func numericType(t value.Type) value.Type {
	if t == value.TypeInteger {
		return value.TypeFloat
	}
	return t
}

// combineStorage is varying if any child is varying, constant if
// every child is constant, otherwise uniform.
func combineStorage(nodes ...*syntaxtree.Node) value.Storage {
	allConstant := true
	for _, n := range nodes {
		if n.Storage == value.StorageVarying {
			return value.StorageVarying
		}
		if n.Storage != value.StorageConstant {
			allConstant = false
		}
	}
	if allConstant && len(nodes) > 0 {
		return value.StorageConstant
	}
	return value.StorageUniform
}

// typeAssignment implements spec.md §4.3's assignment rule: the
// right-hand side's type must match the left-hand side's after
// implicit conversion; uniform←varying is a storage-mismatch error,
// varying←uniform is a permitted promotion recorded on the node.
func (p *Parser) typeAssignment(n, lhs, rhs *syntaxtree.Node, tok lexer.Token) {
	n.SetType(lhs.Type)
	n.Storage = lhs.Storage

	if lhs.Storage == value.StorageUniform && rhs.Storage == value.StorageVarying {
		p.errorAt(tok, diagnostic.StorageMismatch,
			fmt.Sprintf("cannot assign a varying value to uniform %q", lhs.Lexeme))
		return
	}
	if lhs.Storage == value.StorageVarying && rhs.Storage != value.StorageVarying {
		rhs.SetStorageForPromotion(value.StorageVarying)
	}

	if rhs.Type != lhs.Type {
		if (numericType(rhs.Type) == value.TypeFloat || rhs.Type.IsVec3()) && lhs.Type.IsVec3() {
			rhs.SetTypeForConversion(lhs.Type)
		} else if rhs.Type == value.TypeInteger && lhs.Type == value.TypeFloat {
			rhs.SetTypeForConversion(lhs.Type)
		} else {
			p.errorAt(tok, diagnostic.TypeMismatch,
				fmt.Sprintf("cannot assign %s to %s", rhs.Type, lhs.Type))
		}
	}
}

// coerceAssignment applies the same rule as typeAssignment to a
// declarator's initializer, where there is no separate assignment
// node to annotate.
func (p *Parser) coerceAssignment(decl, init *syntaxtree.Node) {
	placeholder := syntaxtree.New(syntaxtree.KindNull, decl.Line)
	p.typeAssignment(placeholder, decl, init, lexer.Token{Line: decl.Line})
}
