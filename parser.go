// parser.go — precedence parser for the Tern surface syntax.
//
// OVERVIEW
// --------
// Consumes the token stream from lexer.go and builds `*Expr` trees (expr.go).
// The grammar, loosest-binding first:
//
//	expr        := nonAnnot (":" expr)?
//	nonAnnot    := lambda | forall | let | if | arrow
//	lambda      := "\" "(" IDENT ":" expr ")" "->" expr
//	forall      := "forall" "(" IDENT ":" expr ")" "->" expr
//	let         := "let" IDENT (":" expr)? "=" expr "in" expr
//	if          := "if" expr "then" expr "else" expr
//	arrow       := op0 ("->" nonAnnot)?          -- sugar for ∀(_ : A) → B
//	op0..op5    := "||" < "&&" < "=="/"!=" < "++" < "+" < "*", left-assoc
//	application := selector selector*             -- juxtaposition
//	selector    := atom ("." IDENT)*
//	atom        := literal | IDENT | "Some" selector | "None" selector
//	             | "(" expr ")" | list | record | union | import
//
// Annotation handling has two special cases the rest of the pipeline relies
// on:
//   - `[…] : List T` folds the element type into the list node itself (so
//     empty lists stay typeable after the annotation would have been erased);
//   - `./x : T` attaches T as the import's expected-type hint, verified by
//     the resolver against the resolved, type-checked import.
//
// Records `{ a = x }` vs record types `{ a : T }` (empty: `{=}` vs `{}`) and
// union literals `< k = e | a : T >` vs union types `< a : T | b : U >` are
// disambiguated by the first separator. Duplicate field names and duplicate
// alternative tags are rejected here as parse errors; the type checker
// re-checks the invariant for synthesized trees.
//
// All nodes carry the 1-based Span of their introducing token.
package tern

import "fmt"

// ParseError is a positioned parse failure; errors.go renders it with a caret
// snippet via WrapErrorWithSource.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// ParseExpr parses a complete expression; trailing tokens are an error.
func ParseExpr(src string) (*Expr, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, p.errf(tok, "unexpected %s after expression", describe(tok))
	}
	return e, nil
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token  { return p.toks[p.pos] }
func (p *parser) next() Token  { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) at(t TokenType) bool { return p.toks[p.pos].Type == t }

func (p *parser) errf(tok Token, format string, args ...any) error {
	return &ParseError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(t TokenType, what string) (Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, p.errf(tok, "expected %s, found %s", what, describe(tok))
	}
	return p.next(), nil
}

func describe(tok Token) string {
	if tok.Type == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Lit)
}

func spanOf(tok Token) Span { return Span{Line: tok.Line, Col: tok.Col} }

/* ===========================
   Expression levels
   =========================== */

func (p *parser) parseExpr() (*Expr, error) {
	e, err := p.parseNonAnnot()
	if err != nil {
		return nil, err
	}
	if !p.at(COLON) {
		return e, nil
	}
	colon := p.next()
	t, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	// `[…] : List T` — fold the element type into the list literal.
	if e.Tag == TList {
		if elem, ok := listElementType(t); ok {
			l := e.Data.(*List)
			return &Expr{Tag: TList, Data: &List{Type: elem, Elems: l.Elems}, Span: e.Span}, nil
		}
	}
	// `./x : T` — expected-type hint, checked by the resolver.
	if e.Tag == TImport {
		imp := e.Data.(*Import)
		return &Expr{Tag: TImport, Data: &Import{Kind: imp.Kind, Raw: imp.Raw, Hint: t}, Span: e.Span}, nil
	}
	return &Expr{Tag: TAnnot, Data: &Annot{Expr: e, Type: t}, Span: spanOf(colon)}, nil
}

// listElementType matches `List T` and returns T.
func listElementType(t *Expr) (*Expr, bool) {
	if t.Tag != TApp {
		return nil, false
	}
	a := t.Data.(*App)
	if isBuiltin(a.Fn, BList) {
		return a.Arg, true
	}
	return nil, false
}

func (p *parser) parseNonAnnot() (*Expr, error) {
	switch p.peek().Type {
	case LAMBDA:
		return p.parseBinder(TLambda)
	case FORALL:
		return p.parseBinder(TPi)
	case LET:
		return p.parseLet()
	case IF:
		return p.parseIf()
	}
	l, err := p.parseOpLevel(0)
	if err != nil {
		return nil, err
	}
	if p.at(ARROW) {
		arrow := p.next()
		r, err := p.parseNonAnnot()
		if err != nil {
			return nil, err
		}
		return &Expr{Tag: TPi, Data: &Binder{Label: "_", Type: l, Body: r}, Span: spanOf(arrow)}, nil
	}
	return l, nil
}

// parseBinder parses `\(x : A) -> b` (TLambda) or `forall (x : A) -> B` (TPi).
func (p *parser) parseBinder(tag ExprTag) (*Expr, error) {
	intro := p.next()
	if _, err := p.expect(LPAREN, `"("`); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT, "a variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, `":"`); err != nil {
		return nil, err
	}
	typ, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, `")"`); err != nil {
		return nil, err
	}
	if _, err := p.expect(ARROW, `"->"`); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Expr{Tag: tag, Data: &Binder{Label: name.Lit, Type: typ, Body: body}, Span: spanOf(intro)}, nil
}

func (p *parser) parseLet() (*Expr, error) {
	intro := p.next()
	name, err := p.expect(IDENT, "a binding name")
	if err != nil {
		return nil, err
	}
	var annot *Expr
	if p.at(COLON) {
		p.next()
		if annot, err = p.parseNonAnnot(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(EQUALS, `"="`); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(IN, `"in"`); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Expr{Tag: TLet, Data: &Let{Label: name.Lit, Annot: annot, Value: value, Body: body}, Span: spanOf(intro)}, nil
}

func (p *parser) parseIf() (*Expr, error) {
	intro := p.next()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(THEN, `"then"`); err != nil {
		return nil, err
	}
	thn, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE, `"else"`); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Expr{Tag: TIf, Data: &If{Cond: cond, Then: thn, Else: els}, Span: spanOf(intro)}, nil
}

// opLevels orders the operator tokens loosest-binding first; every level is
// left-associative.
var opLevels = [][]struct {
	tok TokenType
	op  OpKind
}{
	{{OR, OpOr}},
	{{AND, OpAnd}},
	{{EQEQ, OpEq}, {NEQ, OpNe}},
	{{TEXTAPPEND, OpTextAppend}},
	{{PLUS, OpPlus}},
	{{STAR, OpTimes}},
}

func (p *parser) parseOpLevel(level int) (*Expr, error) {
	if level >= len(opLevels) {
		return p.parseApplication()
	}
	l, err := p.parseOpLevel(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, cand := range opLevels[level] {
			if p.at(cand.tok) {
				opTok := p.next()
				r, err := p.parseOpLevel(level + 1)
				if err != nil {
					return nil, err
				}
				l = &Expr{Tag: TOp, Data: &Op{Kind: cand.op, L: l, R: r}, Span: spanOf(opTok)}
				matched = true
				break
			}
		}
		if !matched {
			return l, nil
		}
	}
}

func (p *parser) parseApplication() (*Expr, error) {
	f, err := p.parseSelector()
	if err != nil {
		return nil, err
	}
	for startsAtom(p.peek().Type) {
		arg, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		f = &Expr{Tag: TApp, Data: &App{Fn: f, Arg: arg}, Span: f.Span}
	}
	return f, nil
}

func startsAtom(t TokenType) bool {
	switch t {
	case IDENT, NATURAL, INTEGER, DOUBLE, TEXT, BOOL,
		LPAREN, LBRACKET, LBRACE, LANGLE, PATH, URL, ENVREF, SOME, NONE:
		return true
	}
	return false
}

func (p *parser) parseSelector() (*Expr, error) {
	a, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.at(DOT) {
		dot := p.next()
		name, err := p.expect(IDENT, "a field name")
		if err != nil {
			return nil, err
		}
		a = &Expr{Tag: TSelect, Data: &Select{Record: a, Name: name.Lit}, Span: spanOf(dot)}
	}
	return a, nil
}

func (p *parser) parseAtom() (*Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case IDENT:
		p.next()
		if b, ok := BuiltinNamed(tok.Lit); ok {
			return &Expr{Tag: TBuiltin, Data: b, Span: spanOf(tok)}, nil
		}
		return &Expr{Tag: TVar, Data: &Var{Name: tok.Lit}, Span: spanOf(tok)}, nil
	case NATURAL:
		p.next()
		return &Expr{Tag: TNaturalLit, Data: tok.Nat, Span: spanOf(tok)}, nil
	case INTEGER:
		p.next()
		return &Expr{Tag: TIntegerLit, Data: tok.Int, Span: spanOf(tok)}, nil
	case DOUBLE:
		p.next()
		return &Expr{Tag: TDoubleLit, Data: tok.Dbl, Span: spanOf(tok)}, nil
	case TEXT:
		p.next()
		return &Expr{Tag: TTextLit, Data: tok.Str, Span: spanOf(tok)}, nil
	case BOOL:
		p.next()
		return &Expr{Tag: TBoolLit, Data: tok.B, Span: spanOf(tok)}, nil
	case SOME:
		p.next()
		v, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		return &Expr{Tag: TSome, Data: &Some{Value: v}, Span: spanOf(tok)}, nil
	case NONE:
		p.next()
		t, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		return &Expr{Tag: TNone, Data: &None{Type: t}, Span: spanOf(tok)}, nil
	case LPAREN:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, `")"`); err != nil {
			return nil, err
		}
		return e, nil
	case LBRACKET:
		return p.parseList()
	case LBRACE:
		return p.parseRecord()
	case LANGLE:
		return p.parseUnion()
	case PATH:
		p.next()
		return &Expr{Tag: TImport, Data: &Import{Kind: TargetLocal, Raw: tok.Lit}, Span: spanOf(tok)}, nil
	case URL:
		p.next()
		return &Expr{Tag: TImport, Data: &Import{Kind: TargetRemote, Raw: tok.Lit}, Span: spanOf(tok)}, nil
	case ENVREF:
		p.next()
		return &Expr{Tag: TImport, Data: &Import{Kind: TargetEnv, Raw: tok.Str}, Span: spanOf(tok)}, nil
	}
	return nil, p.errf(tok, "expected an expression, found %s", describe(tok))
}

func (p *parser) parseList() (*Expr, error) {
	intro := p.next() // '['
	l := &List{}
	if p.at(RBRACKET) {
		p.next()
		return &Expr{Tag: TList, Data: l, Span: spanOf(intro)}, nil
	}
	for {
		el, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		l.Elems = append(l.Elems, el)
		if p.at(COMMA) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(RBRACKET, `"]"`); err != nil {
		return nil, err
	}
	return &Expr{Tag: TList, Data: l, Span: spanOf(intro)}, nil
}

func (p *parser) parseRecord() (*Expr, error) {
	intro := p.next() // '{'

	if p.at(RBRACE) { // {} — the empty record type
		p.next()
		return &Expr{Tag: TRecordType, Data: &Record{}, Span: spanOf(intro)}, nil
	}
	if p.at(EQUALS) { // {=} — the empty record literal
		p.next()
		if _, err := p.expect(RBRACE, `"}"`); err != nil {
			return nil, err
		}
		return &Expr{Tag: TRecordLit, Data: &Record{}, Span: spanOf(intro)}, nil
	}

	var tag ExprTag
	var sep TokenType
	rec := &Record{}
	seen := map[string]bool{}
	for {
		name, err := p.expect(IDENT, "a field name")
		if err != nil {
			return nil, err
		}
		if seen[name.Lit] {
			return nil, p.errf(name, "duplicate record field %q", name.Lit)
		}
		seen[name.Lit] = true

		if len(rec.Fields) == 0 {
			// First separator decides literal vs type.
			switch p.peek().Type {
			case EQUALS:
				tag, sep = TRecordLit, EQUALS
			case COLON:
				tag, sep = TRecordType, COLON
			default:
				return nil, p.errf(p.peek(), `expected "=" or ":" after field name, found %s`, describe(p.peek()))
			}
		}
		if _, err := p.expect(sep, fmt.Sprintf("%q", tokenText(sep))); err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, FieldEntry{Name: name.Lit, Value: v})

		if p.at(COMMA) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(RBRACE, `"}"`); err != nil {
		return nil, err
	}
	return &Expr{Tag: tag, Data: rec, Span: spanOf(intro)}, nil
}

func (p *parser) parseUnion() (*Expr, error) {
	intro := p.next() // '<'
	var (
		alts     []FieldEntry
		selected string
		value    *Expr
	)
	seen := map[string]bool{}
	for {
		name, err := p.expect(IDENT, "an alternative tag")
		if err != nil {
			return nil, err
		}
		if seen[name.Lit] {
			return nil, p.errf(name, "duplicate union alternative %q", name.Lit)
		}
		seen[name.Lit] = true

		switch p.peek().Type {
		case EQUALS:
			if value != nil {
				return nil, p.errf(name, "a union literal selects exactly one alternative")
			}
			p.next()
			if value, err = p.parseExpr(); err != nil {
				return nil, err
			}
			selected = name.Lit
		case COLON:
			p.next()
			t, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			alts = append(alts, FieldEntry{Name: name.Lit, Value: t})
		default:
			return nil, p.errf(p.peek(), `expected "=" or ":" after alternative tag, found %s`, describe(p.peek()))
		}

		if p.at(BAR) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(RANGLE, `">"`); err != nil {
		return nil, err
	}
	if value != nil {
		return &Expr{Tag: TUnionLit, Data: &UnionLit{Tag: selected, Value: value, Alternatives: alts}, Span: spanOf(intro)}, nil
	}
	return &Expr{Tag: TUnionType, Data: &Union{Alternatives: alts}, Span: spanOf(intro)}, nil
}

func tokenText(t TokenType) string {
	switch t {
	case EQUALS:
		return "="
	case COLON:
		return ":"
	}
	return "?"
}
