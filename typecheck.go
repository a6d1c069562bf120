// typecheck.go — bidirectional type inference and checking.
//
// OVERVIEW
// --------
// Two operations over import-free expressions:
//
//	Infer(ctx, e)        synthesize the type of e, or fail with one of the
//	                     structured errors in errors.go
//	Check(ctx, e, want)  defer to Infer, then compare against want using
//	                     normal-form alpha-equivalence (Equivalent)
//
// The context is an ordered, immutable list of (name, type) pairs, extended
// on entering a binder and simply dropped on leaving it. Types stored in the
// context are shifted on insertion (the usual discipline for named de Bruijn
// references), so Lookup returns a type already valid in the current scope.
//
// Inference is structural. The interesting rules:
//   - application needs a Pi head; the normalized domain must equal the
//     normalized argument type, and the result is the codomain with the
//     argument substituted (builtin signatures are dependent:
//     `Natural/fold : Natural → ∀(a : Type) → (a → a) → a → a`);
//   - `let` is checked by substituting the bound value into the body, after
//     verifying any annotation on the binding;
//   - universes are just Type : Kind; function types follow the three
//     allowed (domain, codomain) pairs (Type,Type) (Kind,Type) (Kind,Kind) —
//     there are no dependent types in the term language.
//
// The checker is a pure analysis: it never mutates its input, never
// normalizes the tree it was given (only copies for comparison), and never
// triggers imports — a surviving import node is itself a type error.
package tern

// Context is the scoped typing environment, innermost binding first.
// The zero value is the empty context.
type Context struct {
	pairs []ctxPair
}

type ctxPair struct {
	name string
	typ  *Expr
}

// NewContext returns an empty typing context.
func NewContext() *Context { return &Context{} }

// Insert returns a new context with (name : typ) innermost. Every stored
// type, the new one included, is shifted up on name so it remains valid under
// the new binder.
func (c *Context) Insert(name string, typ *Expr) *Context {
	pairs := make([]ctxPair, 0, len(c.pairs)+1)
	pairs = append(pairs, ctxPair{name: name, typ: typ})
	pairs = append(pairs, c.pairs...)
	for i := range pairs {
		pairs[i].typ = Shift(1, name, 0, pairs[i].typ)
	}
	return &Context{pairs: pairs}
}

// Lookup returns the type of the index-th innermost binding named name.
func (c *Context) Lookup(name string, index int) (*Expr, bool) {
	seen := 0
	for _, p := range c.pairs {
		if p.name != name {
			continue
		}
		if seen == index {
			return p.typ, true
		}
		seen++
	}
	return nil, false
}

// InferType infers the type of a closed expression (empty context).
func InferType(e *Expr) (*Expr, error) {
	return Infer(NewContext(), e)
}

// Check verifies e against an expected type using normal-form equality.
func Check(ctx *Context, e *Expr, want *Expr) error {
	got, err := Infer(ctx, e)
	if err != nil {
		return err
	}
	if !Equivalent(got, want) {
		return &TypeMismatchError{
			Expected: Normalize(want),
			Actual:   Normalize(got),
			Expr:     e,
			Span:     e.Span,
		}
	}
	return nil
}

// Infer synthesizes the type of e in ctx.
func Infer(ctx *Context, e *Expr) (*Expr, error) {
	switch e.Tag {
	case TVar:
		v := e.Data.(*Var)
		typ, ok := ctx.Lookup(v.Name, v.Index)
		if !ok {
			return nil, &UnboundVariableError{Name: v.Name, Index: v.Index, Span: e.Span}
		}
		return typ, nil

	case TBuiltin:
		return builtinType(e.Data.(Builtin), e)

	case TBoolLit:
		return mkBuiltin(BBool), nil
	case TNaturalLit:
		return mkBuiltin(BNatural), nil
	case TIntegerLit:
		return mkBuiltin(BInteger), nil
	case TDoubleLit:
		return mkBuiltin(BDouble), nil
	case TTextLit:
		return mkBuiltin(BText), nil

	case TLambda:
		b := e.Data.(*Binder)
		if _, err := inferConst(ctx, b.Type); err != nil {
			return nil, err
		}
		domain := Normalize(b.Type)
		inner := ctx.Insert(b.Label, domain)
		bodyType, err := Infer(inner, b.Body)
		if err != nil {
			return nil, err
		}
		pi := mkPi(b.Label, domain, bodyType)
		// The produced Pi must itself be well-formed.
		if _, err := Infer(ctx, pi); err != nil {
			return nil, err
		}
		return pi, nil

	case TPi:
		b := e.Data.(*Binder)
		cDomain, err := inferConst(ctx, b.Type)
		if err != nil {
			return nil, err
		}
		inner := ctx.Insert(b.Label, Normalize(b.Type))
		cCodomain, err := inferConst(inner, b.Body)
		if err != nil {
			return nil, err
		}
		switch {
		case cCodomain == BType:
			return mkBuiltin(BType), nil // (Type,Type) and (Kind,Type)
		case cDomain == BKind && cCodomain == BKind:
			return mkBuiltin(BKind), nil
		default:
			return nil, &InvalidTypeError{
				Message: "a term-level function cannot return a type (no dependent types)",
				Expr:    e,
				Span:    e.Span,
			}
		}

	case TApp:
		a := e.Data.(*App)
		fnType, err := Infer(ctx, a.Fn)
		if err != nil {
			return nil, err
		}
		fnType = Normalize(fnType)
		if fnType.Tag != TPi {
			return nil, &NotAFunctionError{Type: fnType, Expr: a.Fn, Span: e.Span}
		}
		pi := fnType.Data.(*Binder)
		argType, err := Infer(ctx, a.Arg)
		if err != nil {
			return nil, err
		}
		if !Equivalent(pi.Type, argType) {
			return nil, &TypeMismatchError{
				Expected: Normalize(pi.Type),
				Actual:   Normalize(argType),
				Expr:     a.Arg,
				Span:     a.Arg.Span,
			}
		}
		return betaReduce(pi.Label, pi.Body, a.Arg), nil

	case TLet:
		l := e.Data.(*Let)
		valueType, err := Infer(ctx, l.Value)
		if err != nil {
			return nil, err
		}
		if l.Annot != nil {
			if _, err := Infer(ctx, l.Annot); err != nil {
				return nil, err
			}
			if !Equivalent(l.Annot, valueType) {
				return nil, &TypeMismatchError{
					Expected: Normalize(l.Annot),
					Actual:   Normalize(valueType),
					Expr:     l.Value,
					Span:     l.Value.Span,
				}
			}
		}
		return Infer(ctx, betaReduce(l.Label, l.Body, l.Value))

	case TAnnot:
		a := e.Data.(*Annot)
		if !isBuiltin(a.Type, BKind) {
			if _, err := Infer(ctx, a.Type); err != nil {
				return nil, err
			}
		}
		if err := Check(ctx, a.Expr, a.Type); err != nil {
			return nil, err
		}
		return a.Type, nil

	case TIf:
		i := e.Data.(*If)
		if err := Check(ctx, i.Cond, mkBuiltin(BBool)); err != nil {
			return nil, err
		}
		thenType, err := Infer(ctx, i.Then)
		if err != nil {
			return nil, err
		}
		elseType, err := Infer(ctx, i.Else)
		if err != nil {
			return nil, err
		}
		if !Equivalent(thenType, elseType) {
			return nil, &TypeMismatchError{
				Expected: Normalize(thenType),
				Actual:   Normalize(elseType),
				Expr:     i.Else,
				Span:     i.Else.Span,
			}
		}
		if err := requireTerm(ctx, thenType, e, "if branches must be terms, not types"); err != nil {
			return nil, err
		}
		return thenType, nil

	case TOp:
		o := e.Data.(*Op)
		operand := opOperandType(o.Kind)
		if err := Check(ctx, o.L, operand); err != nil {
			return nil, err
		}
		if err := Check(ctx, o.R, operand); err != nil {
			return nil, err
		}
		return operand, nil

	case TList:
		return inferList(ctx, e)

	case TSome:
		s := e.Data.(*Some)
		elemType, err := Infer(ctx, s.Value)
		if err != nil {
			return nil, err
		}
		if err := requireTerm(ctx, elemType, e, "Some needs a term, not a type"); err != nil {
			return nil, err
		}
		return mkApp(mkBuiltin(BOptional), elemType), nil

	case TNone:
		n := e.Data.(*None)
		if err := requireType(ctx, n.Type); err != nil {
			return nil, err
		}
		return mkApp(mkBuiltin(BOptional), n.Type), nil

	case TRecordLit:
		r := e.Data.(*Record)
		seen := map[string]bool{}
		fieldTypes := &Record{}
		for _, f := range r.Fields {
			if seen[f.Name] {
				return nil, &DuplicateFieldError{Name: f.Name, Span: e.Span}
			}
			seen[f.Name] = true
			t, err := Infer(ctx, f.Value)
			if err != nil {
				return nil, err
			}
			if err := requireTerm(ctx, t, f.Value, "record fields must be terms, not types"); err != nil {
				return nil, err
			}
			fieldTypes.Fields = append(fieldTypes.Fields, FieldEntry{Name: f.Name, Value: t})
		}
		return &Expr{Tag: TRecordType, Data: fieldTypes}, nil

	case TRecordType:
		r := e.Data.(*Record)
		seen := map[string]bool{}
		for _, f := range r.Fields {
			if seen[f.Name] {
				return nil, &DuplicateFieldError{Name: f.Name, Span: e.Span}
			}
			seen[f.Name] = true
			if err := requireType(ctx, f.Value); err != nil {
				return nil, err
			}
		}
		return mkBuiltin(BType), nil

	case TSelect:
		s := e.Data.(*Select)
		recType, err := Infer(ctx, s.Record)
		if err != nil {
			return nil, err
		}
		recType = Normalize(recType)
		if recType.Tag != TRecordType {
			return nil, &InvalidTypeError{
				Message: "only records have fields",
				Expr:    s.Record,
				Span:    e.Span,
			}
		}
		if t := recType.Data.(*Record).Lookup(s.Name); t != nil {
			return t, nil
		}
		return nil, &UnknownFieldError{Name: s.Name, RecordType: recType, Span: e.Span}

	case TUnionType:
		u := e.Data.(*Union)
		seen := map[string]bool{}
		for _, a := range u.Alternatives {
			if seen[a.Name] {
				return nil, &DuplicateAlternativeError{Name: a.Name, Span: e.Span}
			}
			seen[a.Name] = true
			if err := requireType(ctx, a.Value); err != nil {
				return nil, err
			}
		}
		return mkBuiltin(BType), nil

	case TUnionLit:
		u := e.Data.(*UnionLit)
		seen := map[string]bool{u.Tag: true}
		for _, a := range u.Alternatives {
			if seen[a.Name] {
				return nil, &DuplicateAlternativeError{Name: a.Name, Span: e.Span}
			}
			seen[a.Name] = true
			if err := requireType(ctx, a.Value); err != nil {
				return nil, err
			}
		}
		valueType, err := Infer(ctx, u.Value)
		if err != nil {
			return nil, err
		}
		if err := requireTerm(ctx, valueType, u.Value, "union payloads must be terms, not types"); err != nil {
			return nil, err
		}
		alts := append([]FieldEntry{{Name: u.Tag, Value: valueType}}, u.Alternatives...)
		return &Expr{Tag: TUnionType, Data: &Union{Alternatives: alts}}, nil

	case TImport:
		imp := e.Data.(*Import)
		return nil, &InvalidTypeError{
			Message: "unresolved import " + imp.Raw + " reached the type checker (imports must be resolved first)",
			Expr:    e,
			Span:    e.Span,
		}
	}
	return nil, &InvalidTypeError{Message: "malformed expression", Expr: e, Span: e.Span}
}

func inferList(ctx *Context, e *Expr) (*Expr, error) {
	l := e.Data.(*List)
	if l.Type != nil {
		if err := requireType(ctx, l.Type); err != nil {
			return nil, err
		}
		for _, el := range l.Elems {
			if err := Check(ctx, el, l.Type); err != nil {
				return nil, err
			}
		}
		return mkApp(mkBuiltin(BList), l.Type), nil
	}
	if len(l.Elems) == 0 {
		return nil, &InvalidTypeError{
			Message: "an empty list needs a type annotation: [] : List T",
			Expr:    e,
			Span:    e.Span,
		}
	}
	elemType, err := Infer(ctx, l.Elems[0])
	if err != nil {
		return nil, err
	}
	if err := requireTerm(ctx, elemType, l.Elems[0], "list elements must be terms, not types"); err != nil {
		return nil, err
	}
	for _, el := range l.Elems[1:] {
		t, err := Infer(ctx, el)
		if err != nil {
			return nil, err
		}
		if !Equivalent(elemType, t) {
			return nil, &TypeMismatchError{
				Expected: Normalize(elemType),
				Actual:   Normalize(t),
				Expr:     el,
				Span:     el.Span,
			}
		}
	}
	return mkApp(mkBuiltin(BList), elemType), nil
}

// inferConst infers e and requires the result to normalize to Type or Kind.
func inferConst(ctx *Context, e *Expr) (Builtin, error) {
	t, err := Infer(ctx, e)
	if err != nil {
		return 0, err
	}
	n := Normalize(t)
	if n.Tag == TBuiltin {
		if b := n.Data.(Builtin); b == BType || b == BKind {
			return b, nil
		}
	}
	return 0, &InvalidTypeError{
		Message: "expected a type, but " + Render(e) + " has type " + Render(n),
		Expr:    e,
		Span:    e.Span,
	}
}

// requireType requires e : Type (a term-level type).
func requireType(ctx *Context, e *Expr) error {
	c, err := inferConst(ctx, e)
	if err != nil {
		return err
	}
	if c != BType {
		return &InvalidTypeError{
			Message: Render(e) + " is a kind-level expression where a type was expected",
			Expr:    e,
			Span:    e.Span,
		}
	}
	return nil
}

// requireTerm requires that typ — the already-inferred type of some
// expression — is itself a Type, i.e. the expression is an ordinary term.
func requireTerm(ctx *Context, typ *Expr, offender *Expr, msg string) error {
	c, err := inferConst(ctx, typ)
	if err != nil || c != BType {
		return &InvalidTypeError{Message: msg, Expr: offender, Span: offender.Span}
	}
	return nil
}

func opOperandType(k OpKind) *Expr {
	switch k {
	case OpPlus, OpTimes:
		return mkBuiltin(BNatural)
	case OpTextAppend:
		return mkBuiltin(BText)
	default: // ||, &&, ==, !=
		return mkBuiltin(BBool)
	}
}

// builtinType returns the fixed (possibly dependent) signature of a builtin.
func builtinType(b Builtin, at *Expr) (*Expr, error) {
	typ := mkBuiltin(BType)
	nat := mkBuiltin(BNatural)
	a := func() *Expr { return mkVar("a", 0) }
	endo := func() *Expr { return mkPi("_", a(), a()) } // a → a

	switch b {
	case BBool, BNatural, BInteger, BDouble, BText:
		return typ, nil
	case BList, BOptional:
		return mkPi("_", typ, typ), nil
	case BType:
		return mkBuiltin(BKind), nil
	case BKind:
		return nil, &InvalidTypeError{Message: "Kind has no type", Expr: at, Span: at.Span}
	case BNaturalEven, BNaturalOdd, BNaturalIsZero:
		return mkPi("_", nat, mkBuiltin(BBool)), nil
	case BNaturalFold:
		// Natural → ∀(a : Type) → (a → a) → a → a
		return mkPi("_", nat,
			mkPi("a", typ,
				mkPi("_", endo(),
					mkPi("_", a(), a())))), nil
	case BNaturalBuild:
		// (∀(a : Type) → (a → a) → a → a) → Natural
		return mkPi("_",
			mkPi("a", typ,
				mkPi("_", endo(),
					mkPi("_", a(), a()))),
			nat), nil
	}
	return nil, &InvalidTypeError{Message: "unknown builtin", Expr: at, Span: at.Span}
}
