// subst.go — shifting and capture-avoiding substitution.
//
// Variables are named de Bruijn references (expr.go), so substitution never
// renames binders and can never capture: when a replacement crosses a binder
// with the same label, the replacement's free indices are shifted up instead.
//
//	Shift(d, x, m, e)      adds d to every free variable named x with
//	                       index ≥ m in e
//	Subst(x, n, r, e)      replaces every free occurrence of x@n in e with r
//	betaReduce(x, body, a) the standard β-step for `(λ(x : A) → body) a`:
//	                       shift⁻¹ₓ (body[x@0 ≔ shift¹ₓ a])
//
// All three are total and pure; they build fresh nodes and leave their inputs
// untouched.
package tern

// Shift adjusts free-variable indices when an expression crosses binder
// boundaries. d is +1 when moving under one more binder named name, -1 when
// moving out; minIndex is the cutoff below which variables are bound (and
// therefore untouched).
func Shift(d int, name string, minIndex int, e *Expr) *Expr {
	switch e.Tag {
	case TVar:
		v := e.Data.(*Var)
		if v.Name == name && v.Index >= minIndex {
			return mkVar(v.Name, v.Index+d)
		}
		return e
	case TLambda, TPi:
		b := e.Data.(*Binder)
		cutoff := minIndex
		if b.Label == name {
			cutoff++
		}
		return &Expr{Tag: e.Tag, Data: &Binder{
			Label: b.Label,
			Type:  Shift(d, name, minIndex, b.Type),
			Body:  Shift(d, name, cutoff, b.Body),
		}}
	case TLet:
		l := e.Data.(*Let)
		cutoff := minIndex
		if l.Label == name {
			cutoff++
		}
		var ann *Expr
		if l.Annot != nil {
			ann = Shift(d, name, minIndex, l.Annot)
		}
		return &Expr{Tag: TLet, Data: &Let{
			Label: l.Label,
			Annot: ann,
			Value: Shift(d, name, minIndex, l.Value),
			Body:  Shift(d, name, cutoff, l.Body),
		}}
	default:
		return rebuild(e, func(child *Expr) *Expr { return Shift(d, name, minIndex, child) })
	}
}

// Subst replaces free occurrences of name@index in target with replacement.
// Crossing a binder with the same label bumps the index being sought; the
// replacement is shifted either way so its own free variables stay free.
func Subst(name string, index int, replacement *Expr, target *Expr) *Expr {
	switch target.Tag {
	case TVar:
		v := target.Data.(*Var)
		if v.Name == name && v.Index == index {
			return replacement
		}
		return target
	case TLambda, TPi:
		b := target.Data.(*Binder)
		idx := index
		if b.Label == name {
			idx++
		}
		return &Expr{Tag: target.Tag, Data: &Binder{
			Label: b.Label,
			Type:  Subst(name, index, replacement, b.Type),
			Body:  Subst(name, idx, Shift(1, b.Label, 0, replacement), b.Body),
		}}
	case TLet:
		l := target.Data.(*Let)
		idx := index
		if l.Label == name {
			idx++
		}
		var ann *Expr
		if l.Annot != nil {
			ann = Subst(name, index, replacement, l.Annot)
		}
		return &Expr{Tag: TLet, Data: &Let{
			Label: l.Label,
			Annot: ann,
			Value: Subst(name, index, replacement, l.Value),
			Body:  Subst(name, idx, Shift(1, l.Label, 0, replacement), l.Body),
		}}
	default:
		return rebuild(target, func(child *Expr) *Expr { return Subst(name, index, replacement, child) })
	}
}

// betaReduce performs one β-step: substitute arg for the bound variable of
// body. Used by the normalizer (lambda application, let) and the type checker
// (dependent codomains).
func betaReduce(label string, body *Expr, arg *Expr) *Expr {
	b := Subst(label, 0, Shift(1, label, 0, arg), body)
	return Shift(-1, label, 0, b)
}

// rebuild maps fn over the children of the non-binding variants. Binding
// variants (lambda, pi, let) must be handled by the caller because the cutoff
// or index changes under them.
func rebuild(e *Expr, fn func(*Expr) *Expr) *Expr {
	switch e.Tag {
	case TApp:
		a := e.Data.(*App)
		return &Expr{Tag: TApp, Data: &App{Fn: fn(a.Fn), Arg: fn(a.Arg)}, Span: e.Span}
	case TAnnot:
		a := e.Data.(*Annot)
		return &Expr{Tag: TAnnot, Data: &Annot{Expr: fn(a.Expr), Type: fn(a.Type)}, Span: e.Span}
	case TIf:
		i := e.Data.(*If)
		return &Expr{Tag: TIf, Data: &If{Cond: fn(i.Cond), Then: fn(i.Then), Else: fn(i.Else)}, Span: e.Span}
	case TOp:
		o := e.Data.(*Op)
		return &Expr{Tag: TOp, Data: &Op{Kind: o.Kind, L: fn(o.L), R: fn(o.R)}, Span: e.Span}
	case TList:
		l := e.Data.(*List)
		n := &List{}
		if l.Type != nil {
			n.Type = fn(l.Type)
		}
		for _, el := range l.Elems {
			n.Elems = append(n.Elems, fn(el))
		}
		return &Expr{Tag: TList, Data: n, Span: e.Span}
	case TSome:
		return &Expr{Tag: TSome, Data: &Some{Value: fn(e.Data.(*Some).Value)}, Span: e.Span}
	case TNone:
		return &Expr{Tag: TNone, Data: &None{Type: fn(e.Data.(*None).Type)}, Span: e.Span}
	case TRecordType, TRecordLit:
		r := e.Data.(*Record)
		n := &Record{}
		for _, f := range r.Fields {
			n.Fields = append(n.Fields, FieldEntry{Name: f.Name, Value: fn(f.Value)})
		}
		return &Expr{Tag: e.Tag, Data: n, Span: e.Span}
	case TSelect:
		s := e.Data.(*Select)
		return &Expr{Tag: TSelect, Data: &Select{Record: fn(s.Record), Name: s.Name}, Span: e.Span}
	case TUnionType:
		u := e.Data.(*Union)
		n := &Union{}
		for _, a := range u.Alternatives {
			n.Alternatives = append(n.Alternatives, FieldEntry{Name: a.Name, Value: fn(a.Value)})
		}
		return &Expr{Tag: TUnionType, Data: n, Span: e.Span}
	case TUnionLit:
		u := e.Data.(*UnionLit)
		n := &UnionLit{Tag: u.Tag, Value: fn(u.Value)}
		for _, a := range u.Alternatives {
			n.Alternatives = append(n.Alternatives, FieldEntry{Name: a.Name, Value: fn(a.Value)})
		}
		return &Expr{Tag: TUnionLit, Data: n, Span: e.Span}
	case TImport:
		imp := e.Data.(*Import)
		n := &Import{Kind: imp.Kind, Raw: imp.Raw}
		if imp.Hint != nil {
			n.Hint = fn(imp.Hint)
		}
		return &Expr{Tag: TImport, Data: n, Span: e.Span}
	default:
		// Leaves: variables handled by callers, literals and builtins are closed.
		return e
	}
}
