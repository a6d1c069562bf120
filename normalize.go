// normalize.go — reduction to normal form.
//
// OVERVIEW
// --------
// `Normalize` maps an import-free expression to its unique normal form by
// structural recursion: subterms are normalized first, then the head redex at
// each node is rewritten until none remains.
//
//   - β: `(λ(x : A) → b) a` rewrites to `b[x ≔ a]` (betaReduce, subst.go),
//     with `a` already in normal form.
//   - `let x = v in b` is a β-redex and reduces by substitution.
//   - reduction happens *under binders*: a lambda body is normalized with its
//     bound variable free, so partially applied functions can be inspected
//     without being applied (`λ(n : Bool) → +10 * +10` → `λ(n : Bool) → +100`).
//   - the seven operators reduce only when **both** operands are literals;
//     anything else stays as a normalized-but-unevaluated operator node.
//     `x && False` does not rewrite.
//   - `Natural/even`, `Natural/odd`, `Natural/isZero` reduce on literal
//     naturals; `Natural/fold n T s z` unfolds exactly n times when n is a
//     literal; `Natural/build g` reduces as `g Natural (λ(n : Natural) →
//     n + +1) +0`.
//   - type annotations are erased (the checker has already consumed them).
//
// FUSION
// ------
// The fold/build pair cancels by rewrite, *before* the argument is normalized
// (normalizing first would unfold the build and destroy the shape):
//
//	Natural/fold  (Natural/build g) ⇒ g
//	Natural/build (Natural/fold  x) ⇒ x
//
// so `Natural/fold (Natural/build g) T s z` applies g directly and no
// intermediate natural is ever materialized.
//
// TERMINATION & IDEMPOTENCE
// -------------------------
// Every rewrite strictly shrinks (structural size, outstanding redex count)
// under a well-founded order: the language has no general recursion, and the
// only looping construct — fold over a literal natural — is structurally
// decreasing in the literal. Normalize(Normalize(e)) == Normalize(e) for all
// e (normalize_test.go exercises this over the whole test corpus).
package tern

// Normalize reduces e to normal form. It is total, pure, confluent, and
// idempotent. Import references must already be resolved; a surviving
// TImport node is passed through untouched so the function stays total.
func Normalize(e *Expr) *Expr {
	switch e.Tag {
	case TVar, TBoolLit, TNaturalLit, TIntegerLit, TDoubleLit, TTextLit, TBuiltin, TImport:
		return e

	case TLambda, TPi:
		b := e.Data.(*Binder)
		return &Expr{Tag: e.Tag, Data: &Binder{
			Label: b.Label,
			Type:  Normalize(b.Type),
			Body:  Normalize(b.Body),
		}}

	case TApp:
		return normalizeApp(e.Data.(*App))

	case TLet:
		l := e.Data.(*Let)
		return Normalize(betaReduce(l.Label, l.Body, l.Value))

	case TAnnot:
		return Normalize(e.Data.(*Annot).Expr)

	case TIf:
		i := e.Data.(*If)
		cond := Normalize(i.Cond)
		if cond.Tag == TBoolLit {
			if cond.Data.(bool) {
				return Normalize(i.Then)
			}
			return Normalize(i.Else)
		}
		return &Expr{Tag: TIf, Data: &If{Cond: cond, Then: Normalize(i.Then), Else: Normalize(i.Else)}}

	case TOp:
		o := e.Data.(*Op)
		return normalizeOp(o.Kind, Normalize(o.L), Normalize(o.R))

	case TList:
		l := e.Data.(*List)
		n := &List{}
		if l.Type != nil {
			n.Type = Normalize(l.Type)
		}
		for _, el := range l.Elems {
			n.Elems = append(n.Elems, Normalize(el))
		}
		return &Expr{Tag: TList, Data: n}

	case TSome:
		return &Expr{Tag: TSome, Data: &Some{Value: Normalize(e.Data.(*Some).Value)}}

	case TNone:
		return &Expr{Tag: TNone, Data: &None{Type: Normalize(e.Data.(*None).Type)}}

	case TRecordType, TRecordLit:
		r := e.Data.(*Record)
		n := &Record{}
		for _, f := range r.Fields {
			n.Fields = append(n.Fields, FieldEntry{Name: f.Name, Value: Normalize(f.Value)})
		}
		return &Expr{Tag: e.Tag, Data: n}

	case TSelect:
		s := e.Data.(*Select)
		rec := Normalize(s.Record)
		if rec.Tag == TRecordLit {
			if v := rec.Data.(*Record).Lookup(s.Name); v != nil {
				return v
			}
		}
		return &Expr{Tag: TSelect, Data: &Select{Record: rec, Name: s.Name}}

	case TUnionType:
		u := e.Data.(*Union)
		n := &Union{}
		for _, a := range u.Alternatives {
			n.Alternatives = append(n.Alternatives, FieldEntry{Name: a.Name, Value: Normalize(a.Value)})
		}
		return &Expr{Tag: TUnionType, Data: n}

	case TUnionLit:
		u := e.Data.(*UnionLit)
		n := &UnionLit{Tag: u.Tag, Value: Normalize(u.Value)}
		for _, a := range u.Alternatives {
			n.Alternatives = append(n.Alternatives, FieldEntry{Name: a.Name, Value: Normalize(a.Value)})
		}
		return &Expr{Tag: TUnionLit, Data: n}
	}
	return e
}

func normalizeApp(a *App) *Expr {
	fn := Normalize(a.Fn)

	// Fusion first, on the raw argument: the build/fold shape must be matched
	// before argument normalization unfolds it.
	if arg, ok := fusionPartner(fn, a.Arg, BNaturalFold, BNaturalBuild); ok {
		return Normalize(arg) // Natural/fold (Natural/build g) ⇒ g
	}
	if arg, ok := fusionPartner(fn, a.Arg, BNaturalBuild, BNaturalFold); ok {
		return Normalize(arg) // Natural/build (Natural/fold x) ⇒ x
	}

	arg := Normalize(a.Arg)

	if fn.Tag == TLambda {
		b := fn.Data.(*Binder)
		return Normalize(betaReduce(b.Label, b.Body, arg))
	}

	app := mkApp(fn, arg)
	if reduced := reduceBuiltinApp(app); reduced != nil {
		return reduced
	}
	return app
}

// fusionPartner matches `outer (inner g)` where outer is the given builtin in
// head position and inner normalizes to its fusion partner, returning g.
func fusionPartner(fn *Expr, rawArg *Expr, outer, inner Builtin) (*Expr, bool) {
	if !isBuiltin(fn, outer) {
		return nil, false
	}
	arg := stripAnnots(rawArg)
	if arg.Tag != TApp {
		return nil, false
	}
	ia := arg.Data.(*App)
	if !isBuiltin(Normalize(ia.Fn), inner) {
		return nil, false
	}
	return ia.Arg, true
}

// reduceBuiltinApp applies the Natural builtin rules to a fully normalized
// application node, or returns nil when no rule fires.
func reduceBuiltinApp(app *Expr) *Expr {
	head, args := applySpine(app)
	if head.Tag != TBuiltin {
		return nil
	}
	switch head.Data.(Builtin) {
	case BNaturalEven:
		if len(args) == 1 && args[0].Tag == TNaturalLit {
			return mkBool(args[0].Data.(uint64)%2 == 0)
		}
	case BNaturalOdd:
		if len(args) == 1 && args[0].Tag == TNaturalLit {
			return mkBool(args[0].Data.(uint64)%2 == 1)
		}
	case BNaturalIsZero:
		if len(args) == 1 && args[0].Tag == TNaturalLit {
			return mkBool(args[0].Data.(uint64) == 0)
		}
	case BNaturalFold:
		// Natural/fold n T s z unfolds exactly n times.
		if len(args) == 4 && args[0].Tag == TNaturalLit {
			succ, acc := args[2], args[3]
			for i := uint64(0); i < args[0].Data.(uint64); i++ {
				acc = Normalize(mkApp(succ, acc))
			}
			return acc
		}
	case BNaturalBuild:
		if len(args) == 1 {
			succ := mkLambda("n", mkBuiltin(BNatural),
				mkOp(OpPlus, mkVar("n", 0), mkNatural(1)))
			return Normalize(Apply(args[0], mkBuiltin(BNatural), succ, mkNatural(0)))
		}
	}
	return nil
}

func normalizeOp(kind OpKind, l, r *Expr) *Expr {
	switch kind {
	case OpPlus:
		if l.Tag == TNaturalLit && r.Tag == TNaturalLit {
			return mkNatural(l.Data.(uint64) + r.Data.(uint64))
		}
	case OpTimes:
		if l.Tag == TNaturalLit && r.Tag == TNaturalLit {
			return mkNatural(l.Data.(uint64) * r.Data.(uint64))
		}
	case OpAnd:
		if l.Tag == TBoolLit && r.Tag == TBoolLit {
			return mkBool(l.Data.(bool) && r.Data.(bool))
		}
	case OpOr:
		if l.Tag == TBoolLit && r.Tag == TBoolLit {
			return mkBool(l.Data.(bool) || r.Data.(bool))
		}
	case OpEq:
		if l.Tag == TBoolLit && r.Tag == TBoolLit {
			return mkBool(l.Data.(bool) == r.Data.(bool))
		}
	case OpNe:
		if l.Tag == TBoolLit && r.Tag == TBoolLit {
			return mkBool(l.Data.(bool) != r.Data.(bool))
		}
	case OpTextAppend:
		if l.Tag == TTextLit && r.Tag == TTextLit {
			return &Expr{Tag: TTextLit, Data: l.Data.(string) + r.Data.(string)}
		}
	}
	return mkOp(kind, l, r)
}

// applySpine unwinds nested applications: `((f a) b) c` ⇒ f, [a b c].
func applySpine(e *Expr) (*Expr, []*Expr) {
	var args []*Expr
	for e.Tag == TApp {
		a := e.Data.(*App)
		args = append([]*Expr{a.Arg}, args...)
		e = a.Fn
	}
	return e, args
}

func isBuiltin(e *Expr, b Builtin) bool {
	return e.Tag == TBuiltin && e.Data.(Builtin) == b
}

func stripAnnots(e *Expr) *Expr {
	for e.Tag == TAnnot {
		e = e.Data.(*Annot).Expr
	}
	return e
}
