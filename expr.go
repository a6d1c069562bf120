// expr.go — the Tern expression model.
//
// OVERVIEW
// --------
// Everything in Tern is an expression, and every phase of the pipeline
// (parsing → import resolution → type checking → normalization → decoding)
// speaks the same tagged tree defined here.
//
// An `Expr` is a tagged sum:
//
//	type Expr struct {
//	  Tag  ExprTag // which variant
//	  Data any     // variant payload (see the payload structs below)
//	  Span Span    // 1-based source position, zero when synthesized
//	}
//
// Variables are *named de Bruijn* references: `Var{Name:"x", Index:2}` points
// at the third enclosing binder named "x". Binders never need renaming during
// substitution; `Shift`/`Subst` (subst.go) adjust indices instead, so capture
// is impossible by construction.
//
// Equality in Tern always means **alpha-equivalence of normal forms**:
//
//	Equivalent(a, b) = equalExpr(AlphaNormalize(Normalize(a)),
//	                             AlphaNormalize(Normalize(b)))
//
// This is the only equality the type checker uses. `AlphaNormalize` renames
// every bound variable to "_" (rewriting references accordingly), after which
// plain structural comparison decides alpha-equivalence.
//
// Invariants maintained across the pipeline:
//   - record field names and union alternative tags are unique (the type
//     checker rejects duplicates; the parser rejects them syntactically too);
//   - a TImport node never survives import resolution — the type checker and
//     the normalizer may assume import-free input (`FirstImport` lets callers
//     assert this);
//   - all Expr trees are treated as immutable: rewriting functions build new
//     nodes and never mutate their input.
package tern

// Span is a 1-based source position attached by the parser. A zero Span means
// the node was synthesized (by normalization, splicing, or a test).
type Span struct {
	Line int
	Col  int
}

// ExprTag discriminates the Expr variants.
type ExprTag int

const (
	TVar        ExprTag = iota // *Var
	TLambda                    // *Binder
	TPi                        // *Binder
	TApp                       // *App
	TLet                       // *Let
	TAnnot                     // *Annot
	TBoolLit                   // bool
	TNaturalLit                // uint64
	TIntegerLit                // int64
	TDoubleLit                 // float64
	TTextLit                   // string
	TIf                        // *If
	TOp                        // *Op
	TList                      // *List
	TSome                      // *Some
	TNone                      // *None
	TRecordType                // *Record (field values are types)
	TRecordLit                 // *Record (field values are terms)
	TSelect                    // *Select
	TUnionType                 // *Union
	TUnionLit                  // *UnionLit
	TBuiltin                   // Builtin
	TImport                    // *Import (erased by resolution)
)

// Expr is the universal expression node. See the file header for the model.
type Expr struct {
	Tag  ExprTag
	Data any
	Span Span
}

// Var references the Index-th enclosing binder named Name (0 = innermost).
type Var struct {
	Name  string
	Index int
}

// Binder is the shared payload of TLambda and TPi: `λ(x : A) → b` and
// `∀(x : A) → B`.
type Binder struct {
	Label string
	Type  *Expr
	Body  *Expr
}

type App struct {
	Fn  *Expr
	Arg *Expr
}

// Let is `let x : A = v in b`. Annot is nil when the binding carries no
// annotation.
type Let struct {
	Label string
	Annot *Expr
	Value *Expr
	Body  *Expr
}

// Annot is `e : T`.
type Annot struct {
	Expr *Expr
	Type *Expr
}

type If struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

// OpKind enumerates the closed operator set.
type OpKind int

const (
	OpOr         OpKind = iota // ||   Bool → Bool → Bool
	OpAnd                      // &&   Bool → Bool → Bool
	OpEq                       // ==   Bool → Bool → Bool
	OpNe                       // !=   Bool → Bool → Bool
	OpPlus                     // +    Natural → Natural → Natural
	OpTimes                    // *    Natural → Natural → Natural
	OpTextAppend               // ++   Text → Text → Text
)

type Op struct {
	Kind OpKind
	L    *Expr
	R    *Expr
}

// List is a list literal. Type is the element type when the source carried a
// `: List T` annotation (mandatory for empty literals), nil otherwise.
type List struct {
	Type  *Expr
	Elems []*Expr
}

// Some is `Some e`; None is `None T`.
type Some struct {
	Value *Expr
}

type None struct {
	Type *Expr
}

// FieldEntry is one `name : T` or `name = v` entry. Order is preserved for
// printing and decoding; equality ignores it.
type FieldEntry struct {
	Name  string
	Value *Expr
}

// Record backs both TRecordType and TRecordLit.
type Record struct {
	Fields []FieldEntry
}

// Lookup returns the entry value for name, or nil.
func (r *Record) Lookup(name string) *Expr {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

type Select struct {
	Record *Expr
	Name   string
}

// Union is a union type `< a : A | b : B >`.
type Union struct {
	Alternatives []FieldEntry
}

// Lookup returns the alternative type for tag, or nil.
func (u *Union) Lookup(tag string) *Expr {
	for _, a := range u.Alternatives {
		if a.Name == tag {
			return a.Value
		}
	}
	return nil
}

// UnionLit is `< k = v | a : A | ... >`: one selected tag with its payload,
// plus the types of the remaining alternatives.
type UnionLit struct {
	Tag          string
	Value        *Expr
	Alternatives []FieldEntry
}

// Builtin is the closed enumeration of builtin constants and functions.
type Builtin int

const (
	BBool Builtin = iota
	BNatural
	BInteger
	BDouble
	BText
	BList
	BOptional
	BType
	BKind
	BNaturalEven
	BNaturalOdd
	BNaturalIsZero
	BNaturalFold
	BNaturalBuild
)

var builtinNames = map[Builtin]string{
	BBool:          "Bool",
	BNatural:       "Natural",
	BInteger:       "Integer",
	BDouble:        "Double",
	BText:          "Text",
	BList:          "List",
	BOptional:      "Optional",
	BType:          "Type",
	BKind:          "Kind",
	BNaturalEven:   "Natural/even",
	BNaturalOdd:    "Natural/odd",
	BNaturalIsZero: "Natural/isZero",
	BNaturalFold:   "Natural/fold",
	BNaturalBuild:  "Natural/build",
}

var builtinByName = func() map[string]Builtin {
	m := make(map[string]Builtin, len(builtinNames))
	for b, n := range builtinNames {
		m[n] = b
	}
	return m
}()

func (b Builtin) String() string { return builtinNames[b] }

// BuiltinNamed resolves a surface identifier to a builtin.
func BuiltinNamed(name string) (Builtin, bool) {
	b, ok := builtinByName[name]
	return b, ok
}

// TargetKind discriminates import target forms.
type TargetKind int

const (
	TargetLocal  TargetKind = iota // relative or absolute filesystem path
	TargetRemote                   // URL (http/https; any scheme the fetcher knows)
	TargetEnv                      // environment variable reference
)

// Import is an unresolved import reference as written in the source. Raw is
// the literal target text; Hint, when non-nil, is the expected type attached
// with `./x : T` and verified by the resolver after resolution.
type Import struct {
	Kind TargetKind
	Raw  string
	Hint *Expr
}

/* ===========================
   Constructors
   =========================== */

// The mk* helpers keep the rewriting code (subst.go, normalize.go) terse.

func mkVar(name string, index int) *Expr  { return &Expr{Tag: TVar, Data: &Var{Name: name, Index: index}} }
func mkLambda(l string, t, b *Expr) *Expr { return &Expr{Tag: TLambda, Data: &Binder{l, t, b}} }
func mkPi(l string, t, b *Expr) *Expr     { return &Expr{Tag: TPi, Data: &Binder{l, t, b}} }
func mkApp(fn, arg *Expr) *Expr           { return &Expr{Tag: TApp, Data: &App{fn, arg}} }
func mkBuiltin(b Builtin) *Expr           { return &Expr{Tag: TBuiltin, Data: b} }
func mkBool(v bool) *Expr                 { return &Expr{Tag: TBoolLit, Data: v} }
func mkNatural(v uint64) *Expr            { return &Expr{Tag: TNaturalLit, Data: v} }
func mkOp(k OpKind, l, r *Expr) *Expr     { return &Expr{Tag: TOp, Data: &Op{k, l, r}} }

// Apply left-associates fn over args: Apply(f, a, b) = (f a) b.
func Apply(fn *Expr, args ...*Expr) *Expr {
	for _, a := range args {
		fn = mkApp(fn, a)
	}
	return fn
}

/* ===========================
   Structural equality & alpha-equivalence
   =========================== */

// AlphaNormalize renames every bound variable to "_", rewriting references so
// the result is alpha-equivalent to the input. Two expressions are
// alpha-equivalent iff their alpha-normal forms are structurally equal.
func AlphaNormalize(e *Expr) *Expr {
	switch e.Tag {
	case TVar, TBoolLit, TNaturalLit, TIntegerLit, TDoubleLit, TTextLit, TBuiltin, TImport:
		return e
	case TLambda, TPi:
		b := e.Data.(*Binder)
		body := alphaRebind(b.Label, b.Body)
		n := &Expr{Tag: e.Tag, Data: &Binder{Label: "_", Type: AlphaNormalize(b.Type), Body: AlphaNormalize(body)}}
		return n
	case TLet:
		l := e.Data.(*Let)
		body := alphaRebind(l.Label, l.Body)
		var ann *Expr
		if l.Annot != nil {
			ann = AlphaNormalize(l.Annot)
		}
		return &Expr{Tag: TLet, Data: &Let{Label: "_", Annot: ann, Value: AlphaNormalize(l.Value), Body: AlphaNormalize(body)}}
	case TApp:
		a := e.Data.(*App)
		return mkApp(AlphaNormalize(a.Fn), AlphaNormalize(a.Arg))
	case TAnnot:
		a := e.Data.(*Annot)
		return &Expr{Tag: TAnnot, Data: &Annot{Expr: AlphaNormalize(a.Expr), Type: AlphaNormalize(a.Type)}}
	case TIf:
		i := e.Data.(*If)
		return &Expr{Tag: TIf, Data: &If{Cond: AlphaNormalize(i.Cond), Then: AlphaNormalize(i.Then), Else: AlphaNormalize(i.Else)}}
	case TOp:
		o := e.Data.(*Op)
		return mkOp(o.Kind, AlphaNormalize(o.L), AlphaNormalize(o.R))
	case TList:
		l := e.Data.(*List)
		n := &List{}
		if l.Type != nil {
			n.Type = AlphaNormalize(l.Type)
		}
		for _, el := range l.Elems {
			n.Elems = append(n.Elems, AlphaNormalize(el))
		}
		return &Expr{Tag: TList, Data: n}
	case TSome:
		return &Expr{Tag: TSome, Data: &Some{Value: AlphaNormalize(e.Data.(*Some).Value)}}
	case TNone:
		return &Expr{Tag: TNone, Data: &None{Type: AlphaNormalize(e.Data.(*None).Type)}}
	case TRecordType, TRecordLit:
		r := e.Data.(*Record)
		n := &Record{}
		for _, f := range r.Fields {
			n.Fields = append(n.Fields, FieldEntry{Name: f.Name, Value: AlphaNormalize(f.Value)})
		}
		return &Expr{Tag: e.Tag, Data: n}
	case TSelect:
		s := e.Data.(*Select)
		return &Expr{Tag: TSelect, Data: &Select{Record: AlphaNormalize(s.Record), Name: s.Name}}
	case TUnionType:
		u := e.Data.(*Union)
		n := &Union{}
		for _, a := range u.Alternatives {
			n.Alternatives = append(n.Alternatives, FieldEntry{Name: a.Name, Value: AlphaNormalize(a.Value)})
		}
		return &Expr{Tag: TUnionType, Data: n}
	case TUnionLit:
		u := e.Data.(*UnionLit)
		n := &UnionLit{Tag: u.Tag, Value: AlphaNormalize(u.Value)}
		for _, a := range u.Alternatives {
			n.Alternatives = append(n.Alternatives, FieldEntry{Name: a.Name, Value: AlphaNormalize(a.Value)})
		}
		return &Expr{Tag: TUnionLit, Data: n}
	}
	return e
}

// alphaRebind rewrites references to the innermost binder named label so the
// binder can be renamed to "_" without changing meaning.
func alphaRebind(label string, body *Expr) *Expr {
	if label == "_" {
		return body
	}
	b := Shift(1, "_", 0, body)
	b = Subst(label, 0, mkVar("_", 0), b)
	return Shift(-1, label, 0, b)
}

// equalExpr is plain structural equality (field order of records/unions is
// normalized by sorting in the comparison, not in the tree).
func equalExpr(a, b *Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TVar:
		x, y := a.Data.(*Var), b.Data.(*Var)
		return x.Name == y.Name && x.Index == y.Index
	case TLambda, TPi:
		x, y := a.Data.(*Binder), b.Data.(*Binder)
		return x.Label == y.Label && equalExpr(x.Type, y.Type) && equalExpr(x.Body, y.Body)
	case TApp:
		x, y := a.Data.(*App), b.Data.(*App)
		return equalExpr(x.Fn, y.Fn) && equalExpr(x.Arg, y.Arg)
	case TLet:
		x, y := a.Data.(*Let), b.Data.(*Let)
		return x.Label == y.Label && equalExpr(x.Annot, y.Annot) &&
			equalExpr(x.Value, y.Value) && equalExpr(x.Body, y.Body)
	case TAnnot:
		x, y := a.Data.(*Annot), b.Data.(*Annot)
		return equalExpr(x.Expr, y.Expr) && equalExpr(x.Type, y.Type)
	case TBoolLit:
		return a.Data.(bool) == b.Data.(bool)
	case TNaturalLit:
		return a.Data.(uint64) == b.Data.(uint64)
	case TIntegerLit:
		return a.Data.(int64) == b.Data.(int64)
	case TDoubleLit:
		return a.Data.(float64) == b.Data.(float64)
	case TTextLit:
		return a.Data.(string) == b.Data.(string)
	case TIf:
		x, y := a.Data.(*If), b.Data.(*If)
		return equalExpr(x.Cond, y.Cond) && equalExpr(x.Then, y.Then) && equalExpr(x.Else, y.Else)
	case TOp:
		x, y := a.Data.(*Op), b.Data.(*Op)
		return x.Kind == y.Kind && equalExpr(x.L, y.L) && equalExpr(x.R, y.R)
	case TList:
		x, y := a.Data.(*List), b.Data.(*List)
		if !equalExpr(x.Type, y.Type) || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !equalExpr(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case TSome:
		return equalExpr(a.Data.(*Some).Value, b.Data.(*Some).Value)
	case TNone:
		return equalExpr(a.Data.(*None).Type, b.Data.(*None).Type)
	case TRecordType, TRecordLit:
		return equalFields(a.Data.(*Record).Fields, b.Data.(*Record).Fields)
	case TSelect:
		x, y := a.Data.(*Select), b.Data.(*Select)
		return x.Name == y.Name && equalExpr(x.Record, y.Record)
	case TUnionType:
		return equalFields(a.Data.(*Union).Alternatives, b.Data.(*Union).Alternatives)
	case TUnionLit:
		x, y := a.Data.(*UnionLit), b.Data.(*UnionLit)
		return x.Tag == y.Tag && equalExpr(x.Value, y.Value) &&
			equalFields(x.Alternatives, y.Alternatives)
	case TBuiltin:
		return a.Data.(Builtin) == b.Data.(Builtin)
	case TImport:
		x, y := a.Data.(*Import), b.Data.(*Import)
		return x.Kind == y.Kind && x.Raw == y.Raw && equalExpr(x.Hint, y.Hint)
	}
	return false
}

// equalFields compares two field sets ignoring order. Names are unique, so a
// name-indexed lookup is enough.
func equalFields(a, b []FieldEntry) bool {
	if len(a) != len(b) {
		return false
	}
	index := make(map[string]*Expr, len(b))
	for _, f := range b {
		index[f.Name] = f.Value
	}
	for _, f := range a {
		v, ok := index[f.Name]
		if !ok || !equalExpr(f.Value, v) {
			return false
		}
	}
	return true
}

// Equivalent reports alpha-equivalence of normal forms — the single notion of
// expression equality used by the type checker.
func Equivalent(a, b *Expr) bool {
	return equalExpr(AlphaNormalize(Normalize(a)), AlphaNormalize(Normalize(b)))
}

// FirstImport returns the first (pre-order) import reference in e, or nil.
// The type checker and normalizer require import-free input; this is how
// callers check the invariant.
func FirstImport(e *Expr) *Expr {
	var found *Expr
	walk(e, func(n *Expr) bool {
		if found == nil && n.Tag == TImport {
			found = n
		}
		return found == nil
	})
	return found
}

// walk visits e and, while fn keeps returning true, its children in pre-order.
func walk(e *Expr, fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch e.Tag {
	case TLambda, TPi:
		b := e.Data.(*Binder)
		walk(b.Type, fn)
		walk(b.Body, fn)
	case TApp:
		a := e.Data.(*App)
		walk(a.Fn, fn)
		walk(a.Arg, fn)
	case TLet:
		l := e.Data.(*Let)
		if l.Annot != nil {
			walk(l.Annot, fn)
		}
		walk(l.Value, fn)
		walk(l.Body, fn)
	case TAnnot:
		a := e.Data.(*Annot)
		walk(a.Expr, fn)
		walk(a.Type, fn)
	case TIf:
		i := e.Data.(*If)
		walk(i.Cond, fn)
		walk(i.Then, fn)
		walk(i.Else, fn)
	case TOp:
		o := e.Data.(*Op)
		walk(o.L, fn)
		walk(o.R, fn)
	case TList:
		l := e.Data.(*List)
		if l.Type != nil {
			walk(l.Type, fn)
		}
		for _, el := range l.Elems {
			walk(el, fn)
		}
	case TSome:
		walk(e.Data.(*Some).Value, fn)
	case TNone:
		walk(e.Data.(*None).Type, fn)
	case TRecordType, TRecordLit:
		for _, f := range e.Data.(*Record).Fields {
			walk(f.Value, fn)
		}
	case TSelect:
		walk(e.Data.(*Select).Record, fn)
	case TUnionType:
		for _, a := range e.Data.(*Union).Alternatives {
			walk(a.Value, fn)
		}
	case TUnionLit:
		u := e.Data.(*UnionLit)
		walk(u.Value, fn)
		for _, a := range u.Alternatives {
			walk(a.Value, fn)
		}
	case TImport:
		imp := e.Data.(*Import)
		if imp.Hint != nil {
			walk(imp.Hint, fn)
		}
	}
}
