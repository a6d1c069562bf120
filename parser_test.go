// parser_test.go
package tern

import (
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func mustParse(t *testing.T, src string) *Expr {
	t.Helper()
	e, err := ParseExpr(src)
	if err != nil {
		t.Fatalf("parse error: %v\nsource:\n%s", err, src)
	}
	return e
}

func wantExprTag(t *testing.T, e *Expr, tag ExprTag) {
	t.Helper()
	if e.Tag != tag {
		t.Fatalf("want tag %d, got %d\nnode: %s", tag, e.Tag, Render(e))
	}
}

func mustFailParseContains(t *testing.T, src, substr string) {
	t.Helper()
	_, err := ParseExpr(src)
	if err == nil {
		t.Fatalf("expected parse error containing %q, got nil\nsource:\n%s", substr, src)
	}
	if substr != "" && !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error containing %q, got %v\nsource:\n%s", substr, err, src)
	}
}

// --- tests -----------------------------------------------------------------

func Test_Parser_LiteralsAndBuiltins(t *testing.T) {
	cases := []struct {
		src string
		tag ExprTag
	}{
		{`True`, TBoolLit},
		{`+42`, TNaturalLit},
		{`-3`, TIntegerLit},
		{`1.5`, TDoubleLit},
		{`"hi"`, TTextLit},
		{`Natural`, TBuiltin},
		{`Natural/fold`, TBuiltin},
		{`x`, TVar},
	}
	for _, c := range cases {
		wantExprTag(t, mustParse(t, c.src), c.tag)
	}

	if b := mustParse(t, `Natural/build`); b.Data.(Builtin) != BNaturalBuild {
		t.Fatalf("builtin lookup: %s", Render(b))
	}
	if v := mustParse(t, `foo`); v.Data.(*Var).Name != "foo" || v.Data.(*Var).Index != 0 {
		t.Fatalf("variable: %s", Render(v))
	}
}

func Test_Parser_Precedence(t *testing.T) {
	// `+1 + +2 * +3` groups as `+1 + (+2 * +3)`.
	e := mustParse(t, `+1 + +2 * +3`)
	wantExprTag(t, e, TOp)
	o := e.Data.(*Op)
	if o.Kind != OpPlus {
		t.Fatalf("want + at top, got %s", Render(e))
	}
	wantExprTag(t, o.R, TOp)
	if o.R.Data.(*Op).Kind != OpTimes {
		t.Fatalf("want * on the right, got %s", Render(o.R))
	}

	// `a || b && c` groups as `a || (b && c)`.
	e2 := mustParse(t, `a || b && c`)
	if e2.Data.(*Op).Kind != OpOr || e2.Data.(*Op).R.Data.(*Op).Kind != OpAnd {
		t.Fatalf("boolean precedence: %s", Render(e2))
	}

	// Same level is left-associative.
	e3 := mustParse(t, `+1 + +2 + +3`)
	if e3.Data.(*Op).L.Tag != TOp {
		t.Fatalf("left associativity: %s", Render(e3))
	}
}

func Test_Parser_ApplicationAndSelection(t *testing.T) {
	// Juxtaposition is left-associative and binds tighter than operators.
	e := mustParse(t, `f x y`)
	wantExprTag(t, e, TApp)
	if e.Data.(*App).Fn.Tag != TApp {
		t.Fatalf("application associativity: %s", Render(e))
	}

	e2 := mustParse(t, `r.a.b`)
	wantExprTag(t, e2, TSelect)
	if e2.Data.(*Select).Name != "b" {
		t.Fatalf("selection chain: %s", Render(e2))
	}

	// `f r.a` applies f to the selection, not the other way around.
	e3 := mustParse(t, `f r.a`)
	wantExprTag(t, e3, TApp)
	wantExprTag(t, e3.Data.(*App).Arg, TSelect)
}

func Test_Parser_BindersAndArrow(t *testing.T) {
	lam := mustParse(t, `\(x : Natural) -> x + +1`)
	wantExprTag(t, lam, TLambda)
	if lam.Data.(*Binder).Label != "x" {
		t.Fatalf("lambda label: %s", Render(lam))
	}

	pi := mustParse(t, `forall (a : Type) -> a -> a`)
	wantExprTag(t, pi, TPi)
	body := pi.Data.(*Binder).Body
	wantExprTag(t, body, TPi)
	if body.Data.(*Binder).Label != "_" {
		t.Fatalf("arrow sugar label: %s", Render(pi))
	}

	// `A -> B -> C` is right-associative.
	arr := mustParse(t, `Bool -> Natural -> Text`)
	wantExprTag(t, arr.Data.(*Binder).Body, TPi)
}

func Test_Parser_LetAndIf(t *testing.T) {
	e := mustParse(t, `let x : Natural = +1 in x + x`)
	wantExprTag(t, e, TLet)
	l := e.Data.(*Let)
	if l.Label != "x" || l.Annot == nil {
		t.Fatalf("let: %s", Render(e))
	}

	e2 := mustParse(t, `if b then +1 else +2`)
	wantExprTag(t, e2, TIf)
}

func Test_Parser_Annotation(t *testing.T) {
	e := mustParse(t, `+2 + +3 : Natural`)
	wantExprTag(t, e, TAnnot)
	wantExprTag(t, e.Data.(*Annot).Expr, TOp)
}

func Test_Parser_Lists(t *testing.T) {
	e := mustParse(t, `[+1, +2]`)
	wantExprTag(t, e, TList)
	if n := len(e.Data.(*List).Elems); n != 2 {
		t.Fatalf("want 2 elements, got %d", n)
	}

	// `[] : List T` folds the element type into the literal.
	empty := mustParse(t, `[] : List Natural`)
	wantExprTag(t, empty, TList)
	l := empty.Data.(*List)
	if l.Type == nil || !isBuiltin(l.Type, BNatural) {
		t.Fatalf("annotated empty list: %s", Render(empty))
	}

	// A non-List annotation on a list stays an ordinary annotation.
	ann := mustParse(t, `[+1] : x`)
	wantExprTag(t, ann, TAnnot)
}

func Test_Parser_Records(t *testing.T) {
	lit := mustParse(t, `{ a = +1, b = True }`)
	wantExprTag(t, lit, TRecordLit)

	typ := mustParse(t, `{ a : Natural, b : Bool }`)
	wantExprTag(t, typ, TRecordType)

	wantExprTag(t, mustParse(t, `{=}`), TRecordLit)
	wantExprTag(t, mustParse(t, `{}`), TRecordType)

	mustFailParseContains(t, `{ a = +1, a = +2 }`, `duplicate record field "a"`)
	mustFailParseContains(t, `{ a = +1, b : Bool }`, `expected "="`)
}

func Test_Parser_Unions(t *testing.T) {
	typ := mustParse(t, `< left : Natural | right : Bool >`)
	wantExprTag(t, typ, TUnionType)
	if n := len(typ.Data.(*Union).Alternatives); n != 2 {
		t.Fatalf("alternatives: %s", Render(typ))
	}

	lit := mustParse(t, `< left = +1 | right : Bool >`)
	wantExprTag(t, lit, TUnionLit)
	u := lit.Data.(*UnionLit)
	if u.Tag != "left" || len(u.Alternatives) != 1 {
		t.Fatalf("union literal: %s", Render(lit))
	}

	mustFailParseContains(t, `< a : Bool | a : Bool >`, `duplicate union alternative "a"`)
	mustFailParseContains(t, `< a = +1 | b = +2 >`, "exactly one alternative")
}

func Test_Parser_Imports(t *testing.T) {
	e := mustParse(t, `./config.tern`)
	wantExprTag(t, e, TImport)
	imp := e.Data.(*Import)
	if imp.Kind != TargetLocal || imp.Raw != "./config.tern" {
		t.Fatalf("local import: %+v", imp)
	}

	u := mustParse(t, `https://example.com/pkg.tern`).Data.(*Import)
	if u.Kind != TargetRemote {
		t.Fatalf("remote import: %+v", u)
	}

	ev := mustParse(t, `env:TERN_CONF`).Data.(*Import)
	if ev.Kind != TargetEnv || ev.Raw != "TERN_CONF" {
		t.Fatalf("env import: %+v", ev)
	}

	// `./x : T` attaches the expected-type hint to the import node.
	h := mustParse(t, `./x : Bool`).Data.(*Import)
	if h.Hint == nil || !isBuiltin(h.Hint, BBool) {
		t.Fatalf("import hint: %+v", h)
	}

	// Imports are ordinary subexpressions.
	op := mustParse(t, `./a && ./b`)
	wantExprTag(t, op, TOp)
	wantExprTag(t, op.Data.(*Op).L, TImport)
}

func Test_Parser_Errors(t *testing.T) {
	mustFailParseContains(t, `a , b`, "after expression")
	mustFailParseContains(t, `let x = in x`, "expected an expression")
	mustFailParseContains(t, `(a`, `expected ")"`)
	mustFailParseContains(t, `if a then b`, `expected "else", found end of input`)
}
