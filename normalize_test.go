// normalize_test.go
package tern

import "testing"

// --- helpers ---------------------------------------------------------------

func norm(t *testing.T, src string) *Expr {
	t.Helper()
	return Normalize(mustParse(t, src))
}

func wantNorm(t *testing.T, src, want string) {
	t.Helper()
	got := Render(norm(t, src))
	if got != want {
		t.Fatalf("normalize %s:\nwant %s\ngot  %s", src, want, got)
	}
}

// --- tests -----------------------------------------------------------------

func Test_Normalize_Arithmetic(t *testing.T) {
	wantNorm(t, `+2 + +3`, `+5`)
	wantNorm(t, `+2 * +3 + +1`, `+7`)
	wantNorm(t, `"foo" ++ "bar"`, `"foobar"`)
	wantNorm(t, `True && False`, `False`)
	wantNorm(t, `True || False`, `True`)
	wantNorm(t, `True == False`, `False`)
	wantNorm(t, `True != False`, `True`)
}

func Test_Normalize_OperatorsNeedBothLiterals(t *testing.T) {
	// A symbolic operand keeps the node symbolic, even when one literal side
	// would classically decide the result.
	wantNorm(t, `\(x : Bool) -> x && False`, `\(x : Bool) -> x && False`)
	wantNorm(t, `\(x : Bool) -> x || True`, `\(x : Bool) -> x || True`)
	wantNorm(t, `\(n : Natural) -> n * +0`, `\(n : Natural) -> n * +0`)
}

func Test_Normalize_BetaAndLet(t *testing.T) {
	wantNorm(t, `(\(x : Natural) -> x + x) +3`, `+6`)
	wantNorm(t, `let x = +1 in x + x`, `+2`)
	wantNorm(t, `let f = \(n : Natural) -> n + +1 in f (f +0)`, `+2`)
}

func Test_Normalize_UnderBinders(t *testing.T) {
	// Reduction happens inside lambda bodies with the variable left free.
	wantNorm(t, `\(n : Bool) -> +10 * +10`, `\(n : Bool) -> +100`)
	wantNorm(t, `forall (a : Type) -> (\(x : Type) -> x) a`, `forall (a : Type) -> a`)
}

func Test_Normalize_IfAndSelect(t *testing.T) {
	wantNorm(t, `if True then +1 else +2`, `+1`)
	wantNorm(t, `if False then +1 else +2`, `+2`)
	wantNorm(t, `\(b : Bool) -> if b then +1 else +2`, `\(b : Bool) -> if b then +1 else +2`)
	wantNorm(t, `{ a = +1 + +1, b = True }.a`, `+2`)
}

func Test_Normalize_AnnotationsErased(t *testing.T) {
	wantNorm(t, `+2 + +3 : Natural`, `+5`)
	wantNorm(t, `(True : Bool) && True`, `True`)
}

func Test_Normalize_NaturalBuiltins(t *testing.T) {
	wantNorm(t, `Natural/even +4`, `True`)
	wantNorm(t, `Natural/odd +4`, `False`)
	wantNorm(t, `Natural/isZero +0`, `True`)
	wantNorm(t, `Natural/isZero +3`, `False`)

	// Partial application stays symbolic.
	wantNorm(t, `Natural/even`, `Natural/even`)
	wantNorm(t, `\(n : Natural) -> Natural/even n`, `\(n : Natural) -> Natural/even n`)
}

func Test_Normalize_FoldUnrollsLiteral(t *testing.T) {
	// Natural/fold n T s z applies s exactly n times.
	wantNorm(t, `Natural/fold +3 Natural (\(n : Natural) -> n + +2) +0`, `+6`)
	wantNorm(t, `Natural/fold +0 Natural (\(n : Natural) -> n + +2) +9`, `+9`)

	// A symbolic count leaves the fold in place.
	wantNorm(t,
		`\(n : Natural) -> Natural/fold n Natural (\(m : Natural) -> m) +0`,
		`\(n : Natural) -> Natural/fold n Natural (\(m : Natural) -> m) +0`)
}

func Test_Normalize_BuildUnfolds(t *testing.T) {
	// Natural/build g ⇒ g Natural (λ(n) → n + +1) +0
	wantNorm(t,
		`Natural/build (\(a : Type) -> \(s : a -> a) -> \(z : a) -> s (s z))`,
		`+2`)
}

func Test_Normalize_FoldBuildFusion(t *testing.T) {
	// Natural/fold (Natural/build g) ⇒ g, without materializing a natural.
	g := `\(a : Type) -> \(s : a -> a) -> \(z : a) -> s z`
	wantNorm(t,
		`Natural/fold (Natural/build (`+g+`)) Natural (\(n : Natural) -> n + +5) +0`,
		`+5`)

	// Natural/build (Natural/fold x) ⇒ x, even for a free variable.
	wantNorm(t, `\(x : Natural) -> Natural/build (Natural/fold x)`, `\(x : Natural) -> x`)
}

func Test_Normalize_FusionBeatsUnfold(t *testing.T) {
	// Without the fusion rewrite firing first, the build argument would
	// unfold to a literal and fold would then unroll it; the result agrees
	// either way, which is exactly what confluence demands.
	direct := norm(t, `Natural/fold (Natural/build (\(a : Type) -> \(s : a -> a) -> \(z : a) -> s (s (s z)))) Bool (\(b : Bool) -> b == False) True`)
	unfused := norm(t, `Natural/fold +3 Bool (\(b : Bool) -> b == False) True`)
	wantEqual(t, direct, unfused)
}

func Test_Normalize_Idempotent(t *testing.T) {
	sources := []string{
		`+2 + +3`,
		`\(x : Bool) -> x && False`,
		`let f = \(n : Natural) -> n + +1 in f +41`,
		`Natural/fold +4 Natural (\(n : Natural) -> n * +2) +1`,
		`Natural/build (\(a : Type) -> \(s : a -> a) -> \(z : a) -> z)`,
		`{ a = +1 + +1, b = [True, False] }`,
		`< left = +1 + +2 | right : Bool >`,
		`if True then \(x : Bool) -> x else \(y : Bool) -> y`,
		`forall (a : Type) -> a -> a`,
		`Some (+1 + +1)`,
		`None Natural`,
	}
	for _, src := range sources {
		once := norm(t, src)
		twice := Normalize(once)
		if !equalExpr(once, twice) {
			t.Fatalf("Normalize not idempotent on %s:\nonce  %s\ntwice %s", src, Render(once), Render(twice))
		}
	}
}

func Test_Normalize_ListsRecordsUnions(t *testing.T) {
	wantNorm(t, `[+1 + +1, +2 + +2]`, `[+2, +4]`)
	wantNorm(t, `Some (+2 * +2)`, `Some +4`)
	wantNorm(t, `{ a = { b = +1 + +1 } }.a.b`, `+2`)
}
