// printer_test.go
package tern

import "testing"

func Test_Render_RoundTrips(t *testing.T) {
	// ParseExpr(Render(e)) must reproduce e exactly.
	sources := []string{
		`+5`,
		`-3`,
		`"hi\n"`,
		`True && False || True`,
		`+1 + +2 * +3`,
		`\(x : Natural) -> x + +1`,
		`forall (a : Type) -> a -> a`,
		`Bool -> Natural -> Text`,
		`let x : Natural = +1 in x`,
		`if b then +1 else +2`,
		`f x y`,
		`f (g x)`,
		`r.a.b`,
		`[+1, +2]`,
		`[] : List Natural`,
		`{ a = +1, b = True }`,
		`{ a : Natural }`,
		`{=}`,
		`{}`,
		`< a : Natural | b : Bool >`,
		`< a = +1 | b : Bool >`,
		`Some +1`,
		`None Natural`,
		`Natural/fold +3 Natural (\(n : Natural) -> n + +1) +0`,
		`./config.tern`,
		`./config.tern : Bool`,
		`env:HOME`,
		`(+1 + +2) * +3`,
		`\(f : Bool -> Bool) -> f True`,
	}
	for _, src := range sources {
		e := mustParse(t, src)
		rendered := Render(e)
		back, err := ParseExpr(rendered)
		if err != nil {
			t.Fatalf("rendered text does not parse: %q from %q: %v", rendered, src, err)
		}
		if !equalExpr(e, back) {
			t.Fatalf("round trip changed the tree:\nsource   %s\nrendered %s", src, rendered)
		}
	}
}

func Test_Render_Precedence(t *testing.T) {
	cases := []struct{ src, want string }{
		{`(+1 + +2) * +3`, `(+1 + +2) * +3`},
		{`+1 + +2 * +3`, `+1 + +2 * +3`},
		{`f (g x)`, `f (g x)`},
		{`(f g) x`, `f g x`}, // redundant parens dropped
		{`(Bool -> Bool) -> Bool`, `(Bool -> Bool) -> Bool`},
		{`\(x : Bool) -> x && False`, `\(x : Bool) -> x && False`},
		{`(\(x : Bool) -> x) True`, `(\(x : Bool) -> x) True`},
	}
	for _, c := range cases {
		got := Render(mustParse(t, c.src))
		if got != c.want {
			t.Fatalf("render %s:\nwant %s\ngot  %s", c.src, c.want, got)
		}
	}
}

func Test_Render_VariableIndices(t *testing.T) {
	// Non-zero de Bruijn indices render with @ so shadowing stays expressible.
	e := mkLambda("x", mkBuiltin(BBool), mkLambda("x", mkBuiltin(BBool), mkVar("x", 1)))
	if got := Render(e); got != `\(x : Bool) -> \(x : Bool) -> x@1` {
		t.Fatalf("got %s", got)
	}
}
