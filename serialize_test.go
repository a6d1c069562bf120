// serialize_test.go
package tern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Serialize_RoundTrip(t *testing.T) {
	sources := []string{
		`+5`,
		`-3`,
		`1.5`,
		`"text with \"quotes\""`,
		`True`,
		`\(x : Natural) -> x + +1`,
		`forall (a : Type) -> a -> a`,
		`let x : Natural = +1 in x`,
		`if b then +1 else +2`,
		`[+1, +2]`,
		`[] : List Natural`,
		`{ a = +1, b = { c = True } }`,
		`< a = +1 | b : Bool >`,
		`< a : Natural | b : Bool >`,
		`Some "x"`,
		`None Natural`,
		`Natural/fold +3 Natural (\(n : Natural) -> n + +1) +0`,
		`r.field`,
		`x : Bool`,
	}
	for _, src := range sources {
		e := mustParse(t, src)
		data, err := MarshalExpr(e)
		require.NoError(t, err, src)
		back, err := UnmarshalExpr(data)
		require.NoError(t, err, src)
		assert.True(t, equalExpr(e, back), "round trip changed %s into %s", src, Render(back))
	}
}

func Test_Serialize_RejectsImports(t *testing.T) {
	_, err := MarshalExpr(mustParse(t, `./x.tern`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved import")
}

func Test_Serialize_RejectsGarbage(t *testing.T) {
	_, err := UnmarshalExpr([]byte(`{`))
	require.Error(t, err)

	_, err = UnmarshalExpr([]byte(`{"t":"no-such-tag"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown expression tag")
}
