// decode_test.go
package tern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Decode_Scalars(t *testing.T) {
	b, err := DecodeBool(norm(t, `True && True`))
	require.NoError(t, err)
	assert.True(t, b)

	n, err := DecodeNatural(norm(t, `+40 + +2`))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)

	i, err := DecodeInteger(norm(t, `-3`))
	require.NoError(t, err)
	assert.Equal(t, int64(-3), i)

	s, err := DecodeText(norm(t, `"a" ++ "b"`))
	require.NoError(t, err)
	assert.Equal(t, "ab", s)

	_, err = DecodeBool(norm(t, `+1`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot decode")
}

func Test_Decode_Combinators(t *testing.T) {
	ns, err := ListOf(DecodeNatural)(norm(t, `[+1, +1 + +1, +3]`))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ns)

	some, err := OptionalOf(DecodeText)(norm(t, `Some "x"`))
	require.NoError(t, err)
	require.NotNil(t, some)
	assert.Equal(t, "x", *some)

	none, err := OptionalOf(DecodeText)(norm(t, `None Text`))
	require.NoError(t, err)
	assert.Nil(t, none)

	port, err := Field("port", DecodeNatural)(norm(t, `{ port = +8080, debug = False }`))
	require.NoError(t, err)
	assert.Equal(t, uint64(8080), port)

	_, err = Field("host", DecodeText)(norm(t, `{ port = +8080 }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no field "host"`)

	// Errors point into the structure.
	_, err = ListOf(DecodeBool)(norm(t, `[True, +1]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list element 1")
}

func Test_Decode_Nested(t *testing.T) {
	hosts, err := Field("hosts", ListOf(DecodeText))(norm(t, `{ hosts = ["a", "b"], n = +1 }`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, hosts)
}

func Test_ToInterface(t *testing.T) {
	v, err := ToInterface(norm(t, `{ name = "svc", port = +8080, tags = ["a"], retry = Some +3, fallback = None Natural }`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":     "svc",
		"port":     uint64(8080),
		"tags":     []any{"a"},
		"retry":    uint64(3),
		"fallback": nil,
	}, v)

	u, err := ToInterface(norm(t, `< ok = +1 | err : Text >`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": uint64(1)}, u)

	_, err = ToInterface(norm(t, `\(x : Bool) -> x`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a data value")
}
