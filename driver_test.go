// driver_test.go
package tern

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Engine_RunSource(t *testing.T) {
	engine := New()

	out, err := engine.RunSource(context.Background(), "<test>", `+2 + +3`, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, `+5`, Render(out))

	out, err = engine.RunSource(context.Background(), "<test>",
		`let double = \(n : Natural) -> n * +2 in double +21`, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, `+42`, Render(out))
}

func Test_Engine_RunRejectsIllTyped(t *testing.T) {
	engine := New()
	_, err := engine.RunSource(context.Background(), "<test>", `+1 && True`, t.TempDir())
	require.Error(t, err)
	var te *TypeMismatchError
	require.ErrorAs(t, err, &te)
}

func Test_Engine_RunSourceParseErrorHasSnippet(t *testing.T) {
	engine := New()
	_, err := engine.RunSource(context.Background(), "config.tern", "let x =\n  in x", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARSE ERROR")
	assert.Contains(t, err.Error(), "config.tern")
}

func Test_Engine_RunWithImports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "port.tern"), []byte(`+8080`), 0o644))

	engine := New()
	out, err := engine.RunSource(context.Background(), "<test>",
		`{ port = ./port.tern, debug = False }`, dir)
	require.NoError(t, err)
	assert.Equal(t, `{ port = +8080, debug = False }`, Render(out))
}

func Test_Engine_SharedCachePersistsAcrossRuns(t *testing.T) {
	// The engine's shared cache means a second Run of the same import does not
	// re-read the file; deleting it between runs proves the point.
	dir := t.TempDir()
	target := filepath.Join(dir, "v.tern")
	require.NoError(t, os.WriteFile(target, []byte(`+1`), 0o644))

	engine := New()
	_, err := engine.RunSource(context.Background(), "<test>", `./v.tern`, dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(target))
	out, err := engine.RunSource(context.Background(), "<test>", `./v.tern`, dir)
	require.NoError(t, err)
	assert.Equal(t, `+1`, Render(out))
}

func Test_Engine_TypeOf(t *testing.T) {
	engine := New()

	parsed, err := ParseExpr(`\(x : Natural) -> x + +1`)
	require.NoError(t, err)
	typ, err := engine.TypeOf(context.Background(), parsed, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, `forall (x : Natural) -> Natural`, Render(typ))
}

func Test_Run_OneShot(t *testing.T) {
	out, err := RunSource(context.Background(), "<test>", `if Natural/even +4 then "yes" else "no"`, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, `"yes"`, Render(out))
}

func Test_Engine_DiskCacheRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	cacheDir := t.TempDir()
	target := filepath.Join(srcDir, "n.tern")
	require.NoError(t, os.WriteFile(target, []byte(`+40 + +2`), 0o644))

	first := New(WithEngineDiskCache(NewDiskCache(cacheDir)))
	out, err := first.RunSource(context.Background(), "<test>", `./n.tern`, srcDir)
	require.NoError(t, err)
	assert.Equal(t, `+42`, Render(out))

	// A fresh engine with the same disk cache gets the stored normal form.
	second := New(WithEngineDiskCache(NewDiskCache(cacheDir)))
	out, err = second.RunSource(context.Background(), "<test>", `./n.tern`, srcDir)
	require.NoError(t, err)
	assert.Equal(t, `+42`, Render(out))
}
