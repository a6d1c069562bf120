// imports.go — the import resolution subsystem.
//
// OVERVIEW
// --------
// Resolution eliminates every TImport node from an expression, replacing each
// with the fully resolved, type-checked, *normalized* expression it denotes.
// The walk is depth-first over import positions in pre-order, which makes the
// overall resolution order post-order with respect to the dependency graph:
// every dependency is finished before its dependents see it.
//
// What resolving one reference does, precisely:
//  1. Canonicalization. The written target is resolved against the importing
//     file's base (directory or URL) and normalized into a canonical key:
//     • local paths → cleaned absolute path;
//     • URLs → lowercased scheme and host, cleaned path, no trailing slash;
//     • env:NAME → "env:NAME".
//     A relative path imported from a URL-hosted file resolves against that
//     URL; absolute paths and env references are refused there (a remote file
//     must not read the local machine).
//  2. Cycle check. The canonical key is looked up in the active chain; a hit
//     fails with the full chain, e.g. [file1, file2, file1].
//  3. At-most-once. The per-call memo is consulted, then the optional
//     process-wide SharedCache, then the optional content-hashed DiskCache;
//     only then is the target fetched (viant/afs — file and http through one
//     service), parsed, recursively resolved with the base rebased to the
//     target, type-checked, and normalized. Only successes are cached.
//  4. Hint check. A `./x : T` expected-type hint is verified against the
//     resolved import with normal-form equality.
//
// State is threaded through an explicit ResolutionContext — active chain,
// memo, current base, fetcher — never through package-level mutable state,
// so Resolve stays a pure function of its inputs plus the targets' content.
//
// Failures (errors.go): fetch, parse (caret-wrapped, labeled with the
// canonical key), cycle, and any nested type/normalization error, all wrapped
// in *ImportError carrying the chain that led there. Cancellation is honored
// at fetch boundaries only; see CancellationError.
package tern

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	furl "github.com/viant/afs/url"
)

// ResolutionContext carries the state of one top-level resolution call: the
// active chain (cycle detection), the memo cache (at-most-once per call), the
// current base, and the fetch service. Values are cheap to copy; chain and
// base differ per recursion level while fs/memo/caches are shared.
type ResolutionContext struct {
	fs     afs.Service
	memo   map[string]*Expr
	chain  []string
	base   importBase
	shared *SharedCache
	disk   *DiskCache
}

type importBase struct {
	remote bool
	dir    string // absolute directory, or the URL directory of the importer
}

// ResolveOption configures a ResolutionContext.
type ResolveOption func(*ResolutionContext)

// WithFS substitutes the fetch service (tests use this for mem:// fixtures
// and fetch counting).
func WithFS(fs afs.Service) ResolveOption {
	return func(rc *ResolutionContext) { rc.fs = fs }
}

// WithSharedCache layers a process-wide cache over the per-call memo.
func WithSharedCache(c *SharedCache) ResolveOption {
	return func(rc *ResolutionContext) { rc.shared = c }
}

// WithDiskCache layers a persisted, content-hash-validated cache over both.
func WithDiskCache(c *DiskCache) ResolveOption {
	return func(rc *ResolutionContext) { rc.disk = c }
}

// NewResolutionContext builds a context rooted at baseDir, which may be a
// local directory or a URL (anything containing "://").
func NewResolutionContext(baseDir string, opts ...ResolveOption) *ResolutionContext {
	rc := &ResolutionContext{
		fs:   afs.New(),
		memo: map[string]*Expr{},
	}
	if strings.Contains(baseDir, "://") {
		rc.base = importBase{remote: true, dir: strings.TrimSuffix(baseDir, "/")}
	} else {
		abs, err := filepath.Abs(baseDir)
		if err != nil {
			abs = filepath.Clean(baseDir)
		}
		rc.base = importBase{dir: abs}
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Resolve eliminates all import references from e relative to baseDir.
func Resolve(ctx context.Context, e *Expr, baseDir string) (*Expr, error) {
	return NewResolutionContext(baseDir).Resolve(ctx, e)
}

// Resolve eliminates all import references from e.
func (rc *ResolutionContext) Resolve(ctx context.Context, e *Expr) (*Expr, error) {
	return rc.resolve(ctx, e)
}

func (rc *ResolutionContext) resolve(ctx context.Context, e *Expr) (*Expr, error) {
	if e.Tag == TImport {
		return rc.resolveImport(ctx, e.Data.(*Import))
	}
	return mapChildren(e, func(child *Expr) (*Expr, error) {
		return rc.resolve(ctx, child)
	})
}

func (rc *ResolutionContext) resolveImport(ctx context.Context, imp *Import) (*Expr, error) {
	key, childBase, err := canonicalTarget(imp, rc.base)
	if err != nil {
		return nil, &ImportFetchError{Target: imp.Raw, Err: err}
	}

	for _, active := range rc.chain {
		if active == key {
			cycle := append(append([]string{}, rc.chain...), key)
			return nil, &CyclicImportError{Chain: cycle}
		}
	}

	resolved, ok := rc.memo[key]
	if !ok {
		load := func() (*Expr, error) { return rc.load(ctx, imp, key, childBase) }
		if rc.shared != nil {
			resolved, err = rc.shared.resolveOnce(key, load)
		} else {
			resolved, err = load()
		}
		if err != nil {
			return nil, err
		}
		rc.memo[key] = resolved
	}

	if imp.Hint != nil {
		if err := rc.checkHint(ctx, imp, key, resolved); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// load performs the fetch → parse → resolve → check → normalize pipeline for
// one canonical target. Callers handle memoization.
func (rc *ResolutionContext) load(ctx context.Context, imp *Import, key string, childBase importBase) (*Expr, error) {
	src, err := rc.fetch(ctx, imp, key)
	if err != nil {
		return nil, err
	}

	hash := sourceHash(src)
	if rc.disk != nil {
		if cached, ok := rc.disk.Lookup(ctx, key, hash); ok {
			return cached, nil
		}
	}

	parsed, err := ParseExpr(src)
	if err != nil {
		return nil, rc.wrap(key, WrapErrorWithName(err, key, src))
	}

	child := &ResolutionContext{
		fs:     rc.fs,
		memo:   rc.memo,
		chain:  append(append([]string{}, rc.chain...), key),
		base:   childBase,
		shared: rc.shared,
		disk:   rc.disk,
	}
	resolved, err := child.resolve(ctx, parsed)
	if err != nil {
		switch err.(type) {
		case *CyclicImportError, *ImportError, *CancellationError:
			return nil, err // already carries its context
		default:
			return nil, child.wrapAt(key, err)
		}
	}
	if _, err := InferType(resolved); err != nil {
		return nil, child.wrapAt(key, err)
	}
	normal := Normalize(resolved)

	if rc.disk != nil {
		// The disk cache is advisory; a failed write must not fail the run.
		_ = rc.disk.Store(ctx, key, hash, normal)
	}
	return normal, nil
}

// fetch obtains the raw source text for a target, honoring cancellation at
// this boundary only.
func (rc *ResolutionContext) fetch(ctx context.Context, imp *Import, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &CancellationError{Target: key, Err: err}
	}
	if imp.Kind == TargetEnv {
		value, ok := os.LookupEnv(imp.Raw)
		if !ok {
			return "", &ImportFetchError{Target: key, Err: errors.Errorf("environment variable %s is not set", imp.Raw)}
		}
		return value, nil
	}
	data, err := rc.fs.DownloadWithURL(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return "", &CancellationError{Target: key, Err: ctx.Err()}
		}
		return "", &ImportFetchError{Target: key, Err: errors.Wrapf(err, "download %s", key)}
	}
	return string(data), nil
}

// checkHint verifies the `: T` expected-type hint attached to an import
// reference. The hint may itself contain imports and is resolved in the
// importer's context.
func (rc *ResolutionContext) checkHint(ctx context.Context, imp *Import, key string, resolved *Expr) error {
	hint, err := rc.resolve(ctx, imp.Hint)
	if err != nil {
		return err
	}
	if err := Check(NewContext(), resolved, hint); err != nil {
		return rc.wrapAt(key, err)
	}
	return nil
}

// wrap / wrapAt prepend the import chain to a nested failure. wrapAt is used
// when key is not yet on rc.chain.
func (rc *ResolutionContext) wrap(key string, err error) error {
	return &ImportError{Target: key, Chain: append(append([]string{}, rc.chain...), key), Err: err}
}

func (rc *ResolutionContext) wrapAt(key string, err error) error {
	chain := rc.chain
	if len(chain) == 0 || chain[len(chain)-1] != key {
		chain = append(append([]string{}, chain...), key)
	}
	return &ImportError{Target: key, Chain: chain, Err: err}
}

/* ===========================
   Canonicalization
   =========================== */

// canonicalTarget maps a written import to its canonical key and the base
// its own imports resolve against.
func canonicalTarget(imp *Import, base importBase) (string, importBase, error) {
	switch imp.Kind {
	case TargetEnv:
		if base.remote {
			return "", importBase{}, errors.New("a remote expression may not read the local environment")
		}
		// env content resolves further imports against the importer's base
		return "env:" + imp.Raw, base, nil

	case TargetRemote:
		key, err := normalizeURL(imp.Raw)
		if err != nil {
			return "", importBase{}, err
		}
		return key, importBase{remote: true, dir: urlDir(key)}, nil

	default: // TargetLocal
		if base.remote {
			if !strings.HasPrefix(imp.Raw, "./") && !strings.HasPrefix(imp.Raw, "../") {
				return "", importBase{}, errors.Errorf("a remote expression may not import the absolute path %s", imp.Raw)
			}
			key, err := normalizeURL(furl.Join(base.dir, imp.Raw))
			if err != nil {
				return "", importBase{}, err
			}
			return key, importBase{remote: true, dir: urlDir(key)}, nil
		}
		p := imp.Raw
		if !filepath.IsAbs(p) {
			p = filepath.Join(base.dir, p)
		}
		p = filepath.Clean(p)
		return p, importBase{dir: filepath.Dir(p)}, nil
	}
}

// normalizeURL lowercases scheme and host, cleans the path (collapsing "./"
// and "x/../"), and strips trailing slashes, so textually different but
// semantically identical targets share one canonical key.
func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "invalid import URL %s", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path != "" {
		cleaned := path.Clean(u.Path)
		if cleaned == "." {
			cleaned = ""
		}
		u.Path = cleaned
	}
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/"), nil
}

// urlDir is the URL of the directory containing the given target URL.
func urlDir(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	u.Path = path.Dir(u.Path)
	return strings.TrimSuffix(u.String(), "/")
}

/* ===========================
   Structural recursion
   =========================== */

// mapChildren rebuilds e with fn applied to every direct child, short-
// circuiting on the first error. TImport is handled by the caller.
func mapChildren(e *Expr, fn func(*Expr) (*Expr, error)) (*Expr, error) {
	var err error
	apply := func(child *Expr) *Expr {
		if err != nil || child == nil {
			return child
		}
		var out *Expr
		out, err = fn(child)
		return out
	}

	switch e.Tag {
	case TVar, TBoolLit, TNaturalLit, TIntegerLit, TDoubleLit, TTextLit, TBuiltin:
		return e, nil
	case TLambda, TPi:
		b := e.Data.(*Binder)
		out := &Expr{Tag: e.Tag, Data: &Binder{Label: b.Label, Type: apply(b.Type), Body: apply(b.Body)}, Span: e.Span}
		return out, err
	case TLet:
		l := e.Data.(*Let)
		out := &Expr{Tag: TLet, Data: &Let{Label: l.Label, Annot: apply(l.Annot), Value: apply(l.Value), Body: apply(l.Body)}, Span: e.Span}
		return out, err
	default:
		out := rebuild(e, apply)
		return out, err
	}
}

/* ===========================
   Process-wide shared cache
   =========================== */

// SharedCache is an optional cross-call cache keyed by canonical target.
//
// Policy (the documented choice between the two correct ones): a second
// resolution of an in-flight target *blocks* until the first completes and
// reuses its result; duplicate work is never started. Failures are not
// cached — after a failed load the key is released and the next resolution
// retries.
type SharedCache struct {
	mu      sync.Mutex
	entries map[string]*sharedEntry
}

type sharedEntry struct {
	done chan struct{}
	expr *Expr
	err  error
}

// NewSharedCache returns an empty process-wide cache.
func NewSharedCache() *SharedCache {
	return &SharedCache{entries: map[string]*sharedEntry{}}
}

func (s *SharedCache) resolveOnce(key string, load func() (*Expr, error)) (*Expr, error) {
	s.mu.Lock()
	if ent, ok := s.entries[key]; ok {
		s.mu.Unlock()
		<-ent.done
		return ent.expr, ent.err
	}
	ent := &sharedEntry{done: make(chan struct{})}
	s.entries[key] = ent
	s.mu.Unlock()

	ent.expr, ent.err = load()
	close(ent.done)
	if ent.err != nil {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
	}
	return ent.expr, ent.err
}
