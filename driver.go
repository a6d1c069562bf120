// driver.go — the end-to-end pipeline: parse, resolve, check, normalize.
//
// An Engine bundles the process-wide pieces (fetch service, shared and disk
// caches) that individual resolution calls thread through. The package-level
// Run/RunSource conveniences build a throwaway Engine for one-shot use.
//
// Pipeline order is fixed: imports are eliminated first, the closed result is
// type-checked, and only well-typed expressions are normalized. A caller
// therefore never normalizes an ill-typed or open term.
package tern

import (
	"context"

	"github.com/viant/afs"
)

// Version of the Tern language implementation.
const Version = "0.3.1"

// Engine evaluates Tern expressions. The zero value is not usable; call New.
// An Engine is safe for concurrent use: each Run gets its own resolution
// state, and the caches it shares are internally synchronized.
type Engine struct {
	fs     afs.Service
	shared *SharedCache
	disk   *DiskCache
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineFS substitutes the fetch service for all runs.
func WithEngineFS(fs afs.Service) EngineOption {
	return func(e *Engine) { e.fs = fs }
}

// WithEngineSharedCache shares resolved imports across runs.
func WithEngineSharedCache(c *SharedCache) EngineOption {
	return func(e *Engine) { e.shared = c }
}

// WithEngineDiskCache persists resolved imports across processes.
func WithEngineDiskCache(c *DiskCache) EngineOption {
	return func(e *Engine) { e.disk = c }
}

// New returns an Engine with a shared in-process import cache.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		fs:     afs.New(),
		shared: NewSharedCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) resolutionContext(baseDir string) *ResolutionContext {
	opts := []ResolveOption{WithFS(e.fs)}
	if e.shared != nil {
		opts = append(opts, WithSharedCache(e.shared))
	}
	if e.disk != nil {
		opts = append(opts, WithDiskCache(e.disk))
	}
	return NewResolutionContext(baseDir, opts...)
}

// Run resolves, type-checks, and normalizes expr with imports relative to
// baseDir. The result is a closed, import-free normal form.
func (e *Engine) Run(ctx context.Context, expr *Expr, baseDir string) (*Expr, error) {
	resolved, err := e.resolutionContext(baseDir).Resolve(ctx, expr)
	if err != nil {
		return nil, err
	}
	if _, err := InferType(resolved); err != nil {
		return nil, err
	}
	return Normalize(resolved), nil
}

// TypeOf resolves expr and returns the normal form of its inferred type.
func (e *Engine) TypeOf(ctx context.Context, expr *Expr, baseDir string) (*Expr, error) {
	resolved, err := e.resolutionContext(baseDir).Resolve(ctx, expr)
	if err != nil {
		return nil, err
	}
	t, err := InferType(resolved)
	if err != nil {
		return nil, err
	}
	return Normalize(t), nil
}

// RunSource parses src (labeled name in error snippets) and runs it.
func (e *Engine) RunSource(ctx context.Context, name, src, baseDir string) (*Expr, error) {
	parsed, err := ParseExpr(src)
	if err != nil {
		return nil, WrapErrorWithName(err, name, src)
	}
	out, err := e.Run(ctx, parsed, baseDir)
	if err != nil {
		return nil, WrapErrorWithName(err, name, src)
	}
	return out, nil
}

// Run is a one-shot convenience over a fresh Engine.
func Run(ctx context.Context, expr *Expr, baseDir string) (*Expr, error) {
	return New().Run(ctx, expr, baseDir)
}

// RunSource is a one-shot convenience over a fresh Engine.
func RunSource(ctx context.Context, name, src, baseDir string) (*Expr, error) {
	return New().RunSource(ctx, name, src, baseDir)
}
