// errors.go — the error taxonomy and caret-snippet rendering.
//
// What this file does
// -------------------
// Every failure in the pipeline is one of a small closed set of structured
// error values. Each retains enough structure — the offending subexpression,
// the expected vs. actual type, or the full import chain — for a presentation
// layer to render a precise, located message; the Error() strings produced
// here are plain single-purpose text, no ANSI.
//
// Taxonomy (in order of appearance in a run):
//
//	*LexError, *ParseError        — malformed source (lexer.go / parser.go)
//	*ImportFetchError             — target unreachable (missing file, http
//	                                failure, unset env var)
//	*CancellationError            — context cancelled at a fetch boundary
//	*CyclicImportError            — the active chain returned to itself
//	*ImportError                  — any failure inside an imported expression,
//	                                wrapped with the chain that led there
//	*UnboundVariableError, *DuplicateFieldError, *DuplicateAlternativeError,
//	*TypeMismatchError, *NotAFunctionError, *UnknownFieldError,
//	*InvalidTypeError             — type checking
//
// Every error is terminal for its enclosing Run call: no partial results, no
// local recovery.
//
// `WrapErrorWithSource` upgrades lex/parse errors into multi-line snippets
// with a caret under the offending column:
//
//	PARSE ERROR at 3:12: unexpected token ')'
//
//	   2 | let x = (+1 + +2
//	   3 |              )
//	       |            ^
package tern

import (
	"fmt"
	"strings"
)

/* ===========================
   Type-checking errors
   =========================== */

// UnboundVariableError reports a variable reference with no matching binder.
type UnboundVariableError struct {
	Name  string
	Index int
	Span  Span
}

func (e *UnboundVariableError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("unbound variable %s@%d", e.Name, e.Index)
	}
	return fmt.Sprintf("unbound variable %s", e.Name)
}

// DuplicateFieldError reports a repeated record field name.
type DuplicateFieldError struct {
	Name string
	Span Span
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate record field %q", e.Name)
}

// DuplicateAlternativeError reports a repeated union tag.
type DuplicateAlternativeError struct {
	Name string
	Span Span
}

func (e *DuplicateAlternativeError) Error() string {
	return fmt.Sprintf("duplicate union alternative %q", e.Name)
}

// TypeMismatchError carries the expected type, the actual inferred type, and
// the offending expression (normal forms on both type sides).
type TypeMismatchError struct {
	Expected *Expr
	Actual   *Expr
	Expr     *Expr
	Span     Span
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s but found %s",
		Render(e.Expected), Render(e.Actual))
}

// NotAFunctionError reports an application whose head is not a function.
type NotAFunctionError struct {
	Type *Expr // the inferred (non-Pi) type of the head
	Expr *Expr
	Span Span
}

func (e *NotAFunctionError) Error() string {
	return fmt.Sprintf("not a function: cannot apply a value of type %s", Render(e.Type))
}

// UnknownFieldError reports selection of a field a record type lacks.
type UnknownFieldError struct {
	Name       string
	RecordType *Expr
	Span       Span
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("record of type %s has no field %q", Render(e.RecordType), e.Name)
}

// InvalidTypeError covers the remaining well-formedness failures: a binder
// annotation that is not a type, an empty list without an annotation, `Kind`
// in a term position, and similar.
type InvalidTypeError struct {
	Message string
	Expr    *Expr
	Span    Span
}

func (e *InvalidTypeError) Error() string { return e.Message }

/* ===========================
   Import errors
   =========================== */

// CyclicImportError reports the ordered chain of canonical targets forming
// the cycle; the first and last entries are the repeated target.
type CyclicImportError struct {
	Chain []string
}

func (e *CyclicImportError) Error() string {
	return "import cycle detected: " + strings.Join(e.Chain, " -> ")
}

// ImportFetchError reports an unreachable target together with the transport
// failure that made it so.
type ImportFetchError struct {
	Target string
	Err    error
}

func (e *ImportFetchError) Error() string {
	return fmt.Sprintf("cannot fetch %s: %v", e.Target, e.Err)
}

func (e *ImportFetchError) Unwrap() error { return e.Err }

// CancellationError reports cancellation observed at a fetch boundary; the
// remainder of the active chain is abandoned.
type CancellationError struct {
	Target string
	Err    error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("import of %s cancelled: %v", e.Target, e.Err)
}

func (e *CancellationError) Unwrap() error { return e.Err }

// ImportError wraps any failure (parse, type, nested import) that occurred
// while resolving Target, prepending the chain that led to it so the
// top-level caller sees which import path failed.
type ImportError struct {
	Target string
	Chain  []string
	Err    error
}

func (e *ImportError) Error() string {
	if len(e.Chain) > 1 {
		return fmt.Sprintf("error in import %s (via %s): %v",
			e.Target, strings.Join(e.Chain, " -> "), e.Err)
	}
	return fmt.Sprintf("error in import %s: %v", e.Target, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

/* ===========================
   Caret-snippet rendering
   =========================== */

// WrapErrorWithSource returns an error augmented with a caret-annotated
// snippet of the provided source. Lex and parse errors are recognized; any
// other error is returned unchanged.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a display name ("in <name>")
// in the header, used when the source came from an import target.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "LEXICAL ERROR", srcName, e.Line, e.Col, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "PARSE ERROR", srcName, e.Line, e.Col, e.Msg))
	default:
		return err
	}
}

// prettyErrorStringLabeled builds a Python-like snippet with a header and a
// caret. It shows at most one previous and one next line when available.
// Coordinates are 1-based and clamped to the source bounds.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
