// printer.go — deterministic rendering of expressions back to source text.
//
// `Render` produces parseable Tern syntax: Render∘ParseExpr is the identity
// on normal forms up to whitespace, and ParseExpr(Render(e)) reproduces e for
// every import-free e. Parentheses are inserted by precedence only where
// needed. Field and alternative order is preserved as stored, so rendering is
// deterministic for any given tree.
//
// The REPL and the error messages are the only consumers; the core pipeline
// never depends on rendered text.
package tern

import (
	"fmt"
	"strconv"
	"strings"
)

// Binding strengths, loosest first. A node is parenthesized when its own
// level is below the level its context requires.
const (
	precExpr   = iota // lambda, forall, let, if, annotation
	precArrow         // A -> B
	precOr            // ||
	precAnd           // &&
	precEq            // == and !=
	precAppend        // ++
	precPlus          // +
	precTimes         // *
	precApp           // juxtaposition
	precSelect        // r.field
	precAtom
)

// Render returns e as Tern source text.
func Render(e *Expr) string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	render(&b, e, precExpr)
	return b.String()
}

func render(b *strings.Builder, e *Expr, ctx int) {
	level := exprPrec(e)
	if level < ctx {
		b.WriteByte('(')
		defer b.WriteByte(')')
	}

	switch e.Tag {
	case TVar:
		v := e.Data.(*Var)
		if v.Index > 0 {
			fmt.Fprintf(b, "%s@%d", v.Name, v.Index)
		} else {
			b.WriteString(v.Name)
		}

	case TLambda:
		bd := e.Data.(*Binder)
		b.WriteString("\\(")
		b.WriteString(bd.Label)
		b.WriteString(" : ")
		render(b, bd.Type, precExpr)
		b.WriteString(") -> ")
		render(b, bd.Body, precExpr)

	case TPi:
		bd := e.Data.(*Binder)
		if bd.Label == "_" {
			render(b, bd.Type, precOr)
			b.WriteString(" -> ")
			render(b, bd.Body, precArrow)
		} else {
			b.WriteString("forall (")
			b.WriteString(bd.Label)
			b.WriteString(" : ")
			render(b, bd.Type, precExpr)
			b.WriteString(") -> ")
			render(b, bd.Body, precExpr)
		}

	case TApp:
		a := e.Data.(*App)
		render(b, a.Fn, precApp)
		b.WriteByte(' ')
		render(b, a.Arg, precSelect)

	case TLet:
		l := e.Data.(*Let)
		b.WriteString("let ")
		b.WriteString(l.Label)
		if l.Annot != nil {
			b.WriteString(" : ")
			render(b, l.Annot, precArrow)
		}
		b.WriteString(" = ")
		render(b, l.Value, precExpr)
		b.WriteString(" in ")
		render(b, l.Body, precExpr)

	case TAnnot:
		a := e.Data.(*Annot)
		render(b, a.Expr, precArrow)
		b.WriteString(" : ")
		render(b, a.Type, precExpr)

	case TBoolLit:
		if e.Data.(bool) {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case TNaturalLit:
		fmt.Fprintf(b, "+%d", e.Data.(uint64))
	case TIntegerLit:
		fmt.Fprintf(b, "%d", e.Data.(int64))
	case TDoubleLit:
		b.WriteString(strconv.FormatFloat(e.Data.(float64), 'g', -1, 64))
	case TTextLit:
		b.WriteString(strconv.Quote(e.Data.(string)))

	case TIf:
		i := e.Data.(*If)
		b.WriteString("if ")
		render(b, i.Cond, precExpr)
		b.WriteString(" then ")
		render(b, i.Then, precExpr)
		b.WriteString(" else ")
		render(b, i.Else, precExpr)

	case TOp:
		o := e.Data.(*Op)
		render(b, o.L, level)
		b.WriteString(opText(o.Kind))
		render(b, o.R, level+1)

	case TList:
		l := e.Data.(*List)
		b.WriteByte('[')
		for i, el := range l.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, el, precExpr)
		}
		b.WriteByte(']')
		if l.Type != nil {
			b.WriteString(" : List ")
			render(b, l.Type, precSelect)
		}

	case TSome:
		b.WriteString("Some ")
		render(b, e.Data.(*Some).Value, precSelect)
	case TNone:
		b.WriteString("None ")
		render(b, e.Data.(*None).Type, precSelect)

	case TRecordType:
		r := e.Data.(*Record)
		if len(r.Fields) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, f := range r.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(" : ")
			render(b, f.Value, precExpr)
		}
		b.WriteString(" }")

	case TRecordLit:
		r := e.Data.(*Record)
		if len(r.Fields) == 0 {
			b.WriteString("{=}")
			return
		}
		b.WriteString("{ ")
		for i, f := range r.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(" = ")
			render(b, f.Value, precExpr)
		}
		b.WriteString(" }")

	case TSelect:
		s := e.Data.(*Select)
		render(b, s.Record, precSelect)
		b.WriteByte('.')
		b.WriteString(s.Name)

	case TUnionType:
		u := e.Data.(*Union)
		b.WriteString("< ")
		for i, a := range u.Alternatives {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(a.Name)
			b.WriteString(" : ")
			render(b, a.Value, precExpr)
		}
		b.WriteString(" >")

	case TUnionLit:
		u := e.Data.(*UnionLit)
		b.WriteString("< ")
		b.WriteString(u.Tag)
		b.WriteString(" = ")
		render(b, u.Value, precExpr)
		for _, a := range u.Alternatives {
			b.WriteString(" | ")
			b.WriteString(a.Name)
			b.WriteString(" : ")
			render(b, a.Value, precExpr)
		}
		b.WriteString(" >")

	case TBuiltin:
		b.WriteString(e.Data.(Builtin).String())

	case TImport:
		imp := e.Data.(*Import)
		if imp.Kind == TargetEnv {
			b.WriteString("env:")
		}
		b.WriteString(imp.Raw)
		if imp.Hint != nil {
			b.WriteString(" : ")
			render(b, imp.Hint, precExpr)
		}
	}
}

func exprPrec(e *Expr) int {
	switch e.Tag {
	case TLambda, TLet, TIf, TAnnot:
		return precExpr
	case TPi:
		if e.Data.(*Binder).Label == "_" {
			return precArrow
		}
		return precExpr
	case TOp:
		switch e.Data.(*Op).Kind {
		case OpOr:
			return precOr
		case OpAnd:
			return precAnd
		case OpEq, OpNe:
			return precEq
		case OpTextAppend:
			return precAppend
		case OpPlus:
			return precPlus
		default:
			return precTimes
		}
	case TApp, TSome, TNone:
		return precApp
	case TSelect:
		return precSelect
	case TList:
		if e.Data.(*List).Type != nil {
			return precExpr // carries its own annotation
		}
		return precAtom
	case TImport:
		if e.Data.(*Import).Hint != nil {
			return precExpr
		}
		return precAtom
	default:
		return precAtom
	}
}

func opText(k OpKind) string {
	switch k {
	case OpOr:
		return " || "
	case OpAnd:
		return " && "
	case OpEq:
		return " == "
	case OpNe:
		return " != "
	case OpPlus:
		return " + "
	case OpTimes:
		return " * "
	default:
		return " ++ "
	}
}
