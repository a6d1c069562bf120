// errors_test.go
package tern

import (
	"strings"
	"testing"
)

func Test_PrettyError_ParseSnippet(t *testing.T) {
	src := "let x = +1\nin x &&\n+2"
	_, err := ParseExpr(src)
	if err != nil {
		// The source parses (&& +2 is an operand); build one that does not.
		t.Fatalf("setup: %v", err)
	}

	bad := "let x = +1 in\nx &&&& y"
	_, perr := ParseExpr(bad)
	if perr == nil {
		t.Fatalf("expected a parse failure")
	}
	pretty := WrapErrorWithSource(perr, bad).Error()
	if !strings.Contains(pretty, "PARSE ERROR") {
		t.Fatalf("missing header:\n%s", pretty)
	}
	if !strings.Contains(pretty, "^") {
		t.Fatalf("missing caret:\n%s", pretty)
	}
	if !strings.Contains(pretty, "x &&&& y") {
		t.Fatalf("missing offending line:\n%s", pretty)
	}
}

func Test_PrettyError_LexSnippet(t *testing.T) {
	src := `+1 ~ +2`
	_, err := Lex(src)
	if err == nil {
		t.Fatalf("expected a lex failure")
	}
	pretty := WrapErrorWithName(err, "conf.tern", src).Error()
	for _, want := range []string{"LEXICAL ERROR", "in conf.tern", "^"} {
		if !strings.Contains(pretty, want) {
			t.Fatalf("missing %q:\n%s", want, pretty)
		}
	}
}

func Test_PrettyError_PassesOtherErrorsThrough(t *testing.T) {
	_, err := InferType(mustParse(t, `x`))
	if err == nil {
		t.Fatalf("expected an unbound variable error")
	}
	if got := WrapErrorWithSource(err, "x"); got != err {
		t.Fatalf("type errors must pass through unchanged, got %v", got)
	}
}

func Test_ErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&UnboundVariableError{Name: "x", Index: 0}, "unbound variable x"},
		{&CyclicImportError{Chain: []string{"a", "b", "a"}}, "a -> b -> a"},
		{&UnknownFieldError{Name: "port"}, `"port"`},
		{&DuplicateFieldError{Name: "a"}, "duplicate"},
	}
	for _, c := range cases {
		if !strings.Contains(c.err.Error(), c.want) {
			t.Fatalf("error %T = %q, want substring %q", c.err, c.err.Error(), c.want)
		}
	}
}
