// lexer_test.go
package tern

import (
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func mustLex(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("lex error: %v\nsource:\n%s", err, src)
	}
	return toks
}

func wantTokens(t *testing.T, src string, types ...TokenType) []Token {
	t.Helper()
	toks := mustLex(t, src)
	if len(toks) != len(types)+1 { // trailing EOF
		t.Fatalf("want %d tokens (+EOF), got %d: %v\nsource: %s", len(types), len(toks)-1, toks, src)
	}
	for i, typ := range types {
		if toks[i].Type != typ {
			t.Fatalf("token %d: want type %d, got %d (%q)\nsource: %s", i, typ, toks[i].Type, toks[i].Lit, src)
		}
	}
	return toks
}

func mustFailLexContains(t *testing.T, src, substr string) {
	t.Helper()
	_, err := Lex(src)
	if err == nil {
		t.Fatalf("expected lex error containing %q, got nil\nsource: %s", substr, src)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error containing %q, got %v", substr, err)
	}
}

// --- tests -----------------------------------------------------------------

func Test_Lexer_NaturalVersusPlus(t *testing.T) {
	// `+2 + +3` is addition of two Natural literals.
	toks := wantTokens(t, `+2 + +3`, NATURAL, PLUS, NATURAL)
	if toks[0].Nat != 2 || toks[2].Nat != 3 {
		t.Fatalf("natural payloads: %v", toks)
	}

	wantTokens(t, `"a" ++ "b"`, TEXT, TEXTAPPEND, TEXT)
}

func Test_Lexer_NumbersAndText(t *testing.T) {
	toks := wantTokens(t, `5 -7 1.5 -2e3 "hi\n"`, INTEGER, INTEGER, DOUBLE, DOUBLE, TEXT)
	if toks[0].Int != 5 || toks[1].Int != -7 {
		t.Fatalf("integer payloads: %v", toks)
	}
	if toks[2].Dbl != 1.5 || toks[3].Dbl != -2000 {
		t.Fatalf("double payloads: %v", toks)
	}
	if toks[4].Str != "hi\n" {
		t.Fatalf("text payload: %q", toks[4].Str)
	}
}

func Test_Lexer_SlashedIdentifiers(t *testing.T) {
	toks := wantTokens(t, `Natural/fold Natural/build x`, IDENT, IDENT, IDENT)
	if toks[0].Lit != "Natural/fold" || toks[1].Lit != "Natural/build" {
		t.Fatalf("slashed identifiers: %v", toks)
	}
}

func Test_Lexer_ImportTargets(t *testing.T) {
	toks := wantTokens(t, `./sibling ../up /abs/path env:HOME http://example.com/a`,
		PATH, PATH, PATH, ENVREF, URL)
	if toks[0].Lit != "./sibling" || toks[1].Lit != "../up" || toks[2].Lit != "/abs/path" {
		t.Fatalf("paths: %v", toks)
	}
	if toks[3].Str != "HOME" {
		t.Fatalf("env payload: %q", toks[3].Str)
	}
	if toks[4].Lit != "http://example.com/a" {
		t.Fatalf("url: %q", toks[4].Lit)
	}
}

func Test_Lexer_PathStopsAtColon(t *testing.T) {
	// `./x : T` must lex as three tokens so the parser can attach a type hint.
	wantTokens(t, `./x : Bool`, PATH, COLON, IDENT)
}

func Test_Lexer_Comments(t *testing.T) {
	wantTokens(t, "True -- trailing words\nFalse", BOOL, BOOL)
	wantTokens(t, `{- one {- nested -} still -} +1`, NATURAL)
	mustFailLexContains(t, `{- never closed`, "unterminated block comment")
}

func Test_Lexer_UnicodeSpellings(t *testing.T) {
	wantTokens(t, `λ(x : Bool) → x`, LAMBDA, LPAREN, IDENT, COLON, IDENT, RPAREN, ARROW, IDENT)
	wantTokens(t, `∀(a : Type) → a`, FORALL, LPAREN, IDENT, COLON, IDENT, RPAREN, ARROW, IDENT)
}

func Test_Lexer_Errors(t *testing.T) {
	mustFailLexContains(t, `"open`, "unterminated text literal")
	mustFailLexContains(t, `a & b`, `did you mean "&&"`)
	mustFailLexContains(t, `a - b`, "no subtraction")
}

func Test_Lexer_Positions(t *testing.T) {
	toks := mustLex(t, "True\n  False")
	if toks[0].Line != 1 || toks[0].Col != 1 {
		t.Fatalf("first token position: %d:%d", toks[0].Line, toks[0].Col)
	}
	if toks[1].Line != 2 || toks[1].Col != 3 {
		t.Fatalf("second token position: %d:%d", toks[1].Line, toks[1].Col)
	}
}
