// serialize.go — JSON encoding of normal-form expressions for the disk cache.
//
// The encoding is a private, versionless tagged tree; it exists solely so
// cache.go can persist resolved imports, and it round-trips every import-free
// expression exactly (serialize_test.go). Import references are not
// encodable: only resolved normal forms reach the cache.
package tern

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type jsonExpr struct {
	Tag   string      `json:"t"`
	Name  string      `json:"n,omitempty"`
	Index int         `json:"i,omitempty"`
	Op    int         `json:"op,omitempty"`
	A     *jsonExpr   `json:"a,omitempty"`
	B     *jsonExpr   `json:"b,omitempty"`
	C     *jsonExpr   `json:"c,omitempty"`
	Items []*jsonExpr `json:"xs,omitempty"`
	Pairs []jsonField `json:"fs,omitempty"`
	Bool  *bool       `json:"vb,omitempty"`
	Nat   *uint64     `json:"vn,omitempty"`
	Int   *int64      `json:"vi,omitempty"`
	Dbl   *float64    `json:"vd,omitempty"`
	Text  *string     `json:"vt,omitempty"`
}

type jsonField struct {
	Name  string    `json:"n"`
	Value *jsonExpr `json:"v"`
}

// MarshalExpr encodes an import-free expression.
func MarshalExpr(e *Expr) ([]byte, error) {
	j, err := encodeExpr(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(j)
}

// UnmarshalExpr decodes an expression produced by MarshalExpr.
func UnmarshalExpr(data []byte) (*Expr, error) {
	var j jsonExpr
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrap(err, "corrupt expression encoding")
	}
	return decodeExpr(&j)
}

func encodeExpr(e *Expr) (*jsonExpr, error) {
	enc := func(c *Expr) (*jsonExpr, error) {
		if c == nil {
			return nil, nil
		}
		return encodeExpr(c)
	}
	switch e.Tag {
	case TVar:
		v := e.Data.(*Var)
		return &jsonExpr{Tag: "var", Name: v.Name, Index: v.Index}, nil
	case TLambda, TPi:
		b := e.Data.(*Binder)
		t, err := enc(b.Type)
		if err != nil {
			return nil, err
		}
		body, err := enc(b.Body)
		if err != nil {
			return nil, err
		}
		tag := "lam"
		if e.Tag == TPi {
			tag = "pi"
		}
		return &jsonExpr{Tag: tag, Name: b.Label, A: t, B: body}, nil
	case TApp:
		a := e.Data.(*App)
		fn, err := enc(a.Fn)
		if err != nil {
			return nil, err
		}
		arg, err := enc(a.Arg)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Tag: "app", A: fn, B: arg}, nil
	case TLet:
		l := e.Data.(*Let)
		ann, err := enc(l.Annot)
		if err != nil {
			return nil, err
		}
		v, err := enc(l.Value)
		if err != nil {
			return nil, err
		}
		body, err := enc(l.Body)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Tag: "let", Name: l.Label, A: ann, B: v, C: body}, nil
	case TAnnot:
		a := e.Data.(*Annot)
		inner, err := enc(a.Expr)
		if err != nil {
			return nil, err
		}
		t, err := enc(a.Type)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Tag: "annot", A: inner, B: t}, nil
	case TBoolLit:
		v := e.Data.(bool)
		return &jsonExpr{Tag: "bool", Bool: &v}, nil
	case TNaturalLit:
		v := e.Data.(uint64)
		return &jsonExpr{Tag: "nat", Nat: &v}, nil
	case TIntegerLit:
		v := e.Data.(int64)
		return &jsonExpr{Tag: "int", Int: &v}, nil
	case TDoubleLit:
		v := e.Data.(float64)
		return &jsonExpr{Tag: "dbl", Dbl: &v}, nil
	case TTextLit:
		v := e.Data.(string)
		return &jsonExpr{Tag: "text", Text: &v}, nil
	case TIf:
		i := e.Data.(*If)
		c, err := enc(i.Cond)
		if err != nil {
			return nil, err
		}
		t, err := enc(i.Then)
		if err != nil {
			return nil, err
		}
		f, err := enc(i.Else)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Tag: "if", A: c, B: t, C: f}, nil
	case TOp:
		o := e.Data.(*Op)
		l, err := enc(o.L)
		if err != nil {
			return nil, err
		}
		r, err := enc(o.R)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Tag: "op", Op: int(o.Kind), A: l, B: r}, nil
	case TList:
		l := e.Data.(*List)
		t, err := enc(l.Type)
		if err != nil {
			return nil, err
		}
		j := &jsonExpr{Tag: "list", A: t}
		for _, el := range l.Elems {
			je, err := enc(el)
			if err != nil {
				return nil, err
			}
			j.Items = append(j.Items, je)
		}
		return j, nil
	case TSome:
		v, err := enc(e.Data.(*Some).Value)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Tag: "some", A: v}, nil
	case TNone:
		t, err := enc(e.Data.(*None).Type)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Tag: "none", A: t}, nil
	case TRecordType, TRecordLit:
		r := e.Data.(*Record)
		tag := "rectype"
		if e.Tag == TRecordLit {
			tag = "reclit"
		}
		j := &jsonExpr{Tag: tag}
		for _, f := range r.Fields {
			fv, err := enc(f.Value)
			if err != nil {
				return nil, err
			}
			j.Pairs = append(j.Pairs, jsonField{Name: f.Name, Value: fv})
		}
		return j, nil
	case TSelect:
		s := e.Data.(*Select)
		rec, err := enc(s.Record)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Tag: "select", Name: s.Name, A: rec}, nil
	case TUnionType:
		u := e.Data.(*Union)
		j := &jsonExpr{Tag: "uniontype"}
		for _, a := range u.Alternatives {
			av, err := enc(a.Value)
			if err != nil {
				return nil, err
			}
			j.Pairs = append(j.Pairs, jsonField{Name: a.Name, Value: av})
		}
		return j, nil
	case TUnionLit:
		u := e.Data.(*UnionLit)
		v, err := enc(u.Value)
		if err != nil {
			return nil, err
		}
		j := &jsonExpr{Tag: "unionlit", Name: u.Tag, A: v}
		for _, a := range u.Alternatives {
			av, err := enc(a.Value)
			if err != nil {
				return nil, err
			}
			j.Pairs = append(j.Pairs, jsonField{Name: a.Name, Value: av})
		}
		return j, nil
	case TBuiltin:
		return &jsonExpr{Tag: "builtin", Name: e.Data.(Builtin).String()}, nil
	case TImport:
		return nil, errors.New("cannot serialize an unresolved import")
	}
	return nil, errors.Errorf("cannot serialize expression tag %d", e.Tag)
}

func decodeExpr(j *jsonExpr) (*Expr, error) {
	if j == nil {
		return nil, nil
	}
	dec := decodeExpr
	switch j.Tag {
	case "var":
		return mkVar(j.Name, j.Index), nil
	case "lam", "pi":
		t, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		body, err := dec(j.B)
		if err != nil {
			return nil, err
		}
		if j.Tag == "lam" {
			return mkLambda(j.Name, t, body), nil
		}
		return mkPi(j.Name, t, body), nil
	case "app":
		fn, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		arg, err := dec(j.B)
		if err != nil {
			return nil, err
		}
		return mkApp(fn, arg), nil
	case "let":
		ann, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		v, err := dec(j.B)
		if err != nil {
			return nil, err
		}
		body, err := dec(j.C)
		if err != nil {
			return nil, err
		}
		return &Expr{Tag: TLet, Data: &Let{Label: j.Name, Annot: ann, Value: v, Body: body}}, nil
	case "annot":
		inner, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		t, err := dec(j.B)
		if err != nil {
			return nil, err
		}
		return &Expr{Tag: TAnnot, Data: &Annot{Expr: inner, Type: t}}, nil
	case "bool":
		return mkBool(j.Bool != nil && *j.Bool), nil
	case "nat":
		var v uint64
		if j.Nat != nil {
			v = *j.Nat
		}
		return mkNatural(v), nil
	case "int":
		var v int64
		if j.Int != nil {
			v = *j.Int
		}
		return &Expr{Tag: TIntegerLit, Data: v}, nil
	case "dbl":
		var v float64
		if j.Dbl != nil {
			v = *j.Dbl
		}
		return &Expr{Tag: TDoubleLit, Data: v}, nil
	case "text":
		var v string
		if j.Text != nil {
			v = *j.Text
		}
		return &Expr{Tag: TTextLit, Data: v}, nil
	case "if":
		c, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		t, err := dec(j.B)
		if err != nil {
			return nil, err
		}
		f, err := dec(j.C)
		if err != nil {
			return nil, err
		}
		return &Expr{Tag: TIf, Data: &If{Cond: c, Then: t, Else: f}}, nil
	case "op":
		l, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		r, err := dec(j.B)
		if err != nil {
			return nil, err
		}
		return mkOp(OpKind(j.Op), l, r), nil
	case "list":
		t, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		l := &List{Type: t}
		for _, item := range j.Items {
			el, err := dec(item)
			if err != nil {
				return nil, err
			}
			l.Elems = append(l.Elems, el)
		}
		return &Expr{Tag: TList, Data: l}, nil
	case "some":
		v, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		return &Expr{Tag: TSome, Data: &Some{Value: v}}, nil
	case "none":
		t, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		return &Expr{Tag: TNone, Data: &None{Type: t}}, nil
	case "rectype", "reclit":
		r := &Record{}
		for _, f := range j.Pairs {
			fv, err := dec(f.Value)
			if err != nil {
				return nil, err
			}
			r.Fields = append(r.Fields, FieldEntry{Name: f.Name, Value: fv})
		}
		tag := TRecordType
		if j.Tag == "reclit" {
			tag = TRecordLit
		}
		return &Expr{Tag: tag, Data: r}, nil
	case "select":
		rec, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		return &Expr{Tag: TSelect, Data: &Select{Record: rec, Name: j.Name}}, nil
	case "uniontype":
		u := &Union{}
		for _, f := range j.Pairs {
			fv, err := dec(f.Value)
			if err != nil {
				return nil, err
			}
			u.Alternatives = append(u.Alternatives, FieldEntry{Name: f.Name, Value: fv})
		}
		return &Expr{Tag: TUnionType, Data: u}, nil
	case "unionlit":
		v, err := dec(j.A)
		if err != nil {
			return nil, err
		}
		u := &UnionLit{Tag: j.Name, Value: v}
		for _, f := range j.Pairs {
			fv, err := dec(f.Value)
			if err != nil {
				return nil, err
			}
			u.Alternatives = append(u.Alternatives, FieldEntry{Name: f.Name, Value: fv})
		}
		return &Expr{Tag: TUnionLit, Data: u}, nil
	case "builtin":
		b, ok := BuiltinNamed(j.Name)
		if !ok {
			return nil, errors.Errorf("unknown builtin %q in encoded expression", j.Name)
		}
		return mkBuiltin(b), nil
	}
	return nil, errors.Errorf("unknown expression tag %q in encoded expression", j.Tag)
}
