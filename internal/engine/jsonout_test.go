package engine

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"score":80}`, `{"score":80}`},
		{"fenced", "```json\n{\"score\":80}\n```", `{"score":80}`},
		{"prose around", `Sure! {"a":{"b":1}} hope this helps`, `{"a":{"b":1}}`},
		{"braces after", "{\"score\":30}\nNote: lacked {details}.", `{"score":30}`},
		{"braces before", `Use {this} shape: {"score":30}`, `{"score":30}`},
		{"two objects", `{"a":1} {"a":2}`, `{"a":1}`},
	}
	for _, tt := range tests {
		got, err := ExtractJSON(tt.raw)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}

	for _, raw := range []string{"", "no json here", "} backwards {", `{"a": }`} {
		if _, err := ExtractJSON(raw); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ExtractJSON(%q) err = %v, want ErrNoJSON", raw, err)
		}
	}
}

func TestFields(t *testing.T) {
	f, err := DecodeFields(`{"n":82,"ns":" 85 ","bad":"eighty","inf":"Inf","b":true,"bs":"False","s":"x","nil":null,"list":["a",1,"b"],"obj":{"k":1}}`)
	if err != nil {
		t.Fatalf("DecodeFields: %v", err)
	}

	if v, ok := f.Float("n"); !ok || v != 82 {
		t.Errorf("Float(n) = %v, %v", v, ok)
	}
	if v, ok := f.Float("ns"); !ok || v != 85 {
		t.Errorf("Float(ns) = %v, %v", v, ok)
	}
	for _, key := range []string{"bad", "inf", "nil", "missing", "obj"} {
		if _, ok := f.Float(key); ok {
			t.Errorf("Float(%s) ok, want rejected", key)
		}
	}
	if v, ok := f.Bool("b"); !ok || !v {
		t.Errorf("Bool(b) = %v, %v", v, ok)
	}
	if v, ok := f.Bool("bs"); !ok || v {
		t.Errorf("Bool(bs) = %v, %v", v, ok)
	}
	if _, ok := f.Bool("s"); ok {
		t.Error("Bool(s) ok, want rejected")
	}
	if v, ok := f.String("s"); !ok || v != "x" {
		t.Errorf("String(s) = %q, %v", v, ok)
	}
	if _, ok := f.String("n"); ok {
		t.Error("String(n) ok, want rejected")
	}
	if _, ok := f.String("nil"); ok {
		t.Error("String(nil) ok, want missing")
	}
	if v, ok := f.Strings("list"); !ok || len(v) != 2 || v[0] != "a" || v[1] != "b" {
		t.Errorf("Strings(list) = %v, %v", v, ok)
	}
	if _, ok := f.Strings("s"); ok {
		t.Error("Strings(s) ok, want rejected")
	}

	if _, err := DecodeFields("nothing"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("DecodeFields err = %v, want ErrNoJSON", err)
	}
}
