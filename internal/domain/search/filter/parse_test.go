package filter

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in   string
		want Condition
	}{
		{"lang:go", Condition{"lang", "go"}},
		{`tag:"42"`, Condition{"tag", "42"}},
		{"views:42", Condition{"views", 42.0}},
		{"draft:true", Condition{"draft", true}},
		{"url:http://x", Condition{"url", "http://x"}},
		{"empty:", Condition{"empty", ""}},
		{"n:null", Condition{"n", "null"}},
		{"list:[1,2]", Condition{"list", "[1,2]"}},
	}
	for _, tc := range tests {
		got, err := ParseCondition(tc.in)
		if err != nil {
			t.Errorf("ParseCondition(%q): %v", tc.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseCondition(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestParseCondition_Malformed(t *testing.T) {
	for _, in := range []string{"", "nocolon", ":value"} {
		if _, err := ParseCondition(in); !errors.Is(err, ErrMalformedCondition) {
			t.Errorf("ParseCondition(%q) err = %v, want ErrMalformedCondition", in, err)
		}
	}
}
