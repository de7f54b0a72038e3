package search

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"  river   rowing  club ", "river rowing club"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("é", MaxQueryLen+20)
	if got := []rune(Clean(long)); len(got) != MaxQueryLen {
		t.Errorf("Clean truncated to %d runes, want %d", len(got), MaxQueryLen)
	}
}

func TestPattern_EscapesRegex(t *testing.T) {
	if got := Pattern("a.b+c"); got != `a\.b\+c` {
		t.Errorf("Pattern = %q", got)
	}
	if got := Pattern(""); got != "" {
		t.Errorf("blank Pattern = %q", got)
	}
}

func TestFilter(t *testing.T) {
	if Filter("  ", "name_ci") != nil {
		t.Error("blank query should produce no filter")
	}
	if Filter("x") != nil {
		t.Error("no fields should produce no filter")
	}

	f := Filter("Smith", "name_ci", "email")
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("unexpected filter: %#v", f)
	}
	first := or[0].(bson.M)["name_ci"].(primitive.Regex)
	if first.Pattern != "smith" || first.Options != "i" {
		t.Errorf("regex = %+v", first)
	}
}
