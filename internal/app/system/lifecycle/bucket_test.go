package lifecycle

import (
	"testing"

	"github.com/dalemusser/councilhub/internal/domain/models"
)

func TestClassify_Cube(t *testing.T) {
	tests := []struct {
		verified, token, approved bool
		want                      Bucket
	}{
		{false, false, false, Legacy},
		{false, true, false, Unverified},
		{true, false, false, PendingApproval},
		{true, true, false, PendingApproval},
		{false, false, true, Active},
		{false, true, true, Active},
		{true, false, true, Active},
		{true, true, true, Active},
	}

	for _, tt := range tests {
		got := Classify(tt.verified, tt.token, tt.approved)
		if got != tt.want {
			t.Errorf("Classify(verified=%v, token=%v, approved=%v) = %s, want %s",
				tt.verified, tt.token, tt.approved, got, tt.want)
		}
	}
}

func TestClassifyUser_EmptyTokenIsLegacy(t *testing.T) {
	empty := ""
	u := models.User{EmailVerificationToken: &empty}
	if got := ClassifyUser(u); got != Legacy {
		t.Errorf("ClassifyUser with empty token = %s, want %s", got, Legacy)
	}

	tok := "abc"
	u.EmailVerificationToken = &tok
	if got := ClassifyUser(u); got != Unverified {
		t.Errorf("ClassifyUser with token = %s, want %s", got, Unverified)
	}
}

func TestParseBucket(t *testing.T) {
	tests := []struct {
		in   string
		want Bucket
		ok   bool
	}{
		{"pending_approval", PendingApproval, true},
		{"ACTIVE", Active, true},
		{"  legacy ", Legacy, true},
		{"Unverified", Unverified, true},
		{"archived", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseBucket(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseBucket(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
