package htmlsanitize_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/dalemusser/councilhub/internal/app/system/htmlsanitize"
)

func TestSanitize_KeepsFormatting(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"plain text", "Bring water and sunscreen."},
		{"inline", "<p><strong>Check-in</strong> opens at <em>8am</em></p>"},
		{"list", "<ul><li>Cleats</li><li>Shin guards</li></ul>"},
		{"ordered list", "<ol><li>Warm up</li><li>Scrimmage</li></ol>"},
		{"headings", "<h2>Schedule</h2><h3>Day 1</h3>"},
		{"blockquote", "<blockquote>See you on the field</blockquote>"},
		{"formatting", "<u>underline</u> <s>strike</s> <mark>note</mark>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := htmlsanitize.Sanitize(tt.input)
			if got != tt.input {
				t.Errorf("Sanitize(%q) = %q, want unchanged", tt.input, got)
			}
		})
	}
}

func TestSanitize_StripsDangerousContent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		mustNot string
		keep    string
	}{
		{"script", "<p>Hello</p><script>alert('xss')</script>", "script", "<p>Hello</p>"},
		{"onclick", `<button onclick="alert(1)">Go</button>`, "onclick", ""},
		{"javascript href", `<a href="javascript:alert(1)">Go</a>`, "javascript:", "Go"},
		{"iframe", `<p>Map</p><iframe src="https://evil.example"></iframe>`, "iframe", "Map"},
		{"style tag", `<style>body{color:red}</style><p>Text</p>`, "<style", "Text"},
		{"onerror", `<img src="x" onerror="alert(1)">`, "onerror", ""},
		{"form", `<form action="/x"><input name="a"></form>`, "<input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := htmlsanitize.Sanitize(tt.input)
			if strings.Contains(got, tt.mustNot) {
				t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.input, got, tt.mustNot)
			}
			if tt.keep != "" && !strings.Contains(got, tt.keep) {
				t.Errorf("Sanitize(%q) = %q, should keep %q", tt.input, got, tt.keep)
			}
		})
	}
}

func TestSanitize_LinksAndTables(t *testing.T) {
	link := htmlsanitize.Sanitize(`<a href="https://council.example/register">Register</a>`)
	if !strings.Contains(link, "https://council.example/register") {
		t.Errorf("expected safe link preserved, got %q", link)
	}

	table := htmlsanitize.Sanitize(`<table class="fees"><tr><td colspan="2">Adult</td></tr></table>`)
	if !strings.Contains(table, `class="fees"`) || !strings.Contains(table, `colspan="2"`) {
		t.Errorf("expected table attributes preserved, got %q", table)
	}
}

func TestSanitizeToHTML(t *testing.T) {
	got := htmlsanitize.SanitizeToHTML("<p>Hello</p><script>x()</script>")
	if got != template.HTML("<p>Hello</p>") {
		t.Errorf("SanitizeToHTML = %q, want %q", got, "<p>Hello</p>")
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"Ages 8 < 12", true},
		{"Score > 3", true},
		{"<p>Hi</p>", false},
	}
	for _, tt := range tests {
		if got := htmlsanitize.IsPlainText(tt.input); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Line 1\nLine 2", "<p>Line 1<br>Line 2</p>"},
		{"Line 1\r\nLine 2", "<p>Line 1<br>Line 2</p>"},
		{"A & B", "<p>A &amp; B</p>"},
		{"<b>", "<p>&lt;b&gt;</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PlainTextToHTML(tt.input); got != tt.want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPrepareForDisplay(t *testing.T) {
	tests := []struct {
		input string
		want  template.HTML
	}{
		{"", ""},
		{"Meet at the gym", "<p>Meet at the gym</p>"},
		{"<p>Hello</p>", "<p>Hello</p>"},
		{"<p>Hello</p><script>x()</script>", "<p>Hello</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PrepareForDisplay(tt.input); got != tt.want {
			t.Errorf("PrepareForDisplay(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
