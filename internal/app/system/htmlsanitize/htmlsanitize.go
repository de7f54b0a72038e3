// Package htmlsanitize cleans admin-authored rich text (event descriptions,
// the site footer) before it is stored or rendered.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func richText() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "mark")
		p.AllowAttrs("class").OnElements("p", "span", "div", "table", "tr", "td", "th")
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers and unsafe URLs, keeping
// formatting, lists, links, tables and images.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richText().Sanitize(s)
}

// SanitizeToHTML sanitizes s and marks the result safe for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s has no markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and turns newlines into <br> inside a paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay renders stored text: plain text is escaped and wrapped,
// markup is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
