// Package htmlsanitize cleans admin-entered rich text (event and project
// descriptions, page intros, the site footer) with bluemonday.
package htmlsanitize

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richOnce sync.Once
	rich     *bluemonday.Policy

	stripOnce sync.Once
	strict    *bluemonday.Policy
)

func richPolicy() *bluemonday.Policy {
	richOnce.Do(func() {
		rich = bluemonday.UGCPolicy()
		rich.AllowElements("u", "s", "sub", "sup", "mark", "figure", "figcaption")
		rich.AllowAttrs("loading").Matching(bluemonday.SpaceSeparatedTokens).OnElements("img")
		rich.RequireNoReferrerOnLinks(true)
		rich.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return rich
}

func strictPolicy() *bluemonday.Policy {
	stripOnce.Do(func() { strict = bluemonday.StrictPolicy() })
	return strict
}

// Sanitize removes unsafe markup from html and keeps ordinary formatting.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return richPolicy().Sanitize(html)
}

// SanitizeToHTML sanitizes html and marks the result safe for templates.
func SanitizeToHTML(html string) template.HTML {
	return template.HTML(Sanitize(html))
}

// StripTags removes every tag and returns plain text, for summaries and
// email bodies.
func StripTags(html string) string {
	return strings.TrimSpace(strictPolicy().Sanitize(html))
}

// IsPlainText reports whether content has no markup.
func IsPlainText(content string) bool {
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}

// PlainTextToHTML escapes text and turns blank-line separated blocks into
// paragraphs and single newlines into <br>.
func PlainTextToHTML(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(template.HTMLEscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// PrepareForDisplay renders content that may be plain text or HTML.
func PrepareForDisplay(content string) template.HTML {
	if content == "" {
		return ""
	}
	if IsPlainText(content) {
		return template.HTML(PlainTextToHTML(content))
	}
	return SanitizeToHTML(content)
}
