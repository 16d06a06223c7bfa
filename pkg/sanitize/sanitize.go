// Package sanitize cleans author-supplied markup (section descriptions and
// rich-text answers) before it is displayed or stored.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans a markup fragment.
type Sanitizer interface {
	Sanitize(raw string) string
}

// Func adapts a function to Sanitizer.
type Func func(raw string) string

// Sanitize implements Sanitizer.
func (f Func) Sanitize(raw string) string { return f(raw) }

var (
	richTextPolicyOnce sync.Once
	richTextPolicy     *bluemonday.Policy

	plainTextPolicyOnce sync.Once
	plainTextPolicy     *bluemonday.Policy
)

// RichText keeps basic formatting, lists, links and headings and strips
// everything else (scripts, styles, event handlers, iframes).
func RichText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(richTextSanitizer().Sanitize(trimmed))
}

// PlainText strips all markup and returns readable text suitable for a
// terminal. Block-level boundaries become line breaks.
func PlainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	withBreaks := blockBoundary.ReplaceAllString(trimmed, "\n")
	stripped := plainTextSanitizer().Sanitize(withBreaks)
	text := html.UnescapeString(stripped)

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// Default is the rich-text sanitizer used by sessions.
var Default Sanitizer = Func(RichText)

// Plain is the markup-stripping sanitizer used by terminal prompts.
var Plain Sanitizer = Func(PlainText)

var blockBoundary = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/li|/h[1-6]|/tr)\s*>`)

func richTextSanitizer() *bluemonday.Policy {
	richTextPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"p", "br", "b", "strong", "i", "em", "u", "s", "code", "pre",
			"blockquote", "ul", "ol", "li", "h1", "h2", "h3", "h4", "h5", "h6",
			"span", "div", "hr",
		)
		policy.AllowStandardURLs()
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		policy.AllowAttrs("class").OnElements("span", "div", "p", "code")
		richTextPolicy = policy
	})
	return richTextPolicy
}

func plainTextSanitizer() *bluemonday.Policy {
	plainTextPolicyOnce.Do(func() {
		plainTextPolicy = bluemonday.StrictPolicy()
	})
	return plainTextPolicy
}
