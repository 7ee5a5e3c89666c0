// Package markup converts the lightweight markup dialect returned by the
// completion providers into HTML for the chat page.
//
// Conversion is a fixed sequence of text-to-text rules. Later rules must not
// re-match HTML produced by earlier ones, so the order of Rules matters.
package markup

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Rule is a single rewrite pass.
type Rule struct {
	Name  string
	Apply func(string) string
}

// Rules is the ordered rewrite pipeline used by ToHTML.
var Rules = []Rule{
	{Name: "escape", Apply: Escape},
	{Name: "fenced_code", Apply: FencedCode},
	{Name: "inline_code", Apply: InlineCode},
	{Name: "headers", Apply: Headers},
	{Name: "bold", Apply: Bold},
	{Name: "italic", Apply: Italic},
	{Name: "lists", Apply: Lists},
	{Name: "paragraphs", Apply: Paragraphs},
}

// ToHTML renders text through every rule in order. Empty input yields "".
func ToHTML(text string) string {
	if text == "" {
		return ""
	}
	for _, rule := range Rules {
		text = rule.Apply(text)
	}
	return text
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape neutralises the three HTML-significant characters.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

var (
	fencedRe    = regexp2.MustCompile("```([\\s\\S]*?)```", regexp2.None)
	inlineRe    = regexp2.MustCompile("`([^`]+)`", regexp2.None)
	boldRe      = regexp2.MustCompile(`\*\*(.*?)\*\*`, regexp2.None)
	italicRe    = regexp2.MustCompile(`\*(.*?)\*`, regexp2.None)
	listItemRe  = regexp2.MustCompile(`^\s*-\s+(.*)$`, regexp2.Multiline)
	listWrapRe  = regexp2.MustCompile(`(<li>.*?</li>)`, regexp2.Singleline)
	listJoinRe  = regexp2.MustCompile(`</ul>(\n?)<ul>`, regexp2.None)
	paragraphRe = regexp2.MustCompile(`(^|\n)(?!<h|<ul|<pre|<li|<code|<strong|<em)(.+?)(?=\n|$)`, regexp2.None)

	// headerRes is ordered from six hashes down to one.
	headerRes = buildHeaderRes()
)

func buildHeaderRes() []*regexp2.Regexp {
	res := make([]*regexp2.Regexp, 0, 6)
	for level := 6; level >= 1; level-- {
		res = append(res, regexp2.MustCompile("^"+strings.Repeat("#", level)+" (.*$)", regexp2.Multiline))
	}
	return res
}

// FencedCode turns ```-delimited blocks into <pre><code>. Newlines inside the
// block become &#10; so the line-oriented rules that follow leave it alone.
func FencedCode(s string) string {
	return replaceFunc(fencedRe, s, func(m regexp2.Match) string {
		code := strings.TrimSpace(m.GroupByNumber(1).String())
		code = strings.ReplaceAll(code, "\n", "&#10;")
		return "<pre><code>" + code + "</code></pre>"
	})
}

// InlineCode turns `x` into <code>x</code>.
func InlineCode(s string) string {
	return replace(inlineRe, s, "<code>$1</code>")
}

// Headers turns "# x" .. "###### x" lines into <h1>..<h6>.
func Headers(s string) string {
	for i, re := range headerRes {
		tag := "h" + strconv.Itoa(6-i)
		s = replace(re, s, "<"+tag+">$1</"+tag+">")
	}
	return s
}

// Bold turns **x** into <strong>x</strong>.
func Bold(s string) string {
	return replace(boldRe, s, "<strong>$1</strong>")
}

// Italic turns *x* into <em>x</em>.
func Italic(s string) string {
	return replace(italicRe, s, "<em>$1</em>")
}

// Lists turns "- x" lines into list items and wraps each contiguous run of
// items in a single <ul>.
func Lists(s string) string {
	s = replace(listItemRe, s, "<li>$1</li>")
	s = replace(listWrapRe, s, "<ul>$1</ul>")
	return replace(listJoinRe, s, "$1")
}

// Paragraphs wraps every line that does not already start with a block or
// inline tag in <p>.
func Paragraphs(s string) string {
	return replace(paragraphRe, s, "<p>$2</p>")
}

// replace applies re to every match in s. regexp2 only errors on a match
// timeout, and none is configured; the input is returned unchanged if it does.
func replace(re *regexp2.Regexp, s, repl string) string {
	out, err := re.Replace(s, repl, -1, -1)
	if err != nil {
		return s
	}
	return out
}

func replaceFunc(re *regexp2.Regexp, s string, fn regexp2.MatchEvaluator) string {
	out, err := re.ReplaceFunc(s, fn, -1, -1)
	if err != nil {
		return s
	}
	return out
}
