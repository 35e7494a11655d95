package ui

import (
	"regexp"
)

// The substitution set is deliberately minimal: bold, italic, links, inline
// code, and line breaks. No nesting, no escaping; this mirrors what the
// backend actually emits.
var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
	linkPattern   = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	codePattern   = regexp.MustCompile("`(.*?)`")
)

// StyleSet holds the text decorations the formatter applies. Keeping them as
// plain functions lets the terminal adapter supply lipgloss styles while
// tests supply visible markers.
type StyleSet struct {
	Bold   func(string) string
	Italic func(string) string
	Link   func(text, url string) string
	Code   func(string) string
}

// PlainStyles formats without any decoration; links keep their target.
func PlainStyles() StyleSet {
	identity := func(s string) string { return s }
	return StyleSet{
		Bold:   identity,
		Italic: identity,
		Link:   func(text, url string) string { return text + " (" + url + ")" },
		Code:   identity,
	}
}

// FormatMessage renders a bot message. When rich is false, or the message
// came from the user, the text passes through untouched. The bold pass runs
// before the italic pass so double asterisks are never half-consumed.
func FormatMessage(text string, fromUser, rich bool, styles StyleSet) string {
	if fromUser || !rich {
		return text
	}
	out := boldPattern.ReplaceAllStringFunc(text, func(m string) string {
		return styles.Bold(boldPattern.FindStringSubmatch(m)[1])
	})
	out = italicPattern.ReplaceAllStringFunc(out, func(m string) string {
		return styles.Italic(italicPattern.FindStringSubmatch(m)[1])
	})
	out = linkPattern.ReplaceAllStringFunc(out, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		return styles.Link(sub[1], sub[2])
	})
	out = codePattern.ReplaceAllStringFunc(out, func(m string) string {
		return styles.Code(codePattern.FindStringSubmatch(m)[1])
	})
	// The browser turned newlines into <br>; the terminal renders them
	// as line breaks already.
	return out
}
