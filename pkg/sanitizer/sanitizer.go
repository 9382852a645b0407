// Package sanitizer normalizes inbound contact fields before validation.
package sanitizer

import (
	"strings"
	"unicode"
)

// Strategy transforms a string; strategies compose into pipelines.
type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// TrimAndCollapse trims leading/trailing whitespace and collapses internal
// whitespace runs to a single space.
func TrimAndCollapse(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}
	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndCollapse(name)
}

func NormalizeEmail(email string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToLower,
	}
	return p.Apply(email)
}

// NormalizePromoCode uppercases a code and strips all whitespace; promo
// codes are matched case-insensitively and stored uppercase.
func NormalizePromoCode(code string) string {
	p := Pipeline{
		TrimAndCollapse,
		func(s string) string { return strings.ReplaceAll(s, " ", "") },
		strings.ToUpper,
	}
	return p.Apply(code)
}
