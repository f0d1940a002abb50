// Package search builds the normalized token set that backs free-text ticket
// lookup. Tokens are derived from customer identity and sale fields and rebuilt
// whenever one of those fields changes.
package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a term and strips diacritics so that "João" and "joao"
// match the same token.
func Normalize(term string) string {
	lowered := strings.ToLower(strings.TrimSpace(term))
	stripped, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

// DigitsOnly keeps the numeric characters of phone and document values.
func DigitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TokenFields are the ticket attributes that participate in free-text search.
type TokenFields struct {
	CustomerName     string
	CustomerPhone    string
	CustomerDocument string
	SaleNumber       string
}

// BuildTokens produces the deduplicated, sorted token set for a ticket: each word
// of the customer name normalized, plus digit-only phone/document values and the
// sale number.
func BuildTokens(fields TokenFields) []string {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(fields.CustomerName) {
		if tok := Normalize(word); tok != "" {
			set[tok] = struct{}{}
		}
	}
	if tok := DigitsOnly(fields.CustomerPhone); tok != "" {
		set[tok] = struct{}{}
	}
	if tok := DigitsOnly(fields.CustomerDocument); tok != "" {
		set[tok] = struct{}{}
	}
	if tok := Normalize(fields.SaleNumber); tok != "" {
		set[tok] = struct{}{}
	}

	tokens := make([]string, 0, len(set))
	for tok := range set {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// MatchToken reports whether a search term hits the precomputed token set. Terms
// that look like phone or document input are compared by digits as well.
func MatchToken(tokens []string, term string) bool {
	normalized := Normalize(term)
	digits := DigitsOnly(term)
	for _, tok := range tokens {
		if tok == normalized {
			return true
		}
		if digits != "" && tok == digits {
			return true
		}
	}
	return false
}
