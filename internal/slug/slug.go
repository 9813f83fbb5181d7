// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings
// and the numeric-suffix loop that keeps slugs unique.
package slug

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonSlugChars matches anything that isn't a letter, digit, separator, or whitespace.
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s_-]`)
	// separators collapses whitespace, underscores and hyphen runs into one hyphen.
	separators = regexp.MustCompile(`[\s_-]+`)
)

// Generate creates a URL-friendly slug from the given string. Diacritics are
// folded to their base letters and everything outside [a-z0-9-] is dropped.
// The result may be empty when the input has no usable characters.
// Example: "Crème Brûlée, 2026!" → "creme-brulee-2026"
func Generate(s string) string {
	// A Chain keeps internal state, so build a fresh one per call.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(fold, s)
	if err != nil {
		result = s
	}

	result = strings.ToLower(result)
	result = nonSlugChars.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Or returns s, or fallback when s is empty.
func Or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// EnsureUnique returns candidate if it is free, otherwise the first of
// candidate-1, candidate-2, ... that exists reports as free.
func EnsureUnique(ctx context.Context, candidate string, exists ExistsFunc) (string, error) {
	next := candidate
	for i := 1; ; i++ {
		taken, err := exists(ctx, next)
		if err != nil {
			return "", err
		}
		if !taken {
			return next, nil
		}
		next = candidate + "-" + strconv.Itoa(i)
	}
}

// Valid reports whether s is a well-formed slug: non-empty lowercase
// alphanumerics separated by single hyphens.
func Valid(s string) bool {
	return validSlug.MatchString(s)
}

var validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
