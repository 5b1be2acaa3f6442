package dialect

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxRegexLength  = 500
	maxRegexGroups  = 20
	maxRegexNesting = 10
)

var (
	inlineFlagRE  = regexp.MustCompile(`^\(\?i\)`)
	lookaroundRE  = regexp.MustCompile(`\(\?[!=<]`)
	namedGroupRE  = regexp.MustCompile(`\(\?P<`)
	otherFlagRE   = regexp.MustCompile(`\(\?[imsx]`)
	nestedQuantRE = regexp.MustCompile(`\([^)]*[+*?]\)[+*?]`)
	quantAltRE    = regexp.MustCompile(`\([^)]*\|[^)]*\)[+*?]`)
	nonCapGroupRE = regexp.MustCompile(`\(\?:`)
)

var shorthandClasses = []struct {
	from string
	to   string
}{
	{`\d`, `[[:digit:]]`},
	{`\D`, `[^[:digit:]]`},
	{`\w`, `[[:alnum:]_]`},
	{`\W`, `[^[:alnum:]_]`},
	{`\s`, `[[:space:]]`},
	{`\S`, `[^[:space:]]`},
	{`\b`, `\y`},
	{`\B`, `\Y`},
}

// convertRE2ToPOSIX translates an RE2-syntax pattern into POSIX ERE,
// rejecting constructs POSIX ERE cannot express (lookaround, named groups,
// inline flags other than a leading case-insensitive marker) and constructs
// that admit catastrophic backtracking on engines that do backtrack
// (nested quantifiers, quantified alternation), then converts Perl-style
// shorthand classes and non-capturing groups to their POSIX equivalents.
// Used by the PostgreSQL dialect, whose regex operators only understand
// POSIX ERE.
func convertRE2ToPOSIX(pattern string) (string, bool, error) {
	if len(pattern) > maxRegexLength {
		return "", false, fmt.Errorf("%w: pattern exceeds %d characters", ErrUnsupportedFeature, maxRegexLength)
	}

	if strings.ContainsRune(pattern, 0) {
		return "", false, fmt.Errorf("%w: pattern contains a null byte", ErrUnsupportedFeature)
	}

	caseInsensitive := false

	if inlineFlagRE.MatchString(pattern) {
		caseInsensitive = true
		pattern = pattern[len("(?i)"):]
	}

	if lookaroundRE.MatchString(pattern) {
		return "", false, fmt.Errorf("%w: lookahead/lookbehind is not supported", ErrUnsupportedFeature)
	}

	if namedGroupRE.MatchString(pattern) {
		return "", false, fmt.Errorf("%w: named capture groups are not supported", ErrUnsupportedFeature)
	}

	if otherFlagRE.MatchString(pattern) {
		return "", false, fmt.Errorf("%w: inline flags other than (?i) are not supported", ErrUnsupportedFeature)
	}

	if nestedQuantRE.MatchString(pattern) {
		return "", false, fmt.Errorf("%w: nested quantifiers are rejected to avoid catastrophic backtracking", ErrUnsupportedFeature)
	}

	if quantAltRE.MatchString(pattern) {
		return "", false, fmt.Errorf("%w: quantified alternation is rejected to avoid catastrophic backtracking", ErrUnsupportedFeature)
	}

	if depth := maxGroupNestingDepth(pattern); depth > maxRegexNesting {
		return "", false, fmt.Errorf("%w: group nesting exceeds %d levels", ErrUnsupportedFeature, maxRegexNesting)
	}

	groupCount := strings.Count(pattern, "(") - strings.Count(pattern, "(?:")
	if groupCount > maxRegexGroups {
		return "", false, fmt.Errorf("%w: pattern has more than %d capture groups", ErrUnsupportedFeature, maxRegexGroups)
	}

	for _, sc := range shorthandClasses {
		pattern = strings.ReplaceAll(pattern, sc.from, sc.to)
	}

	pattern = nonCapGroupRE.ReplaceAllString(pattern, "(")

	return pattern, caseInsensitive, nil
}

// convertRE2ToMySQL validates an RE2-syntax pattern for MySQL 8's ICU-backed
// REGEXP operator. ICU regex covers nearly all of RE2's surface including
// lookaround and named groups, so this is a validation pass rather than a
// rewrite: only the length, null-byte and group-nesting guards apply and the leading
// case-insensitive marker is split out, since WriteRegexMatch re-attaches it
// itself. Reflects each engine's actual regex support: POSIX-strict
// Postgres, ICU-native MySQL, and SQLite (no native support at all).
func convertRE2ToMySQL(pattern string) (string, bool, error) {
	if len(pattern) > maxRegexLength {
		return "", false, fmt.Errorf("%w: pattern exceeds %d characters", ErrUnsupportedFeature, maxRegexLength)
	}

	if strings.ContainsRune(pattern, 0) {
		return "", false, fmt.Errorf("%w: pattern contains a null byte", ErrUnsupportedFeature)
	}

	caseInsensitive := false

	if inlineFlagRE.MatchString(pattern) {
		caseInsensitive = true
		pattern = pattern[len("(?i)"):]
	}

	if depth := maxGroupNestingDepth(pattern); depth > maxRegexNesting {
		return "", false, fmt.Errorf("%w: group nesting exceeds %d levels", ErrUnsupportedFeature, maxRegexNesting)
	}

	return pattern, caseInsensitive, nil
}

// convertRE2ToRE2Native validates an RE2-syntax pattern for engines whose
// native regex functions already speak RE2 (DuckDB's regexp_matches, BigQuery's
// REGEXP_CONTAINS). No rewriting is needed; only the shared resource guards
// apply and the case-insensitive marker is split out for the caller to
// re-attach in whatever form its function signature expects.
func convertRE2ToRE2Native(pattern string) (string, bool, error) {
	if len(pattern) > maxRegexLength {
		return "", false, fmt.Errorf("%w: pattern exceeds %d characters", ErrUnsupportedFeature, maxRegexLength)
	}

	if strings.ContainsRune(pattern, 0) {
		return "", false, fmt.Errorf("%w: pattern contains a null byte", ErrUnsupportedFeature)
	}

	caseInsensitive := false

	if inlineFlagRE.MatchString(pattern) {
		caseInsensitive = true
		pattern = pattern[len("(?i)"):]
	}

	return pattern, caseInsensitive, nil
}

func maxGroupNestingDepth(pattern string) int {
	depth, max := 0, 0

	for _, r := range pattern {
		switch r {
		case '(':
			depth++
			if depth > max {
				max = depth
			}
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}

	return max
}
