// Package sanitize normalizes and validates untrusted input before it is
// used in a query or stored. Text returns a best-effort safe string and
// never fails; the typed validators (Email, Username, Password, Amount,
// Phone) reject input that violates their format contract.
//
// The denylist substitution in Text is defense-in-depth for display
// safety. It is NOT the SQL-injection boundary: every repository query is
// parameterized, and that is the durable defense.
package sanitize

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/steveraffner/epicevents/internal/apperror"
)

// DefaultMaxLength is the truncation limit applied by Text when the
// caller passes maxLen <= 0.
const DefaultMaxLength = 255

// Validation patterns. Email requires a final label of at least two
// letters; username allows 3-50 word characters or hyphens; phone allows
// digits plus common separators, 8-20 characters total.
var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)
	phonePattern    = regexp.MustCompile(`^[0-9\s\-\+\(\)\.]{8,20}$`)
)

// dangerousTokens are substrings replaced (case-insensitively) with "_"
// by Text: SQL comment markers, statement terminators, quotes, path
// separators, and stored-procedure prefixes. Matched after HTML escaping
// so entity forms cannot reconstruct a denylisted token.
var dangerousTokens = []string{"--", "/*", "*/", ";", "'", `"`, `\`, "/", "xp_", "sp_"}

// dangerousPatterns holds one case-insensitive matcher per denylist
// token, compiled once at init.
var dangerousPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(dangerousTokens))
	for i, tok := range dangerousTokens {
		patterns[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(tok))
	}
	return patterns
}()

// Text returns a best-effort sanitized copy of value. It trims
// surrounding whitespace, truncates to at most maxLen bytes on a rune
// boundary (DefaultMaxLength when maxLen <= 0), strips ASCII control
// characters, HTML-escapes the result,
// and replaces denylisted substrings with "_".
//
// The ordering is load-bearing: truncation before escaping prevents a
// length bypass via entity expansion, and escaping before denylist
// substitution means entity forms cannot smuggle a denylisted token
// through. Text never fails; callers that need strict rejection use the
// typed validators.
func Text(value string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	value = strings.TrimSpace(value)

	if len(value) > maxLen {
		// Back the cut up to a rune boundary so a multi-byte character is
		// dropped whole rather than leaving an invalid tail.
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}

	// Strip control characters, keeping the usual whitespace.
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= 32 || r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
		}
	}
	value = b.String()

	value = html.EscapeString(value)

	for _, p := range dangerousPatterns {
		value = p.ReplaceAllString(value, "_")
	}

	return value
}

// Email validates an email address. The local part allows alphanumerics
// and ". _ % + -", the domain allows alphanumerics, dots and hyphens,
// and the final label must be at least two letters. The address is
// trimmed but its case is preserved.
func Email(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.NewValidation("email cannot be empty")
	}
	if len(value) > DefaultMaxLength {
		return "", apperror.NewValidation("email is too long (max 255 characters)")
	}
	if !emailPattern.MatchString(value) {
		return "", apperror.NewValidation("invalid email format")
	}
	return value, nil
}

// Username validates a collaborator username: 3-50 characters, letters,
// digits, underscores or hyphens.
func Username(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.NewValidation("username cannot be empty")
	}
	if !usernamePattern.MatchString(value) {
		return "", apperror.NewValidation("username must be 3-50 characters: letters, digits, underscores or hyphens")
	}
	return value, nil
}

// Password validates password strength: at least 8 characters (at most
// 128) with one uppercase letter, one lowercase letter and one digit.
// The password is returned unmodified. It is hashed, never displayed or
// stored as text, so it must not be escaped.
func Password(value string) (string, error) {
	if value == "" {
		return "", apperror.NewValidation("password cannot be empty")
	}
	if len(value) < 8 {
		return "", apperror.NewValidation("password must be at least 8 characters")
	}
	if len(value) > 128 {
		return "", apperror.NewValidation("password is too long (max 128 characters)")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return "", apperror.NewValidation("password must contain at least one uppercase letter, one lowercase letter and one digit")
	}

	return value, nil
}

// maxAmount is the largest accepted monetary value.
const maxAmount = 999_999_999.99

// Amount validates and converts a monetary amount. A comma decimal
// separator is accepted. Negative and non-numeric values are rejected;
// the result is rounded to two decimals.
func Amount(value string) (float64, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, apperror.NewValidation("invalid amount format")
	}
	if amount < 0 {
		return 0, apperror.NewValidation("amount cannot be negative")
	}
	if amount > maxAmount {
		return 0, apperror.NewValidation(fmt.Sprintf("amount cannot exceed %.2f", maxAmount))
	}
	return math.Round(amount*100) / 100, nil
}

// Phone validates a phone number: 8-20 characters of digits and the
// separators "+ - ( ) ." or spaces. An empty phone is accepted, the
// field is optional on client records.
func Phone(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if !phonePattern.MatchString(value) {
		return "", apperror.NewValidation("invalid phone format (8-20 characters, digits and + - ( ) . space)")
	}
	return value, nil
}

// EscapeLike escapes the SQL LIKE wildcards "%" and "_" (and the escape
// character itself) so user input used in a contains-search cannot widen
// the match.
func EscapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return value
}

// strict is the singleton bluemonday policy used by StripMarkup.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	strictPolicy *bluemonday.Policy
	strictOnce   sync.Once
)

// StripMarkup removes every HTML element from stored free text before it
// is rendered back to the terminal. Stored values are already escaped by
// Text; this guards output paths fed from older or external rows.
func StripMarkup(value string) string {
	if value == "" {
		return ""
	}
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy.Sanitize(value)
}
