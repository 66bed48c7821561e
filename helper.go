// FILE: lixenwraith/settings/helper.go
package settings

import (
	"strings"
	"unicode"
)

// classSuffix is stripped from a settings type name to form its env prefix.
const classSuffix = "Settings"

// Prefix derives the environment variable prefix of a settings class name.
// "SmtpSettings" becomes "SMTP_".
func Prefix(className string) string {
	return strings.ToUpper(strings.TrimSuffix(className, classSuffix)) + "_"
}

// EnvVarName returns the conventional variable name for a field key of a class.
// EnvVarName("SmtpSettings", "fromEmail") returns "SMTP_FROM_EMAIL".
func EnvVarName(className, key string) string {
	return Prefix(className) + upperSnake(key)
}

// lowerCamel converts an exported Go identifier into its camelCase field key.
// A leading acronym is lowered as a unit: "APIKey" -> "apiKey", "URL" -> "url".
func lowerCamel(name string) string {
	runes := []rune(name)
	run := 0
	for run < len(runes) && unicode.IsUpper(runes[run]) {
		run++
	}

	switch {
	case run == 0:
		return name
	case run == len(runes):
		return strings.ToLower(name)
	case run == 1:
		runes[0] = unicode.ToLower(runes[0])
	default:
		// The last upper-case rune starts the next word
		for i := 0; i < run-1; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	}
	return string(runes)
}

// upperSnake converts a camelCase key into UPPER_SNAKE_CASE.
func upperSnake(key string) string {
	runes := []rune(key)
	var b strings.Builder
	b.Grow(len(runes) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// camelCase converts an UPPER_SNAKE_CASE remainder into a camelCase key.
func camelCase(snake string) string {
	parts := strings.FieldsFunc(snake, func(r rune) bool { return r == '_' || r == '-' })

	var b strings.Builder
	for i, part := range parts {
		lower := strings.ToLower(part)
		if i == 0 {
			b.WriteString(lower)
			continue
		}
		runes := []rune(lower)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// isValidKeySegment checks if a registry key is a plain identifier.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isUnderscore := r == '_'
		isDash := r == '-'

		if !(isLetter || isDigit || isUnderscore || isDash) {
			return false
		}
	}
	return true
}
