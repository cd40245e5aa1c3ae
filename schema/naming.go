package schema

import "strings"

// defaultTableName converts an entity name to a table name (snake_case plural)
func defaultTableName(entityName string) string {
	return pluralize(toSnakeCase(entityName))
}

// toSnakeCase converts a string to snake_case
func toSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			if prev >= 'a' && prev <= 'z' {
				result = append(result, '_')
			} else if i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}
	return string(result)
}

// pluralize adds simple pluralization
func pluralize(s string) string {
	if strings.HasSuffix(s, "s") ||
		strings.HasSuffix(s, "x") ||
		strings.HasSuffix(s, "z") {
		return s + "es"
	}
	if strings.HasSuffix(s, "y") && !hasVowelBefore(s, len(s)-1) {
		return s[:len(s)-1] + "ies"
	}
	return s + "s"
}

// hasVowelBefore reports whether the rune before index i is a vowel
func hasVowelBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	return strings.ContainsRune("aeiou", rune(s[i-1]))
}

// lowerCamel lowercases the first rune of a PascalCase name
func lowerCamel(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	if runes[0] >= 'A' && runes[0] <= 'Z' {
		runes[0] += 'a' - 'A'
	}
	return string(runes)
}
