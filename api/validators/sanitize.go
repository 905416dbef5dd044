package validators

import "strings"

// CleanText trims s and collapses runs of whitespace into single spaces, so
// remarks and payee names are stored the way they are displayed.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanOptional applies CleanText and maps blank values to nil.
func CleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := CleanText(*s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
