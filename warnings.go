package hanmerge

import "strings"

// Warning describes a non-fatal condition encountered during a merge:
// a dropped row, an unmatched table, an attachment that could not be
// processed. Warnings never stop the merge.
type Warning struct {
	// Source names the input document or component the warning came from.
	Source string

	// Message is a human-readable description.
	Message string
}

// String returns the warning as "source: message".
func (w Warning) String() string {
	if w.Source == "" {
		return w.Message
	}
	return w.Source + ": " + w.Message
}

// FormatWarnings joins warnings into a newline-separated string for display.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "\n")
}
