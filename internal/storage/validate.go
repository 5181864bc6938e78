package storage

import (
	"fmt"
	"unicode/utf8"
)

// Field size limits enforced at the storage boundary. Oversized input is
// rejected with ErrValidation before any write.
const (
	// MaxTitleChars bounds titles, names, and single list items.
	MaxTitleChars = 500

	// MaxTextChars bounds descriptions, rationales, and the active context.
	MaxTextChars = 5_000

	// MaxNoteChars bounds free-form note content.
	MaxNoteChars = 50_000

	// MaxListItems bounds goals, technologies, learnings, and challenges.
	MaxListItems = 50
)

// CheckRequired validates that a required string field is non-empty and
// within the given rune limit.
func CheckRequired(field, value string, max int) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	return CheckText(field, value, max)
}

// CheckText validates that an optional string field is within the given
// rune limit.
func CheckText(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return fmt.Errorf("%w: %s exceeds %d characters (got %d)", ErrValidation, field, max, n)
	}
	return nil
}

// CheckList validates a list field: at most MaxListItems entries, each
// non-empty and within MaxTitleChars runes.
func CheckList(field string, items []string) error {
	if len(items) > MaxListItems {
		return fmt.Errorf("%w: %s exceeds %d items (got %d)", ErrValidation, field, MaxListItems, len(items))
	}
	for i, item := range items {
		if item == "" {
			return fmt.Errorf("%w: %s[%d] is empty", ErrValidation, field, i)
		}
		if err := CheckText(fmt.Sprintf("%s[%d]", field, i), item, MaxTitleChars); err != nil {
			return err
		}
	}
	return nil
}
