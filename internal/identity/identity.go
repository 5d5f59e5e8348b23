// Package identity builds the barcode payloads: a base ID followed by a
// zero-padded three digit sequence number.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SequenceWidth is the fixed number of digits of the sequence part.
const SequenceWidth = 3

// MaxSequence is the largest sequence number that fits SequenceWidth.
const MaxSequence = 999

var (
	ErrSequenceOverflow = errors.New("sequence number out of range")
	ErrInvalidCategory  = errors.New("category must be between 1 and 4")
)

// Derive returns base followed by n padded to three digits.
func Derive(base string, n int) (string, error) {
	if n < 0 || n > MaxSequence {
		return "", fmt.Errorf("%w: %d (allowed 0-%d)", ErrSequenceOverflow, n, MaxSequence)
	}
	return fmt.Sprintf("%s%0*d", base, SequenceWidth, n), nil
}

// CheckRange verifies that pages consecutive numbers starting at start all
// fit the sequence field.
func CheckRange(start, pages int) error {
	if pages <= 0 {
		return nil
	}
	if start < 0 {
		return fmt.Errorf("%w: start %d", ErrSequenceOverflow, start)
	}
	if last := start + pages - 1; last > MaxSequence {
		return fmt.Errorf("%w: %d pages from %d would reach %d", ErrSequenceOverflow, pages, start, last)
	}
	return nil
}

// BaseID builds the base from the day and month, the last digit of the year
// and the category: 16 Oct 2026 in category 2 gives "161062".
func BaseID(t time.Time, category int) (string, error) {
	if category < 1 || category > 4 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidCategory, category)
	}
	date := t.Format("020106")
	return date[:4] + date[len(date)-1:] + strconv.Itoa(category), nil
}

// ParseCategory validates user input for a category.
func ParseCategory(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return n, nil
}

// Sequence returns the sequence number of id if it was issued under base.
func Sequence(id, base string) (int, bool) {
	if !strings.HasPrefix(id, base) {
		return 0, false
	}
	tail := id[len(base):]
	if len(tail) < SequenceWidth {
		return 0, false
	}
	n, err := strconv.Atoi(tail[len(tail)-SequenceWidth:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SuggestStart returns the number after the last issued identity when it
// belongs to base, otherwise 1.
func SuggestStart(last, base string) int {
	if last == "" {
		return 1
	}
	n, ok := Sequence(last, base)
	if !ok {
		return 1
	}
	return n + 1
}

// ParseStart reads a user-supplied start number, falling back to def when
// the input is empty or not a number.
func ParseStart(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
