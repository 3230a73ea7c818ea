// Package batch encodes and decodes the comma-delimited value lists accepted
// by the catalog lookup.
//
// A batch is a single string holding a set of values joined by Delimiter.
// It may be at most MaxLength characters long, values may not be empty,
// a value can never contain the delimiter since it could not be split back
// out unambiguously, and values may not start or end with whitespace.
//
// The length limit applies to the batch as given, before values are
// NFC-normalized.
package batch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/franz/music-catalog/internal/util"
)

const (
	// Delimiter separates values inside a batch
	Delimiter = ","

	// MaxLength is the maximum encoded batch length in characters
	MaxLength = 500
)

// InputError describes why a batch argument was rejected
type InputError struct {
	Reason string
	Value  string
}

func (e *InputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid batch input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid batch input: %s: %q", e.Reason, e.Value)
}

// Is makes InputError match util.ErrInvalidBatchInput
func (e *InputError) Is(target error) bool {
	return target == util.ErrInvalidBatchInput
}

// Parse splits a delimited batch into its deduplicated values, keeping the
// order of first occurrence. An empty string is an empty set.
func Parse(s string) ([]string, error) {
	if n := utf8.RuneCountInString(s); n > MaxLength {
		return nil, &InputError{Reason: fmt.Sprintf("batch is %d characters, limit is %d", n, MaxLength)}
	}
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, Delimiter)
	values := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for i, part := range parts {
		if part == "" {
			return nil, &InputError{Reason: fmt.Sprintf("empty value at position %d", i+1)}
		}
		if strings.TrimSpace(part) != part {
			return nil, &InputError{Reason: fmt.Sprintf("surrounding whitespace at position %d", i+1), Value: part}
		}
		v := util.NormalizeText(part)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}

	return values, nil
}

// Encode joins values into a single batch, dropping duplicates.
// Values containing the delimiter and empty values are rejected.
func Encode(values []string) (string, error) {
	clean, err := dedupe(values)
	if err != nil {
		return "", err
	}

	s := strings.Join(clean, Delimiter)
	if n := utf8.RuneCountInString(s); n > MaxLength {
		return "", &InputError{Reason: fmt.Sprintf("encoded batch is %d characters, limit is %d", n, MaxLength)}
	}
	return s, nil
}

// Chunk packs values into as few batches as possible, each encoding to at
// most limit characters. Order of first occurrence is preserved.
func Chunk(values []string, limit int) ([]string, error) {
	if limit <= 0 || limit > MaxLength {
		limit = MaxLength
	}

	clean, err := dedupe(values)
	if err != nil {
		return nil, err
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, v := range clean {
		n := utf8.RuneCountInString(v)
		if n > limit {
			return nil, &InputError{Reason: fmt.Sprintf("value is %d characters, batch limit is %d", n, limit), Value: v}
		}

		extra := n
		if currentLen > 0 {
			extra++ // delimiter
		}
		if currentLen+extra > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
			extra = n
		}

		if currentLen > 0 {
			current.WriteString(Delimiter)
		}
		current.WriteString(v)
		currentLen += extra
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks, nil
}

func dedupe(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, raw := range values {
		if raw == "" {
			return nil, &InputError{Reason: "empty value"}
		}
		if strings.Contains(raw, Delimiter) {
			return nil, &InputError{Reason: "value contains the delimiter", Value: raw}
		}
		if strings.TrimSpace(raw) != raw {
			return nil, &InputError{Reason: "surrounding whitespace", Value: raw}
		}
		v := util.NormalizeText(raw)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out, nil
}
