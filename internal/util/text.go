package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText returns s in Unicode NFC form.
// Filenames coming from macOS filesystems are usually NFD; the catalog
// stores and matches NFC so "Dvořák" typed on any platform finds the row.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}

// NormalizeOptional normalizes a pointer value and maps blank strings to nil
func NormalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := NormalizeText(*s)
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
