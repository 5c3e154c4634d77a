package models

import "strings"

// Symbol identifies a financial instrument as entered by the user (e.g. "AAPL").
type Symbol string

// NormalizeSymbol uppercases raw input. Whitespace is preserved so that the
// input field echoes exactly what was typed; use Trimmed before sending.
func NormalizeSymbol(raw string) Symbol {
	return Symbol(strings.ToUpper(raw))
}

// Trimmed returns the symbol without surrounding whitespace.
func (s Symbol) Trimmed() Symbol {
	return Symbol(strings.TrimSpace(string(s)))
}

// IsEmpty reports whether the symbol is empty or whitespace-only.
func (s Symbol) IsEmpty() bool {
	return s.Trimmed() == ""
}

// String returns the symbol text.
func (s Symbol) String() string {
	return string(s)
}
