package session

import "github.com/bobmcallan/tahlil-portal/internal/models"

// Input holds the symbol text as currently typed. Every update is
// normalized to uppercase; validation is deferred to Submit.
type Input struct {
	value models.Symbol
}

// Set normalizes raw and stores it.
func (i *Input) Set(raw string) models.Symbol {
	i.value = models.NormalizeSymbol(raw)
	return i.value
}

// Value returns the current symbol for display.
func (i *Input) Value() models.Symbol {
	return i.value
}
