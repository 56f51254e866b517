package core

import "strings"

// legacyMapping routes old flat category tags into the hierarchical
// parent/child system. Unknown legacy tags fall into "Altre spese".
var legacyMapping = map[string]struct{ parent, child string }{
	// Casa
	"mutuo":      {"Casa", "Mutuo"},
	"affitto":    {"Casa", "Affitto"},
	"bollette":   {"Casa", "Bollette"},
	"condominio": {"Casa", "Spese condominiali"},

	// Finanziamenti
	"rata":          {"Finanziamenti", "Rate"},
	"finanziamento": {"Finanziamenti", "Rate"},
	"prestito":      {"Finanziamenti", "Prestiti"},

	// Abbonamenti
	"abbonamento":  {"Abbonamenti", "Servizi"},
	"subscription": {"Abbonamenti", "Servizi"},
	"streaming":    {"Abbonamenti", "Streaming"},
	"palestra":     {"Abbonamenti", "Sport"},

	// Famiglia
	"trasferimento": {"Famiglia", "Trasferimenti"},
	"famiglia":      {"Famiglia", "Trasferimenti"},

	// Spesa quotidiana
	"supermercato": {"Spesa", "Supermercato"},
	"spesa":        {"Spesa", "Supermercato"},
	"farmacia":     {"Salute", "Farmacia"},
	"medico":       {"Salute", "Dottori"},
	"benzina":      {"Trasporti", "Benzina"},
	"trasporti":    {"Trasporti", "Trasporto locale"},
	"ristorante":   {"Fuori", "Ristoranti"},
	"bar":          {"Fuori", "Bar"},
}

// Parent categories that mark a fixed, obligatory expense. Used by the
// classifier to confirm installment-looking descriptions.
var fixedParents = map[string]bool{
	"Finanziamenti": true,
	"Casa":          true,
}

// MapLegacyCategory resolves a legacy flat tag into the hierarchical
// pair. Rows that already carry parent/child never go through here.
func MapLegacyCategory(legacy string) (parent, child string) {
	key := strings.ToLower(strings.TrimSpace(legacy))
	if m, ok := legacyMapping[key]; ok {
		return m.parent, m.child
	}
	if key == "" {
		return "", ""
	}
	return "Altre spese", "Varie"
}

// FixedParent reports whether the parent category marks a fixed,
// obligatory expense.
func FixedParent(parent string) bool {
	return fixedParents[parent]
}
