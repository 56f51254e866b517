package budget

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"bilancio/internal/core"
)

// Description-matching heuristics live in this file only. Grouping and
// aggregation code receives their verdicts and never inspects raw text,
// so the rule lists can be tuned without touching the arithmetic.

// installmentKeywords mark a payment as part of a loan or financing
// plan. Matched case-insensitively as whole words.
var installmentKeywords = []string{"rata", "rate", "finanziamento", "prestito", "mutuo"}

// transferKeywords mark a money transfer to a family member.
var transferKeywords = []string{"trasferimento", "bonifico", "giroconto", "ricarica"}

// counterpartPrepositions introduce the transfer counterpart in a
// description, e.g. "Trasferimento a Mamy".
var counterpartPrepositions = []string{" a ", " per ", " verso "}

// maxKeyDistance is the edit distance under which two inferred loan
// keys are considered the same lender (typos, truncated bank exports).
const maxKeyDistance = 1

// ResolveCategory returns the hierarchical category pair of an expense,
// mapping the legacy flat tag when the modern fields are absent.
func ResolveCategory(e core.Expense) (parent, child string) {
	if e.Parent != "" {
		return e.Parent, e.Child
	}
	return core.MapLegacyCategory(e.Category)
}

// IsLoanPayment reports whether the expense looks like a loan or
// installment payment: an installment keyword, a lender-like token, and
// either the recurring hint or a fixed-expense category. A one-off
// "Rata" with no such confirmation is left to the variable bucket,
// where a misclassification hurts the monthly total less.
func IsLoanPayment(e core.Expense) bool {
	if !hasInstallmentKeyword(e.Description) {
		return false
	}
	if LoanKey(e.Description) == "" {
		return false
	}
	if e.Recurring {
		return true
	}
	parent, _ := ResolveCategory(e)
	return core.FixedParent(parent)
}

// LoanKey derives the lender identity from an installment description:
// keywords and transaction-specific numbers are stripped, the remaining
// tokens are upper-cased. "Rata YOUNITED 3/24" and "rata Younited n.4"
// both yield "YOUNITED".
func LoanKey(description string) string {
	var kept []string
	for _, tok := range strings.Fields(description) {
		clean := strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if clean == "" || hasDigit(clean) {
			continue
		}
		if isInstallmentKeyword(clean) || isStopWord(clean) {
			continue
		}
		kept = append(kept, strings.ToUpper(clean))
	}
	return strings.Join(kept, " ")
}

// CanonicalLoanKey folds a key into an already-seen one when the edit
// distance suggests the same lender. Keys shorter than four runes are
// never merged.
func CanonicalLoanKey(key string, known []string) string {
	for _, k := range known {
		if k == key {
			return k
		}
		if len(key) >= 4 && len(k) >= 4 && levenshtein.ComputeDistance(key, k) <= maxKeyDistance {
			return k
		}
	}
	return key
}

// IsFamilyTransfer reports whether the expense is a money transfer to a
// linked family member, either by category or by description.
func IsFamilyTransfer(e core.Expense) bool {
	parent, _ := ResolveCategory(e)
	if parent == "Famiglia" {
		return true
	}
	return hasTransferKeyword(e.Description)
}

// TransferCounterpart infers who the transfer went to. The token after
// "a"/"per"/"verso" is used when present; otherwise the non-keyword
// remainder of the description. Falls back to "Famiglia".
func TransferCounterpart(e core.Expense) string {
	lower := strings.ToLower(e.Description)
	for _, prep := range counterpartPrepositions {
		if idx := strings.Index(lower, prep); idx >= 0 {
			rest := strings.TrimSpace(e.Description[idx+len(prep):])
			if fields := strings.Fields(rest); len(fields) > 0 {
				return capitalize(fields[0])
			}
		}
	}
	var kept []string
	for _, tok := range strings.Fields(e.Description) {
		if isTransferKeyword(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) > 0 {
		return strings.Join(kept, " ")
	}
	return "Famiglia"
}

// IsSubscription reports whether the category marks a recurring paid
// service (streaming, gym, software).
func IsSubscription(e core.Expense) bool {
	parent, _ := ResolveCategory(e)
	return parent == "Abbonamenti"
}

func hasInstallmentKeyword(description string) bool {
	for _, tok := range strings.Fields(strings.ToLower(description)) {
		tok = strings.TrimFunc(tok, unicode.IsPunct)
		for _, kw := range installmentKeywords {
			if tok == kw {
				return true
			}
		}
	}
	return false
}

func hasTransferKeyword(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range transferKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isInstallmentKeyword(tok string) bool {
	lower := strings.ToLower(tok)
	for _, kw := range installmentKeywords {
		if lower == kw {
			return true
		}
	}
	return false
}

func isTransferKeyword(tok string) bool {
	lower := strings.TrimFunc(strings.ToLower(tok), unicode.IsPunct)
	for _, kw := range transferKeywords {
		if lower == kw {
			return true
		}
	}
	return false
}

// isStopWord filters connective tokens that carry no lender identity.
func isStopWord(tok string) bool {
	switch strings.ToLower(tok) {
	case "n", "nr", "num", "del", "della", "di", "da", "a", "il", "la", "per":
		return true
	}
	return false
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
