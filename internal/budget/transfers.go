package budget

import (
	"sort"

	"bilancio/internal/core"
)

// TransferSummary groups family transfers by inferred counterpart.
// Unlike loan installments, transfers in a month are additive:
// MonthlyAmount is the group total spread over the distinct calendar
// months that contain at least one transfer.
type TransferSummary struct {
	Counterpart   string
	MonthlyAmount core.Money
	TotalAmount   core.Money
	Count         int
	Transfers     []core.Expense
}

// GroupFamilyTransfers groups the classifier's transfers bucket by
// counterpart. Summaries are sorted by descending monthly amount,
// transfers chronologically within each summary.
func GroupFamilyTransfers(transfers []core.Expense) []TransferSummary {
	groups := make(map[string][]core.Expense)
	var names []string
	for _, e := range transfers {
		name := TransferCounterpart(e)
		if _, seen := groups[name]; !seen {
			names = append(names, name)
		}
		groups[name] = append(groups[name], e)
	}

	summaries := make([]TransferSummary, 0, len(groups))
	for _, name := range names {
		group := groups[name]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Date.Before(group[j].Date)
		})

		s := TransferSummary{
			Counterpart: name,
			Count:       len(group),
			Transfers:   group,
		}
		months := make(map[string]bool)
		for _, e := range group {
			s.TotalAmount = s.TotalAmount.Add(e.Amount)
			months[e.Date.Format("2006-01")] = true
		}
		if len(months) > 0 {
			s.MonthlyAmount = core.Money{Cents: s.TotalAmount.Cents / int64(len(months))}
		}
		summaries = append(summaries, s)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].MonthlyAmount.Cents > summaries[j].MonthlyAmount.Cents
	})
	return summaries
}
