package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/budget"
	"bilancio/internal/cache"
	"bilancio/internal/core"
)

// ExpenseReader is the slice of the repository the summary computation
// needs.
type ExpenseReader interface {
	ListExpenses(ctx context.Context, from, to time.Time) ([]core.Expense, error)
	GetProfile(ctx context.Context) (core.Profile, error)
}

// SummaryService computes the monthly budget picture and caches it per
// month. Any expense write clears the cache wholesale; recomputing a
// summary is cheap next to serving a stale one.
type SummaryService struct {
	reader             ExpenseReader
	summaryCache       *cache.Cache[budget.ExpensesSummary]
	consumptionCache   *cache.Cache[[]budget.ProviderConsumptionSummary]
	configuredLookback int
}

// NewSummaryService creates the service. configuredLookback overrides
// the profile's lookback when positive; zero defers to the profile and
// then the engine default.
func NewSummaryService(reader ExpenseReader, cacheSize int, cacheTTL time.Duration, configuredLookback int) *SummaryService {
	return &SummaryService{
		reader:             reader,
		summaryCache:       cache.New[budget.ExpensesSummary](cacheSize, cacheTTL),
		consumptionCache:   cache.New[[]budget.ProviderConsumptionSummary](cacheSize, cacheTTL),
		configuredLookback: configuredLookback,
	}
}

// Summary returns the full expenses summary as of now.
func (s *SummaryService) Summary(ctx context.Context, now time.Time) (budget.ExpensesSummary, error) {
	key := "summary|" + now.Format("2006-01")
	if cached, ok := s.summaryCache.Get(key); ok {
		return cached, nil
	}

	expenses, profile, err := s.load(ctx)
	if err != nil {
		return budget.ExpensesSummary{}, err
	}
	if s.configuredLookback > 0 {
		profile.VariableMonthsLookback = s.configuredLookback
	}

	summary := budget.Summarize(expenses, profile, now)
	s.summaryCache.Set(key, summary)
	return summary, nil
}

// Consumption returns per-provider utility consumption summaries.
func (s *SummaryService) Consumption(ctx context.Context, now time.Time) ([]budget.ProviderConsumptionSummary, error) {
	key := "consumption|" + now.Format("2006-01")
	if cached, ok := s.consumptionCache.Get(key); ok {
		return cached, nil
	}

	expenses, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	summaries := budget.AnalyzeConsumption(expenses, now)
	s.consumptionCache.Set(key, summaries)
	return summaries, nil
}

// Invalidate drops every cached summary. Called after each write.
func (s *SummaryService) Invalidate() {
	s.summaryCache.Clear()
	s.consumptionCache.Clear()
}

// load fetches expenses and profile in parallel.
func (s *SummaryService) load(ctx context.Context) ([]core.Expense, core.Profile, error) {
	var (
		expenses []core.Expense
		profile  core.Profile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.reader.ListExpenses(gctx, time.Time{}, time.Time{})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		profile, err = s.reader.GetProfile(gctx)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, core.Profile{}, err
	}
	return expenses, profile, nil
}
