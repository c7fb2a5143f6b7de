package budget

import (
	"context"

	"github.com/shopspring/decimal"
)

// Statistics is the derived overview shown for one period.
type Statistics struct {
	Period           Period
	TotalBudget      decimal.Decimal
	TotalSpent       decimal.Decimal
	Remaining        decimal.Decimal
	PercentSpent     float64
	RemainingPercent int64
	// ChangePercent compares TotalSpent with the previous period. HasChange is
	// false when there is no previous budget or it recorded no spend.
	ChangePercent   float64
	HasChange       bool
	DailyAverage    decimal.Decimal
	Overspending    []Category
	TotalCategories int
	TopCategory     *CategoryShare
	Breakdown       []CategoryShare
}

// Statistics computes the overview of p, creating its budget if needed. The
// previous period is only read.
func (s *Service) Statistics(ctx context.Context, p Period) (Statistics, error) {
	b, err := s.GetOrCreateBudget(ctx, p)
	if err != nil {
		return Statistics{}, err
	}

	spent := TotalSpent(b)
	stats := Statistics{
		Period:          p,
		TotalBudget:     b.TotalBudget,
		TotalSpent:      spent,
		Remaining:       Remaining(b),
		Overspending:    OverspendingCategories(b),
		TotalCategories: len(b.Categories),
		Breakdown:       CategoryBreakdown(b),
	}

	stats.PercentSpent, _ = PercentSpent(b)
	stats.RemainingPercent, _ = RemainingPercent(b)

	if top, ok := TopCategory(b); ok {
		stats.TopCategory = &top
	}

	if prev, ok := s.store.Lookup(p.Previous()); ok {
		prevSpent := TotalSpent(prev)
		if !prevSpent.IsZero() {
			stats.ChangePercent = spent.Sub(prevSpent).Div(prevSpent).Mul(hundred).Round(1).InexactFloat64()
			stats.HasChange = true
		}
	}

	stats.DailyAverage = spent.Div(decimal.NewFromInt(int64(s.elapsedDays(p)))).Round(2)

	return stats, nil
}

// elapsedDays is the day of month for the current period and the full month otherwise.
func (s *Service) elapsedDays(p Period) int {
	now := s.now()
	if PeriodOf(now) == p {
		return now.Day()
	}

	return p.Days()
}

// TrendPoint is the spend and budget of one period.
type TrendPoint struct {
	Period      Period
	Spent       decimal.Decimal
	TotalBudget decimal.Decimal
	Exists      bool
}

// Trend returns the last n periods ending at p, oldest first. Periods without
// a budget are reported with zero values and are not created.
func (s *Service) Trend(_ context.Context, p Period, n int) ([]TrendPoint, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if n <= 0 {
		n = 6
	}

	points := make([]TrendPoint, n)
	cur := p

	for i := n - 1; i >= 0; i-- {
		point := TrendPoint{Period: cur, Spent: decimal.Zero, TotalBudget: decimal.Zero}
		if b, ok := s.store.Lookup(cur); ok {
			point.Spent = TotalSpent(b)
			point.TotalBudget = b.TotalBudget
			point.Exists = true
		}

		points[i] = point
		cur = cur.Previous()
	}

	return points, nil
}
