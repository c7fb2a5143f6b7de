package budget_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

// withSpent returns the default Enero 2025 budget with the given spent amounts.
func withSpent(spent map[string]string) budget.MonthlyBudget {
	b := budget.NewDefaultBudget(enero2025)
	for i, c := range b.Categories {
		if v, ok := spent[c.ID]; ok {
			b.Categories[i].SpentAmount = dec(v)
		}
	}

	return b
}

func TestTotals(t *testing.T) {
	b := withSpent(map[string]string{"vivienda": "500", "ocio": "110"})

	assertAmount(t, "610", budget.TotalSpent(b))
	assertAmount(t, "1390", budget.Remaining(b))

	pct, ok := budget.PercentSpent(b)
	require.True(t, ok)
	assert.InDelta(t, 30.5, pct, 0.0001)

	rem, ok := budget.RemainingPercent(b)
	require.True(t, ok)
	assert.Equal(t, int64(70), rem)
}

func TestTotals_ZeroBudget(t *testing.T) {
	b := withSpent(map[string]string{"ocio": "10"})
	b.TotalBudget = dec("0")

	_, ok := budget.PercentSpent(b)
	assert.False(t, ok)

	_, ok = budget.RemainingPercent(b)
	assert.False(t, ok)

	assertAmount(t, "-10", budget.Remaining(b))
}

func TestTotals_OverBudget(t *testing.T) {
	b := withSpent(map[string]string{"vivienda": "2500"})

	assertAmount(t, "-500", budget.Remaining(b))

	pct, ok := budget.PercentSpent(b)
	require.True(t, ok)
	assert.InDelta(t, 125.0, pct, 0.0001)
}

func TestOverspendingCategories(t *testing.T) {
	type testCase struct {
		name  string
		spent map[string]string
		want  []string
	}

	tests := []testCase{
		{
			name:  "None",
			spent: map[string]string{"ocio": "100"},
			want:  []string{},
		},
		{
			name:  "ExactlyAtLimit",
			spent: map[string]string{"ocio": "300"},
			want:  []string{},
		},
		{
			name:  "InCategoryOrder",
			spent: map[string]string{"personal": "100.01", "alimentacion": "450", "ocio": "10"},
			want:  []string{"alimentacion", "personal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := budget.OverspendingCategories(withSpent(tt.spent))

			ids := []string{}
			for _, c := range got {
				ids = append(ids, c.ID)
			}

			assert.NotNil(t, got)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCategory_Excess(t *testing.T) {
	b := withSpent(map[string]string{"alimentacion": "500", "ocio": "10"})

	var alim, ocio budget.Category
	for _, c := range b.Categories {
		switch c.ID {
		case "alimentacion":
			alim = c
		case "ocio":
			ocio = c
		}
	}

	assertAmount(t, "100", alim.Excess())
	assert.Equal(t, int64(25), alim.ExcessPercent())
	assertAmount(t, "-100", alim.Remaining())

	assert.True(t, ocio.Excess().IsZero())
	assert.Equal(t, int64(0), ocio.ExcessPercent())
}

func ledgerBudget(t *testing.T) (*budget.Store, budget.MonthlyBudget) {
	t.Helper()

	s := budget.NewStore(enero2025)
	day := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	for _, e := range []budget.NewExpense{
		{CategoryID: "alimentacion", Amount: dec("45.20"), Description: "Supermercado Mercadona", Date: day},
		{CategoryID: "transporte", Amount: dec("30"), Description: "Abono transporte", Date: day},
		{CategoryID: "alimentacion", Amount: dec("12.80"), Description: "Panadería", Date: day},
		{CategoryID: "ocio", Amount: dec("9.99"), Description: "SUPERMERCADO online", Date: day},
	} {
		_, err := s.RecordExpense(enero2025, e)
		require.NoError(t, err)
	}

	return s, s.GetOrCreate(enero2025)
}

func TestExpensesByCategory(t *testing.T) {
	_, b := ledgerBudget(t)

	groups := budget.ExpensesByCategory(b)
	require.Len(t, groups, 3)

	assert.Equal(t, "alimentacion", groups[0].Category.ID)
	assert.Len(t, groups[0].Expenses, 2)
	assertAmount(t, "58", groups[0].Total)
	assert.InDelta(t, 2.9, groups[0].Percent, 0.0001)

	assert.Equal(t, "transporte", groups[1].Category.ID)
	assert.Equal(t, "ocio", groups[2].Category.ID)
}

func TestExpensesByCategory_Empty(t *testing.T) {
	groups := budget.ExpensesByCategory(budget.NewDefaultBudget(enero2025))
	assert.Empty(t, groups)
}

func TestFilterExpenses(t *testing.T) {
	_, b := ledgerBudget(t)

	type testCase struct {
		name       string
		search     string
		categoryID string
		want       []string
	}

	tests := []testCase{
		{
			name: "NoFilter",
			want: []string{"Supermercado Mercadona", "Abono transporte", "Panadería", "SUPERMERCADO online"},
		},
		{
			name:   "CaseInsensitive",
			search: "supermercado",
			want:   []string{"Supermercado Mercadona", "SUPERMERCADO online"},
		},
		{
			name:       "SearchAndCategory",
			search:     "super",
			categoryID: "ocio",
			want:       []string{"SUPERMERCADO online"},
		},
		{
			name:       "CategoryOnly",
			categoryID: "alimentacion",
			want:       []string{"Supermercado Mercadona", "Panadería"},
		},
		{
			name:   "Accented",
			search: "PANADERÍA",
			want:   []string{"Panadería"},
		},
		{
			name:   "NoMatch",
			search: "gimnasio",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := budget.FilterExpenses(b, tt.search, tt.categoryID)

			descs := []string{}
			for _, e := range got {
				descs = append(descs, e.Description)
			}

			assert.Equal(t, tt.want, descs)
		})
	}
}

func TestSummarize(t *testing.T) {
	_, b := ledgerBudget(t)

	sum := budget.Summarize(b.Expenses)
	assert.Equal(t, 4, sum.Count)
	assertAmount(t, "97.99", sum.Total)
	assertAmount(t, "24.50", sum.Average)

	empty := budget.Summarize(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.Total.IsZero())
	assert.True(t, empty.Average.IsZero())
}

func TestCategoryBreakdown(t *testing.T) {
	b := withSpent(map[string]string{"ocio": "50", "vivienda": "150", "cuidado": "50"})

	shares := budget.CategoryBreakdown(b)
	require.Len(t, shares, 3)

	assert.Equal(t, "vivienda", shares[0].Category.ID)
	assert.InDelta(t, 60.0, shares[0].Percent, 0.0001)
	// ties keep category order
	assert.Equal(t, "ocio", shares[1].Category.ID)
	assert.Equal(t, "cuidado", shares[2].Category.ID)

	top, ok := budget.TopCategory(b)
	require.True(t, ok)
	assert.Equal(t, "vivienda", top.Category.ID)

	_, ok = budget.TopCategory(budget.NewDefaultBudget(enero2025))
	assert.False(t, ok)
}

func TestMonthlyBudget_Clone(t *testing.T) {
	_, b := ledgerBudget(t)

	c := b.Clone()
	c.Categories[0].Name = "changed"
	c.Expenses[0].Description = "changed"

	assert.NotEqual(t, "changed", b.Categories[0].Name)
	assert.NotEqual(t, "changed", b.Expenses[0].Description)

	_, ok := b.Expense(b.Expenses[1].ID)
	assert.True(t, ok)

	_, ok = b.Expense(uuid.New())
	assert.False(t, ok)
}

func TestParseAmount(t *testing.T) {
	type testCase struct {
		in      string
		want    string
		wantErr bool
	}

	tests := []testCase{
		{in: "135", want: "135.00"},
		{in: "1.500", want: "1500.00"},
		{in: "12.345.678", want: "12345678.00"},
		{in: "-1.500", want: "-1500.00"},
		{in: "12.5", want: "12.50"},
		{in: "10.500,00", want: "10500.00"},
		{in: "1.2345", wantErr: true},
		{in: "3,125", wantErr: true},
		{in: "1.234,56", want: "1234.56"},
		{in: "45,2 €", want: "45.20"},
		{in: "€9.99", want: "9.99"},
		{in: "-3,5", want: "-3.50"},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := budget.ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, budget.ErrInvalidAmount)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, budget.FormatAmount(got))
		})
	}
}
