package budget_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

var fixedNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newService(t *testing.T, opts ...budget.Option) (*budget.Service, *budget.Store) {
	t.Helper()

	store := budget.NewStore(enero2025)
	opts = append([]budget.Option{budget.WithClock(clock)}, opts...)

	return budget.NewService(store, opts...), store
}

func TestService_SetTotalBudget(t *testing.T) {
	ctx := context.Background()

	type testCase struct {
		name    string
		amount  decimal.Decimal
		wantErr error
	}

	tests := []testCase{
		{name: "Positive", amount: dec("2500")},
		{name: "Zero", amount: decimal.Zero, wantErr: budget.ErrValidation},
		{name: "Negative", amount: dec("-100"), wantErr: budget.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t)

			err := svc.SetTotalBudget(ctx, enero2025, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				_, ok := store.Lookup(enero2025)
				assert.False(t, ok)

				return
			}

			require.NoError(t, err)

			b, ok := store.Lookup(enero2025)
			require.True(t, ok)
			assertAmount(t, tt.amount.String(), b.TotalBudget)
		})
	}
}

func TestService_RecordExpense(t *testing.T) {
	ctx := context.Background()

	type testCase struct {
		name     string
		params   budget.RecordParams
		wantErr  error
		wantDesc string
		wantDate time.Time
	}

	explicit := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	tests := []testCase{
		{
			name:     "Valid",
			params:   budget.RecordParams{CategoryID: "ocio", Amount: dec("20"), Description: "  Cine  ", Date: explicit},
			wantDesc: "Cine",
			wantDate: explicit,
		},
		{
			name:     "EmptyDescriptionDefaults",
			params:   budget.RecordParams{CategoryID: "ocio", Amount: dec("5")},
			wantDesc: budget.QuickExpenseDescription,
			wantDate: fixedNow,
		},
		{
			name:    "DescriptionTooShort",
			params:  budget.RecordParams{CategoryID: "ocio", Amount: dec("5"), Description: "ab"},
			wantErr: budget.ErrValidation,
		},
		{
			name: "DescriptionTooLong",
			params: budget.RecordParams{
				CategoryID:  "ocio",
				Amount:      dec("5"),
				Description: strings.Repeat("a", 101),
			},
			wantErr: budget.ErrValidation,
		},
		{
			name:    "MissingCategory",
			params:  budget.RecordParams{Amount: dec("5"), Description: "Cine"},
			wantErr: budget.ErrValidation,
		},
		{
			name:    "ZeroAmount",
			params:  budget.RecordParams{CategoryID: "ocio", Amount: decimal.Zero, Description: "Cine"},
			wantErr: budget.ErrInvalidAmount,
		},
		{
			name:    "UnknownCategory",
			params:  budget.RecordParams{CategoryID: "viajes", Amount: dec("5"), Description: "Cine"},
			wantErr: budget.ErrInvalidCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t)

			exp, err := svc.RecordExpense(ctx, enero2025, tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				_, ok := store.Lookup(enero2025)
				assert.False(t, ok, "failed record must not create the budget")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDesc, exp.Description)
			assert.Equal(t, tt.wantDate, exp.Date)

			b, _ := store.Lookup(enero2025)
			assertLedgerConsistent(t, b)
		})
	}
}

func TestService_UpdateExpense_ValidatesDescription(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	exp, err := svc.RecordExpense(ctx, enero2025, budget.RecordParams{CategoryID: "ocio", Amount: dec("20"), Description: "Cine"})
	require.NoError(t, err)

	_, err = svc.UpdateExpense(ctx, enero2025, exp.ID, budget.ExpensePatch{Description: new(" x ")})
	assert.ErrorIs(t, err, budget.ErrValidation)

	updated, err := svc.UpdateExpense(ctx, enero2025, exp.ID, budget.ExpensePatch{Description: new(" Teatro ")})
	require.NoError(t, err)
	assert.Equal(t, "Teatro", updated.Description)
}

func TestService_PersistsSnapshots(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := budget.NewMockRepository(ctrl)

	var saved []budget.MonthlyBudget

	repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *budget.MonthlyBudget) error {
			saved = append(saved, b.Clone())
			return nil
		}).Times(2)

	svc, _ := newService(t, budget.WithRepository(repo))

	_, err := svc.RecordExpense(ctx, enero2025, budget.RecordParams{CategoryID: "ocio", Amount: dec("20"), Description: "Cine"})
	require.NoError(t, err)

	require.NoError(t, svc.SetTotalBudget(ctx, enero2025, dec("3000")))

	require.Len(t, saved, 2)
	assert.Equal(t, "Enero-2025", saved[0].ID)
	assert.Len(t, saved[0].Expenses, 1)
	assertAmount(t, "2000", saved[0].TotalBudget)
	assertAmount(t, "3000", saved[1].TotalBudget)
}

func TestService_RollbackOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := budget.NewMockRepository(ctrl)
	svc, store := newService(t, budget.WithRepository(repo))
	errDown := errors.New("connection refused")

	t.Run("NewBudgetIsRemoved", func(t *testing.T) {
		repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(errDown)

		_, err := svc.RecordExpense(ctx, enero2025, budget.RecordParams{CategoryID: "ocio", Amount: dec("20"), Description: "Cine"})
		assert.ErrorIs(t, err, errDown)

		_, ok := store.Lookup(enero2025)
		assert.False(t, ok)
	})

	t.Run("ExistingBudgetIsRestored", func(t *testing.T) {
		repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(nil)

		exp, err := svc.RecordExpense(ctx, enero2025, budget.RecordParams{CategoryID: "ocio", Amount: dec("20"), Description: "Cine"})
		require.NoError(t, err)

		before, _ := store.Lookup(enero2025)

		repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(errDown).Times(3)

		_, err = svc.RecordExpense(ctx, enero2025, budget.RecordParams{CategoryID: "ocio", Amount: dec("30"), Description: "Concierto"})
		assert.ErrorIs(t, err, errDown)

		err = svc.DeleteExpense(ctx, enero2025, exp.ID)
		assert.ErrorIs(t, err, errDown)

		err = svc.SetCategorySpent(ctx, enero2025, "ocio", dec("999"))
		assert.ErrorIs(t, err, errDown)

		after, _ := store.Lookup(enero2025)
		assert.Equal(t, before, after)
	})
}

func TestService_Load(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := budget.NewMockRepository(ctrl)

	dic := budget.NewDefaultBudget(budget.Period{Month: budget.Diciembre, Year: 2024})
	dic.TotalBudget = dec("1800")

	repo.EXPECT().ListBudgets(gomock.Any()).Return([]*budget.MonthlyBudget{&dic}, nil)

	svc, store := newService(t, budget.WithRepository(repo))
	require.NoError(t, svc.Load(ctx))

	got, ok := store.Lookup(budget.Period{Month: budget.Diciembre, Year: 2024})
	require.True(t, ok)
	assertAmount(t, "1800", got.TotalBudget)

	repo.EXPECT().ListBudgets(gomock.Any()).Return(nil, errors.New("boom"))
	assert.Error(t, svc.Load(ctx))
}

func TestService_Load_WithoutRepository(t *testing.T) {
	svc, _ := newService(t)
	assert.NoError(t, svc.Load(context.Background()))
}

func TestService_ImportExpenses(t *testing.T) {
	ctx := context.Background()

	t.Run("AllRecorded", func(t *testing.T) {
		svc, store := newService(t)

		created, err := svc.ImportExpenses(ctx, enero2025, []budget.RecordParams{
			{CategoryID: "alimentacion", Amount: dec("10"), Description: "Fruta"},
			{CategoryID: "transporte", Amount: dec("2.5"), Description: "Bus"},
		})
		require.NoError(t, err)
		assert.Len(t, created, 2)

		b, _ := store.Lookup(enero2025)
		assert.Len(t, b.Expenses, 2)
		assertLedgerConsistent(t, b)
	})

	t.Run("CallerBatchUntouched", func(t *testing.T) {
		svc, _ := newService(t)

		batch := []budget.RecordParams{
			{CategoryID: "alimentacion", Amount: dec("10"), Description: "  Fruta  "},
			{CategoryID: "ocio", Amount: dec("4")},
		}

		created, err := svc.ImportExpenses(ctx, enero2025, batch)
		require.NoError(t, err)
		assert.Equal(t, "Fruta", created[0].Description)
		assert.Equal(t, "Gasto rápido", created[1].Description)

		assert.Equal(t, "  Fruta  ", batch[0].Description)
		assert.Empty(t, batch[1].Description)
		assert.True(t, batch[1].Date.IsZero())
	})

	t.Run("UnknownCategoryRejectsBatch", func(t *testing.T) {
		svc, store := newService(t)

		_, err := svc.RecordExpense(ctx, enero2025, budget.RecordParams{CategoryID: "ocio", Amount: dec("20"), Description: "Cine"})
		require.NoError(t, err)

		before, _ := store.Lookup(enero2025)

		_, err = svc.ImportExpenses(ctx, enero2025, []budget.RecordParams{
			{CategoryID: "alimentacion", Amount: dec("10"), Description: "Fruta"},
			{CategoryID: "viajes", Amount: dec("200"), Description: "Hotel"},
		})
		assert.ErrorIs(t, err, budget.ErrInvalidCategory)
		assert.ErrorContains(t, err, "expense 2")

		after, _ := store.Lookup(enero2025)
		assert.Equal(t, before, after)
	})

	t.Run("InvalidRowRejectsBeforeMutation", func(t *testing.T) {
		svc, store := newService(t)

		_, err := svc.ImportExpenses(ctx, enero2025, []budget.RecordParams{
			{CategoryID: "alimentacion", Amount: dec("10"), Description: "Fruta"},
			{CategoryID: "ocio", Amount: dec("-1"), Description: "Cine"},
		})
		assert.ErrorIs(t, err, budget.ErrInvalidAmount)

		_, ok := store.Lookup(enero2025)
		assert.False(t, ok)
	})
}

func TestService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := budget.NewMockPublisher(ctrl)
	svc, _ := newService(t, budget.WithPublisher(pub))

	var events []budget.Event

	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, es ...budget.Event) error {
			events = append(events, es...)
			return nil
		}).Times(4)

	exp, err := svc.RecordExpense(ctx, enero2025, budget.RecordParams{CategoryID: "ocio", Amount: dec("20"), Description: "Cine"})
	require.NoError(t, err)

	_, err = svc.UpdateExpense(ctx, enero2025, exp.ID, budget.ExpensePatch{CategoryID: new("deportes")})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExpense(ctx, enero2025, exp.ID))
	require.NoError(t, svc.SetCategorySpent(ctx, enero2025, "vivienda", dec("600")))

	require.Len(t, events, 4)
	assert.Equal(t, budget.EventExpenseRecorded, events[0].Type)
	assert.Equal(t, exp.ID, events[0].ExpenseID)
	assert.Equal(t, fixedNow, events[0].OccurredAt)
	assert.Equal(t, budget.EventExpenseUpdated, events[1].Type)
	assert.Equal(t, "deportes", events[1].CategoryID)
	assert.Equal(t, budget.EventExpenseDeleted, events[2].Type)
	assert.Equal(t, budget.EventCategorySpentOverridden, events[3].Type)
	assert.Equal(t, enero2025, events[3].Period)
}

func TestService_ImportExpenses_PublishesOnce(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := budget.NewMockPublisher(ctrl)
	svc, _ := newService(t, budget.WithPublisher(pub))

	var events []budget.Event

	pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, es ...budget.Event) error {
			events = es
			return nil
		}).Times(1)

	created, err := svc.ImportExpenses(ctx, enero2025, []budget.RecordParams{
		{CategoryID: "alimentacion", Amount: dec("10"), Description: "Fruta"},
		{CategoryID: "transporte", Amount: dec("2.5"), Description: "Bus"},
		{CategoryID: "ocio", Amount: dec("8"), Description: "Cine"},
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, budget.EventExpenseRecorded, e.Type)
		assert.Equal(t, created[i].ID, e.ExpenseID)
		assert.Equal(t, fixedNow, e.OccurredAt)
	}
}

func TestService_PublishFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := budget.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	svc, _ := newService(t, budget.WithPublisher(pub))

	_, err := svc.RecordExpense(ctx, enero2025, budget.RecordParams{CategoryID: "ocio", Amount: dec("20"), Description: "Cine"})
	assert.NoError(t, err)
}

func TestService_SetActiveMonth(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	feb := budget.Period{Month: budget.Febrero, Year: 2025}

	b, err := svc.SetActiveMonth(ctx, feb)
	require.NoError(t, err)
	assert.Equal(t, "Febrero-2025", b.ID)
	assert.Equal(t, feb, svc.Active())

	active, err := svc.ActiveBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, b, active)

	_, err = svc.SetActiveMonth(ctx, budget.Period{Month: "Smarch", Year: 2025})
	assert.ErrorIs(t, err, budget.ErrValidation)
	assert.Equal(t, feb, svc.Active())
}

func TestService_Statistics(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	dic := budget.Period{Month: budget.Diciembre, Year: 2024}

	_, err := svc.RecordExpense(ctx, dic, budget.RecordParams{CategoryID: "vivienda", Amount: dec("100"), Description: "Luz"})
	require.NoError(t, err)

	for _, p := range []budget.RecordParams{
		{CategoryID: "alimentacion", Amount: dec("450"), Description: "Compra mensual"},
		{CategoryID: "ocio", Amount: dec("50"), Description: "Cine"},
	} {
		_, err = svc.RecordExpense(ctx, enero2025, p)
		require.NoError(t, err)
	}

	stats, err := svc.Statistics(ctx, enero2025)
	require.NoError(t, err)

	assertAmount(t, "500", stats.TotalSpent)
	assertAmount(t, "1500", stats.Remaining)
	assert.InDelta(t, 25.0, stats.PercentSpent, 0.0001)
	assert.Equal(t, int64(75), stats.RemainingPercent)
	assert.True(t, stats.HasChange)
	assert.InDelta(t, 400.0, stats.ChangePercent, 0.0001)
	// 15 days elapsed in the current month
	assertAmount(t, "33.33", stats.DailyAverage)
	assert.Equal(t, 8, stats.TotalCategories)
	require.Len(t, stats.Overspending, 1)
	assert.Equal(t, "alimentacion", stats.Overspending[0].ID)
	require.NotNil(t, stats.TopCategory)
	assert.Equal(t, "alimentacion", stats.TopCategory.Category.ID)
	assert.Len(t, stats.Breakdown, 2)

	past, err := svc.Statistics(ctx, dic)
	require.NoError(t, err)
	assert.False(t, past.HasChange)
	// December has 31 days
	assertAmount(t, "3.23", past.DailyAverage)

	_, ok := svc.Lookup(budget.Period{Month: budget.Noviembre, Year: 2024})
	assert.False(t, ok, "statistics must not create the previous period")
}

func TestService_Trend(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	nov := budget.Period{Month: budget.Noviembre, Year: 2024}

	_, err := svc.RecordExpense(ctx, nov, budget.RecordParams{CategoryID: "ocio", Amount: dec("70"), Description: "Cine"})
	require.NoError(t, err)

	points, err := svc.Trend(ctx, enero2025, 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, nov, points[0].Period)
	assert.True(t, points[0].Exists)
	assertAmount(t, "70", points[0].Spent)
	assertAmount(t, "2000", points[0].TotalBudget)

	assert.Equal(t, budget.Period{Month: budget.Diciembre, Year: 2024}, points[1].Period)
	assert.False(t, points[1].Exists)
	assert.Equal(t, enero2025, points[2].Period)

	assert.Len(t, store.Periods(), 1, "trend must not create budgets")

	points, err = svc.Trend(ctx, enero2025, 0)
	require.NoError(t, err)
	assert.Len(t, points, 6)
}
