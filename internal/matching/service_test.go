package matching_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
	"github.com/MrJamesThe3rd/budgetnest/internal/matching"
)

func TestService_Learn(t *testing.T) {
	type testCase struct {
		name       string
		pattern    string
		categoryID string
		setupMock  func(m *matching.MockRepository)
		wantErr    error
	}

	tests := []testCase{
		{
			name:       "Valid",
			pattern:    "  mercadona ",
			categoryID: "alimentacion",
			setupMock: func(m *matching.MockRepository) {
				m.EXPECT().CreateMapping(gomock.Any(), "mercadona", "alimentacion").Return(nil)
			},
		},
		{
			name:       "EmptyPattern",
			pattern:    "   ",
			categoryID: "alimentacion",
			setupMock:  func(m *matching.MockRepository) {},
			wantErr:    budget.ErrValidation,
		},
		{
			name:       "UnknownCategory",
			pattern:    "hotel",
			categoryID: "viajes",
			setupMock:  func(m *matching.MockRepository) {},
			wantErr:    budget.ErrInvalidCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := matching.NewMockRepository(ctrl)
			tt.setupMock(repo)

			err := matching.NewService(repo).Learn(context.Background(), tt.pattern, tt.categoryID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Suggest_EmptyDescription(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := matching.NewMockRepository(ctrl)

	got, err := matching.NewService(repo).Suggest(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_WithMemoryRepository(t *testing.T) {
	ctx := context.Background()
	svc := matching.NewService(matching.NewMemoryRepository())

	require.NoError(t, svc.Learn(ctx, "super", "ocio"))
	require.NoError(t, svc.Learn(ctx, "Supermercado", "alimentacion"))
	require.NoError(t, svc.Learn(ctx, "renfe", "transporte"))

	type testCase struct {
		description string
		want        string
	}

	tests := []testCase{
		{description: "SUPERMERCADO DIA", want: "alimentacion"},
		{description: "Super Bowl party", want: "ocio"},
		{description: "Billete Renfe Madrid", want: "transporte"},
		{description: "Farmacia", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got, err := svc.Suggest(ctx, tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	require.NoError(t, svc.Learn(ctx, "RENFE", "personal"))

	got, err := svc.Suggest(ctx, "renfe cercanias")
	require.NoError(t, err)
	assert.Equal(t, "personal", got)
}
