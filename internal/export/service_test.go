package export_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
	"github.com/MrJamesThe3rd/budgetnest/internal/export"
	"github.com/MrJamesThe3rd/budgetnest/internal/importer"
)

var enero2025 = budget.Period{Month: budget.Enero, Year: 2025}

func seeded(t *testing.T) *budget.Service {
	t.Helper()

	ctx := context.Background()
	svc := budget.NewService(budget.NewStore(enero2025), budget.WithClock(func() time.Time {
		return time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	}))

	for _, p := range []budget.RecordParams{
		{CategoryID: "alimentacion", Amount: decimal.RequireFromString("450"), Description: "Compra; mensual", Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{CategoryID: "transporte", Amount: decimal.RequireFromString("1234.5"), Description: "Coche", Date: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)},
	} {
		_, err := svc.RecordExpense(ctx, enero2025, p)
		require.NoError(t, err)
	}

	return svc
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "gastos-2025-01.csv", export.Filename(enero2025, "csv"))
	assert.Equal(t, "gastos-2024-12.txt", export.Filename(budget.Period{Month: budget.Diciembre, Year: 2024}, "txt"))
}

func TestService_WriteCSV(t *testing.T) {
	svc := export.NewService(seeded(t))

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(context.Background(), enero2025, &buf))

	want := "Fecha;Descripción;Categoría;Importe\n" +
		"2025-01-02;\"Compra; mensual\";Alimentación;450,00\n" +
		"2025-01-09;Coche;Transporte;1234,50\n"
	assert.Equal(t, want, buf.String())
}

func TestService_WriteCSV_RoundTripsThroughImporter(t *testing.T) {
	svc := export.NewService(seeded(t))

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(context.Background(), enero2025, &buf))

	res, err := importer.NewParser(budget.DefaultCategories()).Parse(&buf)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, "Compra; mensual", res.Rows[0].Description)
	assert.Equal(t, "alimentacion", res.Rows[0].CategoryID)
	assert.Equal(t, "1234.50", res.Rows[1].Amount.StringFixed(2))
	assert.Empty(t, res.Skipped)
}

func TestService_Summary(t *testing.T) {
	svc := export.NewService(seeded(t))

	text, err := svc.Summary(context.Background(), enero2025)
	require.NoError(t, err)

	assert.Contains(t, text, "Resumen Presupuesto - Enero 2025")
	assert.Contains(t, text, "Presupuesto total: €2000.00")
	assert.Contains(t, text, "Gastado:           €1684.50 (84.2% del presupuesto)")
	assert.Contains(t, text, "Disponible:        €315.50")
	assert.Contains(t, text, "Categorías con exceso de gasto (2 de 8)")
	assert.Contains(t, text, "Transporte: +€1034.50 (gastado €1234.50 de €200.00, 517% de exceso)")
	assert.Contains(t, text, "Alimentación: +€50.00")
	assert.NotContains(t, text, "Vs mes anterior")
}

func TestService_Summary_NoOverspending(t *testing.T) {
	svc := export.NewService(budget.NewService(budget.NewStore(enero2025)))

	text, err := svc.Summary(context.Background(), enero2025)
	require.NoError(t, err)
	assert.Contains(t, text, "Sin categorías con exceso de gasto.")
	assert.NotContains(t, text, "Gastos por categoría")
}

func TestService_SaveFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	svc := export.NewService(seeded(t))

	paths, err := svc.SaveFiles(context.Background(), enero2025, dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "gastos-2025-01.csv"),
		filepath.Join(dir, "gastos-2025-01.txt"),
	}, paths)

	csvData, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "2025-01-09;Coche;Transporte;1234,50")

	txt, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(txt), "Resumen Presupuesto - Enero 2025")
}
