package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

type BudgetReader interface {
	GetOrCreateBudget(ctx context.Context, p budget.Period) (budget.MonthlyBudget, error)
	Statistics(ctx context.Context, p budget.Period) (budget.Statistics, error)
}

// Service renders a month's budget for download.
type Service struct {
	budgets BudgetReader
}

func NewService(budgets BudgetReader) *Service {
	return &Service{budgets: budgets}
}

// Filename is the download name for a period, e.g. "gastos-2025-01.csv".
func Filename(p budget.Period, ext string) string {
	return fmt.Sprintf("gastos-%d-%02d.%s", p.Year, int(p.Month.Number()), ext)
}

// WriteCSV writes the expenses of p in the same layout the importer reads:
// semicolon separated with comma decimals.
func (s *Service) WriteCSV(ctx context.Context, p budget.Period, w io.Writer) error {
	b, err := s.budgets.GetOrCreateBudget(ctx, p)
	if err != nil {
		return fmt.Errorf("loading budget: %w", err)
	}

	names := make(map[string]string, len(b.Categories))
	for _, c := range b.Categories {
		names[c.ID] = c.Name
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write([]string{"Fecha", "Descripción", "Categoría", "Importe"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, e := range b.Expenses {
		record := []string{
			e.Date.Format("2006-01-02"),
			e.Description,
			names[e.CategoryID],
			europeanAmount(e.Amount),
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing expense %s: %w", e.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// Summary renders the overview of p as plain text.
func (s *Service) Summary(ctx context.Context, p budget.Period) (string, error) {
	stats, err := s.budgets.Statistics(ctx, p)
	if err != nil {
		return "", fmt.Errorf("computing statistics: %w", err)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Resumen Presupuesto - %s\n\n", p)
	fmt.Fprintf(&sb, "Presupuesto total: €%s\n", stats.TotalBudget.StringFixed(2))
	fmt.Fprintf(&sb, "Gastado:           €%s (%.1f%% del presupuesto)\n", stats.TotalSpent.StringFixed(2), stats.PercentSpent)

	if stats.Remaining.IsNegative() {
		fmt.Fprintf(&sb, "Excedido:          €%s\n", stats.Remaining.Abs().StringFixed(2))
	} else {
		fmt.Fprintf(&sb, "Disponible:        €%s\n", stats.Remaining.StringFixed(2))
	}

	fmt.Fprintf(&sb, "Promedio diario:   €%s\n", stats.DailyAverage.StringFixed(2))

	if stats.HasChange {
		fmt.Fprintf(&sb, "Vs mes anterior:   %+.1f%%\n", stats.ChangePercent)
	}

	if len(stats.Breakdown) > 0 {
		sb.WriteString("\nGastos por categoría\n")

		for _, share := range stats.Breakdown {
			fmt.Fprintf(&sb, "  %-24s €%10s  %5.1f%%\n", share.Category.Name, share.Spent.StringFixed(2), share.Percent)
		}
	}

	if len(stats.Overspending) == 0 {
		sb.WriteString("\nSin categorías con exceso de gasto.\n")
		return sb.String(), nil
	}

	fmt.Fprintf(&sb, "\nCategorías con exceso de gasto (%d de %d)\n", len(stats.Overspending), stats.TotalCategories)

	for _, c := range stats.Overspending {
		fmt.Fprintf(&sb, "  %s: +€%s (gastado €%s de €%s, %d%% de exceso)\n",
			c.Name, c.Excess().StringFixed(2), c.SpentAmount.StringFixed(2), c.BudgetAmount.StringFixed(2), c.ExcessPercent())
	}

	return sb.String(), nil
}

// SaveFiles writes the CSV and the text summary of p into dir, creating it if
// needed, and returns the written paths.
func (s *Service) SaveFiles(ctx context.Context, p budget.Period, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	csvPath := filepath.Join(dir, Filename(p, "csv"))

	f, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", csvPath, err)
	}

	if err := s.WriteCSV(ctx, p, f); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing %s: %w", csvPath, err)
	}

	summary, err := s.Summary(ctx, p)
	if err != nil {
		return nil, err
	}

	txtPath := filepath.Join(dir, Filename(p, "txt"))
	if err := os.WriteFile(txtPath, []byte(summary), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", txtPath, err)
	}

	return []string{csvPath, txtPath}, nil
}

func europeanAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
