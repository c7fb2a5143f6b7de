package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

const trendMonths = 6

type StatisticsModel struct {
	CommonModel
	budgetService *budget.Service

	spinner spinner.Model
	loading bool
	err     error

	stats budget.Statistics
	trend []budget.TrendPoint
}

func NewStatisticsModel(budgetSvc *budget.Service) StatisticsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return StatisticsModel{
		budgetService: budgetSvc,
		spinner:       s,
		loading:       true,
	}
}

func (m StatisticsModel) Title() string { return "Estadísticas" }

func (m StatisticsModel) ShortHelp() string { return "Esc: volver | r: recargar" }

func (m StatisticsModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m StatisticsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.stats = msg.stats
		m.trend = msg.trend

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadCmd())
		}
	}

	if m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m StatisticsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render(m.spinner.View() + " Calculando estadísticas...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Estadísticas "+m.stats.Period.String()),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Width(44).Render(m.viewMetrics()),
			panelStyle.Width(50).Render(m.viewBreakdown()),
		),
		lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Width(44).Render(m.viewOverspending()),
			panelStyle.Width(50).Render(m.viewTrend()),
		),
	))
}

func (m StatisticsModel) viewMetrics() string {
	s := m.stats

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Resumen") + "\n\n")
	fmt.Fprintf(&sb, "Presupuesto:     %s\n", FormatAmount(s.TotalBudget))
	fmt.Fprintf(&sb, "Gastado:         %s (%s)\n", FormatAmount(s.TotalSpent), FormatPercent(s.PercentSpent))

	if s.Remaining.IsNegative() {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Excedido:        %s", FormatAmount(s.Remaining.Abs()))) + "\n")
	} else {
		fmt.Fprintf(&sb, "Disponible:      %s (%d%%)\n", FormatAmount(s.Remaining), s.RemainingPercent)
	}

	fmt.Fprintf(&sb, "Promedio diario: %s\n", FormatAmount(s.DailyAverage))

	if s.HasChange {
		style := successStyle
		if s.ChangePercent > 0 {
			style = warnStyle
		}

		sb.WriteString("Vs mes anterior: " + style.Render(fmt.Sprintf("%+.1f%%", s.ChangePercent)) + "\n")
	}

	if s.TopCategory != nil {
		fmt.Fprintf(&sb, "Mayor gasto:     %s\n", s.TopCategory.Category.Name)
	}

	return sb.String()
}

func (m StatisticsModel) viewBreakdown() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Gastos por categoría") + "\n\n")

	if len(m.stats.Breakdown) == 0 {
		sb.WriteString(faintStyle.Render("Sin gastos este mes."))
		return sb.String()
	}

	for _, share := range m.stats.Breakdown {
		fmt.Fprintf(&sb, "%-22s %s %s\n",
			share.Category.Name,
			bar(share.Percent, 12, termColor(share.Category.Color)),
			FormatPercent(share.Percent),
		)
	}

	return sb.String()
}

func (m StatisticsModel) viewOverspending() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Exceso de gasto (%d de %d)",
		len(m.stats.Overspending), m.stats.TotalCategories)) + "\n\n")

	if len(m.stats.Overspending) == 0 {
		sb.WriteString(successStyle.Render("Todas las categorías dentro del presupuesto."))
		return sb.String()
	}

	for _, c := range m.stats.Overspending {
		fmt.Fprintf(&sb, "%s\n  %s de %s · %s (+%d%%)\n",
			warnStyle.Render(c.Name),
			FormatAmount(c.SpentAmount),
			FormatAmount(c.BudgetAmount),
			errorStyle.Render(FormatAmount(c.Excess())),
			c.ExcessPercent(),
		)
	}

	return sb.String()
}

func (m StatisticsModel) viewTrend() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Últimos %d meses", len(m.trend))) + "\n\n")

	peak := decimal.Zero
	for _, pt := range m.trend {
		peak = decimal.Max(peak, pt.Spent, pt.TotalBudget)
	}

	for _, pt := range m.trend {
		label := fmt.Sprintf("%-4s %d", string(pt.Period.Month)[:3], pt.Period.Year)
		if !pt.Exists {
			fmt.Fprintf(&sb, "%s %s\n", label, faintStyle.Render("sin datos"))
			continue
		}

		pct := 0.0
		if peak.IsPositive() {
			pct = pt.Spent.Div(peak).InexactFloat64() * 100
		}

		color := "42"
		if pt.Spent.GreaterThan(pt.TotalBudget) {
			color = "196"
		}

		fmt.Fprintf(&sb, "%s %s %s\n", label, bar(pct, 20, color), FormatAmount(pt.Spent))
	}

	return sb.String()
}

// Messages

type statsLoadedMsg struct {
	stats budget.Statistics
	trend []budget.TrendPoint
	err   error
}

func (m StatisticsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		p := m.budgetService.Active()

		stats, err := m.budgetService.Statistics(ctx, p)
		if err != nil {
			return statsLoadedMsg{err: err}
		}

		trend, err := m.budgetService.Trend(ctx, p, trendMonths)
		if err != nil {
			return statsLoadedMsg{err: err}
		}

		return statsLoadedMsg{stats: stats, trend: trend}
	}
}
