package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

type dashboardState int

const (
	dashboardStateBrowse dashboardState = iota
	dashboardStatePeriod
	dashboardStateTotal
	dashboardStateSpent
	dashboardStateSaving
)

type DashboardModel struct {
	CommonModel
	budgetService *budget.Service

	state  dashboardState
	table  table.Model
	picker PeriodPicker
	form   *huh.Form
	amount *string

	budget  budget.MonthlyBudget
	loading bool
	err     error
	status  string
}

func NewDashboardModel(budgetSvc *budget.Service) DashboardModel {
	columns := []table.Column{
		{Title: "Categoría", Width: 24},
		{Title: "Presupuesto", Width: 12},
		{Title: "Gastado", Width: 12},
		{Title: "Disponible", Width: 12},
		{Title: "Progreso", Width: 22},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(9),
	)
	t.SetStyles(tableStyles())

	return DashboardModel{
		budgetService: budgetSvc,
		table:         t,
		amount:        new(string),
		loading:       true,
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return s
}

func (m DashboardModel) Title() string { return "Panel" }

func (m DashboardModel) ShortHelp() string {
	if m.state == dashboardStateSaving {
		return "Guardando..."
	}

	if m.state != dashboardStateBrowse {
		return "Esc: cancelar"
	}

	return "Esc: volver | [ ]: mes anterior/siguiente | m: elegir mes | t: presupuesto total | g: fijar gastado | r: recargar"
}

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case budgetLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.budget = msg.budget
			m.refreshTable()
		}

		return m, nil

	case PeriodSelectedMsg:
		m.state = dashboardStateBrowse
		m.table.Focus()

		return m, m.switchCmd(msg.Period)

	case dashboardSaveMsg:
		m.state = dashboardStateBrowse
		m.form = nil
		m.table.Focus()
		m.status = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("Error al guardar: %v", msg.err)
		}

		return m, m.loadCmd()
	}

	// input waits for the pending save
	if m.state == dashboardStateSaving {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.state != dashboardStateBrowse {
		m.state = dashboardStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	switch m.state {
	case dashboardStatePeriod:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	case dashboardStateTotal, dashboardStateSpent:
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m DashboardModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "[":
			return m, m.switchCmd(shiftPeriod(m.budget.Period(), -1))
		case "]":
			return m, m.switchCmd(shiftPeriod(m.budget.Period(), 1))
		case "m":
			m.state = dashboardStatePeriod
			m.picker = NewPeriodPicker(m.budget.Period())
			m.table.Blur()

			return m, m.picker.Init()
		case "t":
			*m.amount = budget.FormatAmount(m.budget.TotalBudget)
			m.form = amountForm("Presupuesto total del mes", m.amount, true)
			m.state = dashboardStateTotal
			m.table.Blur()

			return m, m.form.Init()
		case "g":
			c, ok := m.selectedCategory()
			if !ok {
				return m, nil
			}

			*m.amount = budget.FormatAmount(c.SpentAmount)
			m.form = amountForm("Gastado en "+c.Name, m.amount, false)
			m.state = dashboardStateSpent
			m.table.Blur()

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m DashboardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	editing := m.state
	m.state = dashboardStateSaving
	m.form = nil

	amount, err := budget.ParseAmount(*m.amount)
	if err != nil {
		return m, func() tea.Msg { return dashboardSaveMsg{err: err} }
	}

	if editing == dashboardStateTotal {
		return m, m.saveTotalCmd(amount)
	}

	c, _ := m.selectedCategory()

	return m, m.saveSpentCmd(c.ID, amount)
}

// amountForm builds a single-field form bound to value. strict rejects zero.
func amountForm(title string, value *string, strict bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("0,00").
				Value(value).
				Validate(func(s string) error {
					d, err := budget.ParseAmount(s)
					if err != nil {
						return errors.New("importe no válido")
					}

					if d.IsNegative() || (strict && d.IsZero()) {
						return errors.New("el importe debe ser mayor que cero")
					}

					return nil
				}),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m DashboardModel) selectedCategory() (budget.Category, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.budget.Categories) {
		return budget.Category{}, false
	}

	return m.budget.Categories[idx], true
}

func (m *DashboardModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.budget.Categories))
	for _, c := range m.budget.Categories {
		pct := 0.0
		if c.BudgetAmount.IsPositive() {
			pct = c.SpentAmount.Div(c.BudgetAmount).InexactFloat64() * 100
		}

		rows = append(rows, table.Row{
			c.Name,
			FormatAmount(c.BudgetAmount),
			FormatAmount(c.SpentAmount),
			FormatAmount(c.Remaining()),
			bar(pct, 20, termColor(c.Color)),
		})
	}

	m.table.SetRows(rows)
}

func (m DashboardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Cargando presupuesto...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	b := m.budget
	spent := budget.TotalSpent(b)
	remaining := budget.Remaining(b)

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Presupuesto " + b.Period().String()))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Presupuesto total: %s\n", FormatAmount(b.TotalBudget))

	if pct, ok := budget.PercentSpent(b); ok {
		fmt.Fprintf(&sb, "Gastado:           %s (%s)\n", FormatAmount(spent), FormatPercent(pct))
		sb.WriteString(bar(pct, 40, "42") + "\n")
	} else {
		fmt.Fprintf(&sb, "Gastado:           %s\n", FormatAmount(spent))
	}

	if remaining.IsNegative() {
		sb.WriteString(errorStyle.Render("Excedido:          "+FormatAmount(remaining.Abs())) + "\n")
	} else {
		fmt.Fprintf(&sb, "Disponible:        %s\n", FormatAmount(remaining))
	}

	if over := budget.OverspendingCategories(b); len(over) > 0 {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("%d de %d categorías con exceso de gasto", len(over), len(b.Categories))) + "\n")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sb.String(),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)

	switch m.state {
	case dashboardStatePeriod:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(36).Render(m.picker.View()))
	case dashboardStateTotal, dashboardStateSpent:
		if m.form != nil {
			content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(44).Render(m.form.View()))
		}
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// Messages

type budgetLoadedMsg struct {
	budget budget.MonthlyBudget
	err    error
}

type dashboardSaveMsg struct {
	err error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		b, err := m.budgetService.ActiveBudget(ctx)

		return budgetLoadedMsg{budget: b, err: err}
	}
}

func (m DashboardModel) switchCmd(p budget.Period) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		b, err := m.budgetService.SetActiveMonth(ctx, p)

		return budgetLoadedMsg{budget: b, err: err}
	}
}

func (m DashboardModel) saveTotalCmd(amount decimal.Decimal) tea.Cmd {
	p := m.budget.Period()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return dashboardSaveMsg{err: m.budgetService.SetTotalBudget(ctx, p, amount)}
	}
}

func (m DashboardModel) saveSpentCmd(categoryID string, amount decimal.Decimal) tea.Cmd {
	p := m.budget.Period()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return dashboardSaveMsg{err: m.budgetService.SetCategorySpent(ctx, p, categoryID, amount)}
	}
}
