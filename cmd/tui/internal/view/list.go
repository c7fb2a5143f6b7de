package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
	"github.com/MrJamesThe3rd/budgetnest/internal/matching"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateSearch
	listStateAdd
	listStateEdit
	listStateDelete
	listStateSaving
)

// suggestCategory is the select value that asks the matcher for a category.
const suggestCategory = "__sugerir__"

type expenseFields struct {
	description string
	amount      string
	categoryID  string
	confirm     bool
}

type ListModel struct {
	CommonModel
	budgetService   *budget.Service
	matchingService *matching.Service

	state  listState
	table  table.Model
	search textinput.Model
	form   *huh.Form
	fields *expenseFields

	budget   budget.MonthlyBudget
	expenses []budget.Expense

	categoryFilterIdx int

	loading bool
	err     error
	status  string
}

func NewListModel(budgetSvc *budget.Service, matchSvc *matching.Service) ListModel {
	columns := []table.Column{
		{Title: "Fecha", Width: 12},
		{Title: "Categoría", Width: 24},
		{Title: "Importe", Width: 12},
		{Title: "Descripción", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	si := textinput.New()
	si.Placeholder = "Buscar gastos..."
	si.Prompt = "/ "
	si.CharLimit = 100
	si.Width = 40

	return ListModel{
		budgetService:   budgetSvc,
		matchingService: matchSvc,
		table:           t,
		search:          si,
		fields:          &expenseFields{},
		loading:         true,
	}
}

func (m ListModel) Title() string { return "Gastos" }

func (m ListModel) ShortHelp() string {
	switch m.state {
	case listStateSaving:
		return "Guardando..."
	case listStateSearch:
		return "Enter: aplicar | Esc: limpiar"
	case listStateAdd, listStateEdit, listStateDelete:
		return "Esc: cancelar"
	}

	return "Esc: volver | /: buscar | c: categoría | a: añadir | e: editar | x: eliminar | l: recordar categoría | r: recargar"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case budgetLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.budget = msg.budget
			m.refreshTable()
		}

		return m, nil

	case listSaveMsg:
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil
	}

	// input waits for the pending save
	if m.state == listStateSaving {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.state != listStateBrowse {
		if m.state == listStateSearch {
			m.search.SetValue("")
			m.search.Blur()
			m.refreshTable()
		}

		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	switch m.state {
	case listStateSearch:
		return m.updateSearch(msg)
	case listStateAdd, listStateEdit, listStateDelete:
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "/":
			m.state = listStateSearch
			m.table.Blur()

			return m, m.search.Focus()
		case "c":
			m.categoryFilterIdx = (m.categoryFilterIdx + 1) % (len(m.budget.Categories) + 1)
			m.refreshTable()

			return m, nil
		case "a":
			*m.fields = expenseFields{categoryID: suggestCategory}
			m.form = m.expenseForm(true)
			m.state = listStateAdd
			m.table.Blur()

			return m, m.form.Init()
		case "e":
			exp, ok := m.selected()
			if !ok {
				return m, nil
			}

			*m.fields = expenseFields{
				description: exp.Description,
				amount:      budget.FormatAmount(exp.Amount),
				categoryID:  exp.CategoryID,
			}
			m.form = m.expenseForm(false)
			m.state = listStateEdit
			m.table.Blur()

			return m, m.form.Init()
		case "x":
			exp, ok := m.selected()
			if !ok {
				return m, nil
			}

			*m.fields = expenseFields{}
			m.form = huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("¿Eliminar «%s» (%s)?", exp.Description, FormatAmount(exp.Amount))).
						Affirmative("Eliminar").
						Negative("Cancelar").
						Value(&m.fields.confirm),
				),
			).WithWidth(45).WithShowHelp(false)
			m.state = listStateDelete
			m.table.Blur()

			return m, m.form.Init()
		case "l":
			exp, ok := m.selected()
			if !ok {
				return m, nil
			}

			return m, m.learnCmd(exp)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		m.state = listStateBrowse
		m.search.Blur()
		m.table.Focus()

		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refreshTable()

	return m, cmd
}

func (m ListModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	var save tea.Cmd

	switch m.state {
	case listStateAdd:
		save = m.addCmd()
	case listStateEdit:
		save = m.editCmd()
	case listStateDelete:
		if m.fields.confirm {
			save = m.deleteCmd()
		}
	}

	m.form = nil

	if save == nil {
		m.state = listStateBrowse
		m.table.Focus()

		return m, nil
	}

	m.state = listStateSaving

	return m, save
}

func (m ListModel) expenseForm(allowSuggest bool) *huh.Form {
	opts := make([]huh.Option[string], 0, len(m.budget.Categories)+1)
	if allowSuggest {
		opts = append(opts, huh.NewOption("Sugerir según la descripción", suggestCategory))
	}

	for _, c := range m.budget.Categories {
		opts = append(opts, huh.NewOption(c.Name, c.ID))
	}

	f := m.fields

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Descripción").
				Placeholder(budget.QuickExpenseDescription).
				CharLimit(100).
				Value(&f.description).
				Validate(func(s string) error {
					if s = strings.TrimSpace(s); s != "" && len([]rune(s)) < 3 {
						return errors.New("mínimo 3 caracteres")
					}

					return nil
				}),
			huh.NewInput().
				Title("Importe").
				Placeholder("0,00").
				Value(&f.amount).
				Validate(func(s string) error {
					d, err := budget.ParseAmount(s)
					if err != nil || !d.IsPositive() {
						return errors.New("el importe debe ser mayor que cero")
					}

					return nil
				}),
			huh.NewSelect[string]().
				Title("Categoría").
				Options(opts...).
				Height(6).
				Value(&f.categoryID),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m ListModel) selected() (budget.Expense, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.expenses) {
		return budget.Expense{}, false
	}

	return m.expenses[idx], true
}

func (m ListModel) categoryFilter() (budget.Category, bool) {
	if m.categoryFilterIdx == 0 || m.categoryFilterIdx > len(m.budget.Categories) {
		return budget.Category{}, false
	}

	return m.budget.Categories[m.categoryFilterIdx-1], true
}

func (m *ListModel) refreshTable() {
	categoryID := ""
	if c, ok := m.categoryFilter(); ok {
		categoryID = c.ID
	}

	m.expenses = budget.FilterExpenses(m.budget, m.search.Value(), categoryID)

	rows := make([]table.Row, 0, len(m.expenses))
	for _, e := range m.expenses {
		name := e.CategoryID
		if c, ok := m.budget.Category(e.CategoryID); ok {
			name = c.Name
		}

		rows = append(rows, table.Row{
			FormatDate(e.Date),
			name,
			FormatAmount(e.Amount),
			e.Description,
		})
	}

	m.table.SetRows(rows)
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Cargando gastos...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	categoryLabel := "Todas"
	if c, ok := m.categoryFilter(); ok {
		categoryLabel = c.Name
	}

	sum := budget.Summarize(m.expenses)

	header := fmt.Sprintf(
		"%s | [c] Categoría: %s\n%s",
		titleStyle.Render("Gastos "+m.budget.Period().String()),
		activeStyle(categoryLabel),
		faintStyle.Render(fmt.Sprintf("%d gastos · Total %s · Promedio %s",
			sum.Count, FormatAmount(sum.Total), FormatAmount(sum.Average))),
	)

	if m.state == listStateSearch || m.search.Value() != "" {
		header += "\n" + m.search.View()
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if len(m.expenses) == 0 {
		content += "\n" + faintStyle.Render("No hay gastos que coincidan.")
	}

	if m.form != nil {
		title := map[listState]string{
			listStateAdd:    "Nuevo gasto",
			listStateEdit:   "Editar gasto",
			listStateDelete: "Eliminar gasto",
		}[m.state]

		panel := panelStyle.Width(48).Render(titleStyle.Render(title) + "\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// Messages

type listSaveMsg struct {
	status string
	err    error
}

func (m ListModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		b, err := m.budgetService.ActiveBudget(ctx)

		return budgetLoadedMsg{budget: b, err: err}
	}
}

func (m ListModel) addCmd() tea.Cmd {
	f := *m.fields
	p := m.budget.Period()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		amount, err := budget.ParseAmount(f.amount)
		if err != nil {
			return listSaveMsg{err: err}
		}

		categoryID := f.categoryID
		if categoryID == suggestCategory {
			categoryID, err = m.matchingService.Suggest(ctx, f.description)
			if err != nil {
				return listSaveMsg{err: err}
			}

			if categoryID == "" {
				return listSaveMsg{err: errors.New("no hay sugerencia para esa descripción, elige una categoría")}
			}
		}

		exp, err := m.budgetService.RecordExpense(ctx, p, budget.RecordParams{
			CategoryID:  categoryID,
			Amount:      amount,
			Description: f.description,
		})
		if err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{status: fmt.Sprintf("Gasto «%s» añadido.", exp.Description)}
	}
}

func (m ListModel) editCmd() tea.Cmd {
	exp, ok := m.selected()
	if !ok {
		return nil
	}

	f := *m.fields
	p := m.budget.Period()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		amount, err := budget.ParseAmount(f.amount)
		if err != nil {
			return listSaveMsg{err: err}
		}

		desc := strings.TrimSpace(f.description)
		if desc == "" {
			desc = budget.QuickExpenseDescription
		}

		patch := budget.ExpensePatch{
			Description: &desc,
			Amount:      &amount,
			CategoryID:  &f.categoryID,
		}

		if _, err := m.budgetService.UpdateExpense(ctx, p, exp.ID, patch); err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{status: "Gasto actualizado."}
	}
}

func (m ListModel) deleteCmd() tea.Cmd {
	exp, ok := m.selected()
	if !ok {
		return nil
	}

	id := exp.ID
	p := m.budget.Period()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.budgetService.DeleteExpense(ctx, p, id); err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{status: "Gasto eliminado."}
	}
}

// learnCmd remembers the selected expense's description as a pattern for its category.
func (m ListModel) learnCmd(exp budget.Expense) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.matchingService.Learn(ctx, exp.Description, exp.CategoryID); err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{status: fmt.Sprintf("«%s» se asignará a esta categoría en próximas importaciones.", exp.Description)}
	}
}
