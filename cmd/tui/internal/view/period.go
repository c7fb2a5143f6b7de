package view

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

// PeriodSelectedMsg is emitted when the user has picked a month and year.
type PeriodSelectedMsg struct {
	Period budget.Period
}

type periodFields struct {
	month budget.Month
	year  string
}

// PeriodPicker is a reusable form for choosing a budget period.
type PeriodPicker struct {
	form   *huh.Form
	fields *periodFields
}

func NewPeriodPicker(current budget.Period) PeriodPicker {
	f := &periodFields{month: current.Month, year: strconv.Itoa(current.Year)}

	opts := make([]huh.Option[budget.Month], len(budget.Months))
	for i, m := range budget.Months {
		opts[i] = huh.NewOption(string(m), m)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[budget.Month]().
				Title("Mes").
				Options(opts...).
				Height(8).
				Value(&f.month),
			huh.NewInput().
				Title("Año").
				CharLimit(4).
				Value(&f.year).
				Validate(func(s string) error {
					if y, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || y < 1 {
						return errors.New("año no válido")
					}

					return nil
				}),
		),
	).WithWidth(30).WithShowHelp(false)

	return PeriodPicker{form: form, fields: f}
}

func (p PeriodPicker) Init() tea.Cmd {
	return p.form.Init()
}

func (p PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State != huh.StateCompleted {
		return p, cmd
	}

	year, _ := strconv.Atoi(strings.TrimSpace(p.fields.year))
	sel := budget.Period{Month: p.fields.month, Year: year}

	return p, func() tea.Msg { return PeriodSelectedMsg{Period: sel} }
}

func (p PeriodPicker) View() string {
	return titleStyle.Render("Cambiar mes") + "\n\n" + p.form.View()
}

// shiftPeriod moves p by delta months.
func shiftPeriod(p budget.Period, delta int) budget.Period {
	t := p.Start().AddDate(0, delta, 0)
	return budget.PeriodOf(t)
}
