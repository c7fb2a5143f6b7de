package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
	"github.com/MrJamesThe3rd/budgetnest/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateImporting
	importStateResult
)

type ImportModel struct {
	CommonModel
	budgetService *budget.Service
	importService *importer.Service

	state      importState
	filePicker filepicker.Model
	period     budget.Period

	skippedList list.Model
	report      importer.Report

	status string
	err    error
}

func NewImportModel(budgetSvc *budget.Service, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		budgetService: budgetSvc,
		importService: impSvc,
		filePicker:    fp,
		period:        budgetSvc.Active(),
	}
}

func (m ImportModel) Title() string { return "Importar CSV" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStateResult {
		return "Esc: volver"
	}

	return "Esc: volver | Enter: seleccionar"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateResult {
			var cmd tea.Cmd
			m.skippedList, cmd = m.skippedList.Update(msg)

			return m, cmd
		}

	case importResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.report = msg.report
		m.status = fmt.Sprintf("Importados %d gastos en %s (%d categorías sugeridas, codificación %s).",
			len(msg.report.Imported), m.period, msg.report.Suggested, msg.report.Charset)

		items := make([]list.Item, len(msg.report.Skipped))
		for i, s := range msg.report.Skipped {
			items[i] = skippedItem(s)
		}

		m.skippedList = list.New(items, skippedDelegate{}, 80, 12)
		m.skippedList.Title = fmt.Sprintf("Filas omitidas (%d)", len(items))
		m.skippedList.SetShowStatusBar(false)
		m.skippedList.SetFilteringEnabled(false)
		m.skippedList.SetShowHelp(false)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.period = m.budgetService.Active()
		m.status = fmt.Sprintf("Importando %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	if m.state == importStateResult {
		m.state = importStateFilePick
		m.err = nil
		m.status = ""

		return m, m.filePicker.Init()
	}

	return m, Back
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s\n%s\n\n%s",
				titleStyle.Render("Importar gastos en "+m.period.String()),
				faintStyle.Render("Columnas: Fecha;Descripción;Categoría;Importe"),
				m.filePicker.View(),
			),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle.Render(m.status) + "\n\nNo se ha importado ningún gasto. (Esc para volver)")
	}

	content := successStyle.Render(m.status)
	if len(m.report.Skipped) > 0 {
		content += "\n\n" + m.skippedList.View()
	}

	return style.Render(content + "\n\n(Esc para volver)")
}

// Messages

type importResultMsg struct {
	report importer.Report
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	p := m.period

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		report, err := m.importService.Import(ctx, p, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{report: report}
	}
}

// Skipped row list

type skippedItem importer.Skipped

func (i skippedItem) Title() string       { return fmt.Sprintf("Línea %d", i.Line) }
func (i skippedItem) Description() string { return i.Reason }
func (i skippedItem) FilterValue() string { return i.Reason }

type skippedDelegate struct{}

func (d skippedDelegate) Height() int                             { return 1 }
func (d skippedDelegate) Spacing() int                            { return 0 }
func (d skippedDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d skippedDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(skippedItem)
	if !ok {
		return
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	fmt.Fprintf(w, "%s%s  %s", cursor, item.Title(), faintStyle.Render(item.Reason))
}
