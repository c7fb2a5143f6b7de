package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/budgetnest/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/budgetnest/internal/auth"
	authStore "github.com/MrJamesThe3rd/budgetnest/internal/auth/store"
	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/budgetnest/internal/budget/store"
	"github.com/MrJamesThe3rd/budgetnest/internal/config"
	"github.com/MrJamesThe3rd/budgetnest/internal/database"
	"github.com/MrJamesThe3rd/budgetnest/internal/export"
	"github.com/MrJamesThe3rd/budgetnest/internal/importer"
	"github.com/MrJamesThe3rd/budgetnest/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/budgetnest/internal/matching/store"
)

type model struct {
	authService     *auth.Service
	budgetService   *budget.Service
	matchingService *matching.Service
	importService   *importer.Service
	exportService   *export.Service

	user        *auth.User
	currentView View
	status      string

	loginView     view.LoginModel
	dashboardView view.DashboardModel
	listView      view.ListModel
	statsView     view.StatisticsModel
	importView    view.ImportModel
	exportView    view.ExportModel
}

type View int

const (
	ViewLogin     View = 0
	ViewMenu      View = 1
	ViewDashboard View = 2
	ViewList      View = 3
	ViewStats     View = 4
	ViewImport    View = 5
	ViewExport    View = 6
)

func initialModel() (model, func()) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	cleanup := func() {}
	budgetOpts := []budget.Option{}
	matchingRepo := matching.Repository(matching.NewMemoryRepository())

	if cfg.Storage.Driver == config.StoragePostgres {
		db, err := openDatabase(cfg)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}

		cleanup = func() { db.Close() }
		budgetOpts = append(budgetOpts, budget.WithRepository(budgetStore.New(db)))
		matchingRepo = matchingStore.New(db)
	}

	budgetSvc := budget.NewService(budget.NewStore(budget.PeriodOf(time.Now())), budgetOpts...)
	if err := budgetSvc.Load(context.Background()); err != nil {
		slog.Error("failed to load budgets", "error", err)
		os.Exit(1)
	}

	authSvc := auth.NewService(authStore.NewFileStore(cfg.Auth.UserFile), auth.Config{
		Secret: []byte(cfg.Auth.Secret),
		TTL:    cfg.Auth.TokenTTL,
		Delay:  cfg.Auth.MockDelay,
	})
	matchSvc := matching.NewService(matchingRepo)
	impSvc := importer.NewService(budgetSvc, matchSvc)
	expSvc := export.NewService(budgetSvc)

	m := model{
		authService:     authSvc,
		budgetService:   budgetSvc,
		matchingService: matchSvc,
		importService:   impSvc,
		exportService:   expSvc,
		currentView:     ViewLogin,
		loginView:       view.NewLoginModel(authSvc),
	}

	// a remembered user skips the login screen
	if u, err := authSvc.Current(context.Background()); err == nil {
		m.user = &u
		m.currentView = ViewMenu
	} else if !errors.Is(err, auth.ErrUnauthorized) {
		slog.Warn("failed to restore session", "error", err)
	}

	return m, cleanup
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (m model) Init() tea.Cmd {
	if m.currentView == ViewLogin {
		return m.loginView.Init()
	}

	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			return m.updateMenu(msg)
		}
	case view.LoggedInMsg:
		m.user = &msg.User
		m.currentView = ViewMenu

		return m, nil
	case loggedOutMsg:
		m.user = nil
		m.status = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("Error al cerrar sesión: %v", msg.err)
		}

		m.currentView = ViewLogin
		m.loginView = view.NewLoginModel(m.authService)

		return m, m.loginView.Init()
	case welcomeDismissedMsg:
		if m.user != nil {
			m.user.IsNew = false
		}

		return m, nil
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewStats:
		var newModel tea.Model
		newModel, cmd = m.statsView.Update(msg)
		m.statsView = newModel.(view.StatisticsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.currentView = ViewDashboard
		m.dashboardView = view.NewDashboardModel(m.budgetService)

		return m, m.dashboardView.Init()
	case "2":
		m.currentView = ViewList
		m.listView = view.NewListModel(m.budgetService, m.matchingService)

		return m, m.listView.Init()
	case "3":
		m.currentView = ViewStats
		m.statsView = view.NewStatisticsModel(m.budgetService)

		return m, m.statsView.Init()
	case "4":
		m.currentView = ViewImport
		m.importView = view.NewImportModel(m.budgetService, m.importService)

		return m, m.importView.Init()
	case "5":
		m.currentView = ViewExport
		m.exportView = view.NewExportModel(m.exportService, m.budgetService.Active())

		return m, m.exportView.Init()
	case "6":
		return m, m.logoutCmd()
	case "w":
		if m.user != nil && m.user.IsNew {
			return m, m.dismissWelcomeCmd()
		}
	}

	return m, nil
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return m.viewMenu()
	case ViewDashboard:
		return withHelp(m.dashboardView)
	case ViewList:
		return withHelp(m.listView)
	case ViewStats:
		return withHelp(m.statsView)
	case ViewImport:
		return withHelp(m.importView)
	case ViewExport:
		return withHelp(m.exportView)
	}

	return "Vista desconocida"
}

func (m model) viewMenu() string {
	header := "BudgetNest"
	if m.user != nil {
		header = fmt.Sprintf("BudgetNest · %s", m.user.Name)
	}

	welcome := ""
	if m.user != nil && m.user.IsNew {
		welcome = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Render(fmt.Sprintf("¡Bienvenido, %s! Empieza registrando tu primer gasto. (w: ocultar)", m.user.Name)) + "\n\n"
	}

	status := ""
	if m.status != "" {
		status = "\n\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
	}

	return lipgloss.NewStyle().Padding(2).Render(
		lipgloss.NewStyle().Bold(true).Render(header) + "\n" +
			lipgloss.NewStyle().Faint(true).Render("Mes activo: "+m.budgetService.Active().String()) + "\n\n" +
			welcome +
			"1. Panel del mes\n" +
			"2. Gastos\n" +
			"3. Estadísticas\n" +
			"4. Importar CSV\n" +
			"5. Exportar\n" +
			"6. Cerrar sesión\n\n" +
			"q. Salir" +
			status,
	)
}

func withHelp(v view.View) string {
	return v.View() + "\n" + lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(v.Title()+" · "+v.ShortHelp())
}

type loggedOutMsg struct {
	err error
}

type welcomeDismissedMsg struct{}

func (m model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.DbCtx()
		defer cancel()

		return loggedOutMsg{err: m.authService.Logout(ctx)}
	}
}

func (m model) dismissWelcomeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.DbCtx()
		defer cancel()

		if err := m.authService.DismissWelcome(ctx); err != nil {
			slog.Warn("failed to dismiss welcome", "error", err)
		}

		return welcomeDismissedMsg{}
	}
}

func main() {
	m, cleanup := initialModel()
	defer cleanup()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
