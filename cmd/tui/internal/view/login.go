package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/budgetnest/internal/auth"
)

type loginMode string

const (
	loginModeSignIn   loginMode = "signin"
	loginModeRegister loginMode = "register"
)

// LoggedInMsg is emitted once a session has been opened.
type LoggedInMsg struct {
	User auth.User
}

type LoginModel struct {
	CommonModel
	authService *auth.Service

	form    *huh.Form
	loading bool
	err     error

	fields *loginFields
}

// loginFields is shared by value copies of the model so the form bindings stay valid.
type loginFields struct {
	mode     loginMode
	name     string
	email    string
	password string
}

func NewLoginModel(authSvc *auth.Service) LoginModel {
	m := LoginModel{authService: authSvc, fields: &loginFields{mode: loginModeSignIn}}
	m.form = m.buildForm()

	return m
}

func (m LoginModel) Title() string { return "Iniciar sesión" }

func (m LoginModel) ShortHelp() string { return "Enter: continuar | Ctrl+C: salir" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) buildForm() *huh.Form {
	f := m.fields

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[loginMode]().
				Title("BudgetNest").
				Options(
					huh.NewOption("Iniciar sesión", loginModeSignIn),
					huh.NewOption("Crear cuenta", loginModeRegister),
				).
				Value(&f.mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Nombre").
				Value(&f.name).
				Validate(func(s string) error {
					if n := len([]rune(strings.TrimSpace(s))); n < 2 || n > 60 {
						return errors.New("el nombre debe tener entre 2 y 60 caracteres")
					}

					return nil
				}),
		).WithHideFunc(func() bool { return f.mode != loginModeRegister }),
		huh.NewGroup(
			huh.NewInput().
				Title("Correo electrónico").
				Placeholder("tu@correo.com").
				Value(&f.email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return errors.New("introduce un correo válido")
					}

					return nil
				}),
			huh.NewInput().
				Title("Contraseña").
				EchoMode(huh.EchoModePassword).
				Value(&f.password),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		m.loading = false
		if res.err != nil {
			m.err = res.err
			m.fields.password = ""
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return LoggedInMsg{User: res.user} }
	}

	if m.loading {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.loading = true
	m.err = nil

	return m, m.submitCmd()
}

func (m LoginModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Comprobando credenciales...")
	}

	content := titleStyle.Render("Gestiona tu presupuesto mensual") + "\n\n" + m.form.View()
	if m.err != nil {
		content += "\n" + errorStyle.Render(m.err.Error())
	}

	return lipgloss.NewStyle().Padding(2).Render(panelStyle.Render(content))
}

type loginResultMsg struct {
	user auth.User
	err  error
}

func (m LoginModel) submitCmd() tea.Cmd {
	f := *m.fields

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			sess auth.Session
			err  error
		)

		if f.mode == loginModeRegister {
			sess, err = m.authService.Register(ctx, f.name, f.email, f.password)
		} else {
			sess, err = m.authService.Login(ctx, f.email, f.password)
		}

		if err != nil {
			return loginResultMsg{err: fmt.Errorf("no se pudo iniciar sesión: %w", err)}
		}

		return loginResultMsg{user: sess.User}
	}
}
