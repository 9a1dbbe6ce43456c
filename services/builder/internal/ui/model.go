// Package ui is the Bubble Tea front end of the referral builder: a form pane
// with live preview and a list pane backed by the referral API.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/davoseaworthui/referral-builder-next/pkg/errors"
	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/client"
	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/form"
)

// ReferralAPI is the subset of the API client the UI needs.
type ReferralAPI interface {
	ListReferrals(ctx context.Context) ([]client.Referral, error)
	CreateReferral(ctx context.Context, referral client.Referral) (*client.Referral, error)
	DeleteReferral(ctx context.Context, id string) error
}

type pane int

const (
	paneForm pane = iota
	paneList
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusPending
	statusError
)

type (
	referralsLoadedMsg struct {
		referrals []client.Referral
		err       error
	}
	referralCreatedMsg struct {
		referral *client.Referral
		err      error
	}
	referralDeletedMsg struct {
		id  string
		err error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	api     ReferralAPI
	timeout time.Duration
	logger  *slog.Logger

	form   *form.Form
	inputs []textinput.Model
	table  table.Model
	keys   keyMap
	help   help.Model

	active     pane
	status     string
	statusKind statusKind
	width      int
}

// New creates the model. Every API call gets its own context bounded by
// timeout.
func New(api ReferralAPI, timeout time.Duration, logger *slog.Logger) Model {
	m := Model{
		api:     api,
		timeout: timeout,
		logger:  logger,
		form:    form.New(),
		keys:    defaultKeyMap(),
		help:    help.New(),
		active:  paneForm,
		status:  "Loading referrals...",

		statusKind: statusPending,
	}

	m.inputs = make([]textinput.Model, len(form.Fields()))
	for i, f := range form.Fields() {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.Placeholder()
		ti.CharLimit = charLimit(f)
		ti.Width = 32
		m.inputs[i] = ti
	}

	m.table = table.New(
		table.WithColumns([]table.Column{
			{Title: localMark, Width: 1},
			{Title: "Given Name", Width: 14},
			{Title: "Surname", Width: 14},
			{Title: "Phone", Width: 14},
			{Title: "Email", Width: 26},
		}),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	m.table.SetStyles(styles)

	m.syncInputs()
	m.refreshTable()
	return m
}

// charLimit mirrors the API's length limits so oversize values are never sent.
func charLimit(f form.Field) int {
	switch f {
	case form.Street, form.Email:
		return 255
	case form.Phone:
		return 50
	case form.Postcode:
		return 20
	case form.Avatar:
		return 1024
	default:
		return 100
	}
}

// Init fetches the referral list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadReferrals(), textinput.Blink)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case referralsLoadedMsg:
		if msg.err != nil {
			m.logger.Error("load referrals failed", slog.String("error", msg.err.Error()))
			m.setStatus(statusError, "Could not load referrals: "+userMessage(msg.err))
			return m, nil
		}
		m.form.SetEntries(msg.referrals)
		m.refreshTable()
		m.setStatus(statusInfo, pluralize(len(msg.referrals), "referral")+" loaded")
		return m, nil

	case referralCreatedMsg:
		if msg.err != nil {
			m.logger.Error("create referral failed", slog.String("error", msg.err.Error()))
			m.form.CreateFailed()
			m.setStatus(statusError, "Create failed: "+userMessage(msg.err))
		} else {
			m.form.CreateSucceeded(*msg.referral)
			m.setStatus(statusOK, "Referral created for "+msg.referral.FullName())
		}
		m.syncInputs()
		m.refreshTable()
		return m, nil

	case referralDeletedMsg:
		if msg.err != nil {
			m.logger.Error("delete referral failed",
				slog.String("referral_id", msg.id),
				slog.String("error", msg.err.Error()),
			)
			m.setStatus(statusError, "Delete failed: "+userMessage(msg.err))
			return m, nil
		}
		m.form.Remove(msg.id)
		m.syncInputs()
		m.refreshTable()
		m.setStatus(statusOK, "Referral deleted")
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Submit) {
			return m.submit()
		}
		if key.Matches(msg, m.keys.Switch) {
			return m.switchPane()
		}
		if m.active == paneList {
			return m.updateList(msg)
		}
		return m.updateForm(msg)
	}

	if m.active == paneForm {
		f := m.form.Focus()
		var cmd tea.Cmd
		m.inputs[f], cmd = m.inputs[f].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next):
		m.form.FocusNext()
		return m, m.syncInputs()
	case key.Matches(msg, m.keys.Prev):
		m.form.FocusPrev()
		return m, m.syncInputs()
	case key.Matches(msg, m.keys.Enter):
		if m.form.OnLastField() {
			return m.submit()
		}
		m.form.FocusNext()
		return m, m.syncInputs()
	}

	f := m.form.Focus()
	var cmd tea.Cmd
	m.inputs[f], cmd = m.inputs[f].Update(msg)
	m.form.SetValue(f, m.inputs[f].Value())
	m.refreshTable()
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		entry, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.form.BeginEdit(entry.Referral.ID); err != nil {
			if errors.Is(err, form.ErrBusy) {
				m.setStatus(statusPending, "Still submitting...")
				return m, nil
			}
			m.setStatus(statusError, err.Error())
			return m, nil
		}
		m.setStatus(statusInfo, "Editing "+entry.Referral.FullName()+" (changes stay local)")
		m.active = paneForm
		m.table.Blur()
		m.refreshTable()
		return m, m.syncInputs()
	case key.Matches(msg, m.keys.Delete):
		entry, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.setStatus(statusPending, "Deleting referral...")
		return m, m.deleteReferral(entry.Referral.ID)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// selected returns the entry under the table cursor. The trailing preview
// row has no entry.
func (m Model) selected() (form.Entry, bool) {
	entries := m.form.Entries()
	i := m.table.Cursor()
	if i < 0 || i >= len(entries) {
		return form.Entry{}, false
	}
	return entries[i], true
}

func (m Model) switchPane() (tea.Model, tea.Cmd) {
	if m.active == paneForm {
		m.active = paneList
		m.table.Focus()
		for i := range m.inputs {
			m.inputs[i].Blur()
		}
		return m, nil
	}
	m.active = paneForm
	m.table.Blur()
	return m, m.syncInputs()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	sub, err := m.form.Submit()
	if err != nil {
		var (
			missing *form.MissingFieldError
			invalid *form.InvalidFieldError
		)
		switch {
		case errors.Is(err, form.ErrBusy):
			m.setStatus(statusPending, "Still submitting...")
			return m, nil
		case errors.As(err, &missing), errors.As(err, &invalid):
			m.active = paneForm
			m.table.Blur()
		}
		m.setStatus(statusError, err.Error())
		return m, m.syncInputs()
	}

	if sub.Kind == form.KindLocalUpdate {
		m.setStatus(statusOK, "Referral updated locally (not synced)")
		m.refreshTable()
		return m, m.syncInputs()
	}

	m.setStatus(statusPending, "Creating referral...")
	return m, m.createReferral(sub.Referral)
}

// syncInputs copies form values and focus into the text inputs.
func (m *Model) syncInputs() tea.Cmd {
	var cmd tea.Cmd
	for i, f := range form.Fields() {
		if m.inputs[i].Value() != m.form.Value(f) {
			m.inputs[i].SetValue(m.form.Value(f))
		}
		if m.active == paneForm && f == m.form.Focus() {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// refreshTable rebuilds the rows: one per entry and a trailing preview row.
func (m *Model) refreshTable() {
	entries := m.form.Entries()
	rows := make([]table.Row, 0, len(entries)+1)
	for _, e := range entries {
		mark := ""
		if e.Local {
			mark = localMark
		}
		r := e.Referral
		rows = append(rows, table.Row{mark, r.GivenName, r.Surname, r.Phone, r.Email})
	}
	rows = append(rows, append(table.Row{">"}, m.form.Preview()...))
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

// userMessage prefers the API's own message over the wrapped error chain.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

func (m Model) loadReferrals() tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		referrals, err := api.ListReferrals(ctx)
		return referralsLoadedMsg{referrals: referrals, err: err}
	}
}

func (m Model) createReferral(referral client.Referral) tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		created, err := api.CreateReferral(ctx, referral)
		return referralCreatedMsg{referral: created, err: err}
	}
}

func (m Model) deleteReferral(id string) tea.Cmd {
	api, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return referralDeletedMsg{id: id, err: api.DeleteReferral(ctx, id)}
	}
}
