package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/client"
	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/form"
)

// fakeAPI is an in-memory referral API that records every request.
type fakeAPI struct {
	mu        sync.Mutex
	referrals []client.Referral
	requests  []string
	nextID    int
	failPost  bool
}

func (f *fakeAPI) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	id := strings.TrimPrefix(r.URL.Path, "/api/referrals/")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/referrals":
		_ = json.NewEncoder(w).Encode(f.referrals)
	case r.Method == http.MethodPost && r.URL.Path == "/api/referrals":
		if f.failPost {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"request validation failed","fields":{"email":"must be a valid email address"}}`)
			return
		}
		var ref client.Referral
		_ = json.NewDecoder(r.Body).Decode(&ref)
		f.nextID++
		ref.ID = fmt.Sprintf("srv-%d", f.nextID)
		f.referrals = append(f.referrals, ref)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(ref)
	case r.Method == http.MethodDelete:
		for i, ref := range f.referrals {
			if ref.ID == id {
				f.referrals = append(f.referrals[:i], f.referrals[i+1:]...)
				_, _ = io.WriteString(w, `{"message":"Referral deleted successfully"}`)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Referral not found"}`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func sample(id, given string) client.Referral {
	return client.Referral{
		ID:        id,
		GivenName: given,
		Surname:   "Doe",
		Email:     strings.ToLower(given) + "@example.com",
		Phone:     "0400000000",
		Address: client.Address{
			HomeNameOrNumber: "12",
			Street:           "Main St",
			Suburb:           "Carlton",
			State:            "VIC",
			Postcode:         "3053",
			Country:          "Australia",
		},
	}
}

func newTestModel(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New(client.New(srv.URL, 2*time.Second, logger), 2*time.Second, logger)

	m = send(t, m, m.loadReferrals()())
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

// press sends a key and drops the returned command.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, _ := m.Update(k)
	return next.(Model)
}

// pressAndRun sends a key that triggers an API call, runs the call and feeds
// its result back into the model.
func pressAndRun(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	require.NotNil(t, cmd)
	return send(t, m, cmd())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	ctrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
)

func fillForm(t *testing.T, m Model, r client.Referral) Model {
	t.Helper()
	values := []string{
		r.GivenName, r.Surname, r.Email, r.Phone,
		r.Address.HomeNameOrNumber, r.Address.Street, r.Address.Suburb,
		r.Address.State, r.Address.Postcode, r.Address.Country,
	}
	for _, v := range values {
		m = press(t, m, runes(v))
		m = press(t, m, tab)
	}
	return m
}

func TestInit_LoadsList(t *testing.T) {
	api := &fakeAPI{referrals: []client.Referral{sample("a", "Ann"), sample("b", "Bob")}}
	m := newTestModel(t, api)

	assert.Len(t, m.form.Entries(), 2)
	rows := m.table.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "Ann", rows[0][1])
	assert.Equal(t, []string{">", "N/A", "N/A", "N/A", "N/A"}, []string(rows[2]))
	assert.Equal(t, "2 referrals loaded", m.status)
	assert.Equal(t, []string{"GET /api/referrals"}, api.requestLog())
}

func TestTyping_UpdatesPreview(t *testing.T) {
	m := newTestModel(t, &fakeAPI{})

	m = press(t, m, runes("Jane"))

	assert.Equal(t, "Jane", m.form.Value(form.GivenName))
	rows := m.table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane", rows[0][1])
	assert.Equal(t, "N/A", rows[0][2])
}

func TestSubmit_CreatesAndResets(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)

	m = fillForm(t, m, sample("", "Jane"))
	assert.Equal(t, form.Avatar, m.form.Focus())
	m = pressAndRun(t, m, enter)

	entries := m.form.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "srv-1", entries[0].Referral.ID)
	assert.Equal(t, "Carlton", entries[0].Referral.Address.Suburb)
	assert.Equal(t, statusOK, m.statusKind)
	for i := range m.inputs {
		assert.Empty(t, m.inputs[i].Value())
	}
	assert.Equal(t, form.GivenName, m.form.Focus())
	assert.Equal(t, []string{"GET /api/referrals", "POST /api/referrals"}, api.requestLog())
}

func TestSubmit_MissingFieldNoRequest(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	m = press(t, m, runes("Jane"))

	m = press(t, m, ctrlS)

	assert.Equal(t, statusError, m.statusKind)
	assert.Equal(t, "Surname is required", m.status)
	assert.Equal(t, form.Surname, m.form.Focus())
	assert.Equal(t, "Jane", m.inputs[form.GivenName].Value())
	assert.Equal(t, []string{"GET /api/referrals"}, api.requestLog())
}

func TestSubmit_MalformedEmailNoRequest(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	r := sample("", "Jane")
	r.Email = "not-an-email"

	m = fillForm(t, m, r)
	m = press(t, m, ctrlS)

	assert.Equal(t, statusError, m.statusKind)
	assert.Equal(t, "Email must be a valid email address", m.status)
	assert.Equal(t, form.Email, m.form.Focus())
	assert.Equal(t, "Jane", m.inputs[form.GivenName].Value())
	assert.Equal(t, "not-an-email", m.inputs[form.Email].Value())
	assert.Equal(t, []string{"GET /api/referrals"}, api.requestLog())
}

func TestEdit_RefusedWhileCreateInFlight(t *testing.T) {
	api := &fakeAPI{referrals: []client.Referral{sample("a", "Ann")}}
	m := newTestModel(t, api)
	m = fillForm(t, m, sample("", "Jane"))

	next, create := m.Update(ctrlS)
	m = next.(Model)
	require.NotNil(t, create)
	m = press(t, m, esc)
	m = press(t, m, runes("e"))

	assert.Equal(t, statusPending, m.statusKind)
	assert.Equal(t, "Still submitting...", m.status)
	_, editing := m.form.Editing()
	assert.False(t, editing)

	m = send(t, m, create())
	assert.Equal(t, statusOK, m.statusKind)
	assert.Equal(t, "Referral created for Jane Doe", m.status)
	assert.Len(t, m.form.Entries(), 2)
}

func TestSubmit_CreateFailureKeepsList(t *testing.T) {
	api := &fakeAPI{referrals: []client.Referral{sample("a", "Ann")}, failPost: true}
	m := newTestModel(t, api)

	m = fillForm(t, m, sample("", "Jane"))
	m = pressAndRun(t, m, ctrlS)

	assert.Equal(t, statusError, m.statusKind)
	assert.Contains(t, m.status, "request validation failed")
	assert.Len(t, m.form.Entries(), 1)
	assert.False(t, m.form.Submitting())
	assert.Empty(t, m.inputs[form.GivenName].Value())
}

func TestEdit_IssuesNoHTTPRequest(t *testing.T) {
	api := &fakeAPI{referrals: []client.Referral{sample("a", "Ann"), sample("b", "Bob")}}
	m := newTestModel(t, api)

	m = press(t, m, esc)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, runes("e"))

	assert.Equal(t, paneForm, m.active)
	assert.Equal(t, "Bob", m.inputs[form.GivenName].Value())
	assert.Equal(t, "Main St", m.inputs[form.Street].Value())
	assert.Equal(t, "Update Referral", m.form.SubmitLabel())

	m = press(t, m, tab)
	m = press(t, m, runes("by"))
	m = press(t, m, ctrlS)

	entries := m.form.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[1].Referral.ID)
	assert.Equal(t, "Doeby", entries[1].Referral.Surname)
	assert.True(t, entries[1].Local)
	assert.Equal(t, localMark, m.table.Rows()[1][0])
	assert.Equal(t, "Create Referral", m.form.SubmitLabel())
	assert.Equal(t, []string{"GET /api/referrals"}, api.requestLog())

	api.mu.Lock()
	assert.Equal(t, "Doe", api.referrals[1].Surname)
	api.mu.Unlock()
}

func TestDelete_RemovesRow(t *testing.T) {
	api := &fakeAPI{referrals: []client.Referral{sample("a", "Ann"), sample("b", "Bob")}}
	m := newTestModel(t, api)

	m = press(t, m, esc)
	m = pressAndRun(t, m, runes("d"))

	entries := m.form.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Referral.ID)
	assert.Equal(t, "Referral deleted", m.status)
	assert.Equal(t, []string{"GET /api/referrals", "DELETE /api/referrals/a"}, api.requestLog())
}

func TestDelete_FailureKeepsRow(t *testing.T) {
	api := &fakeAPI{referrals: []client.Referral{sample("a", "Ann")}}
	m := newTestModel(t, api)

	api.mu.Lock()
	api.referrals = nil
	api.mu.Unlock()

	m = press(t, m, esc)
	m = pressAndRun(t, m, runes("d"))

	assert.Len(t, m.form.Entries(), 1)
	assert.Equal(t, statusError, m.statusKind)
	assert.Equal(t, "Delete failed: Referral not found", m.status)
}

func TestPreviewRow_IgnoresEditAndDelete(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)

	m = press(t, m, esc)
	m = press(t, m, runes("e"))
	m = press(t, m, runes("d"))

	assert.Equal(t, paneList, m.active)
	_, editing := m.form.Editing()
	assert.False(t, editing)
	assert.Equal(t, []string{"GET /api/referrals"}, api.requestLog())
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, &fakeAPI{})
	assert.False(t, m.help.ShowAll)

	m = press(t, m, esc)
	m = press(t, m, runes("?"))
	assert.True(t, m.help.ShowAll)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, &fakeAPI{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_ShowsLayout(t *testing.T) {
	m := newTestModel(t, &fakeAPI{referrals: []client.Referral{sample("a", "Ann")}})

	view := m.View()
	for _, want := range []string{
		"Referral Details", "Address", "Upload Avatar", "Create Referral",
		"Given Name", "Surname", "Phone", "Email", "Ann",
	} {
		assert.Contains(t, view, want)
	}
}
