// Package form holds the referral builder's state without any terminal
// dependency: input values, focus, the local referral list and the
// create/edit cycle.
//
// A submit while editing overwrites the local copy of the record only. The
// API has no update endpoint, so edited rows are flagged Local and diverge
// from the server until the next full reload.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/davoseaworthui/referral-builder-next/pkg/validator"
	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/client"
)

// Placeholder is shown in the preview row for empty values.
const Placeholder = "N/A"

var (
	// ErrBusy is returned when a submit or edit is attempted while a create
	// is in flight.
	ErrBusy = errors.New("a submit is already in progress")

	// ErrUnknownReferral is returned when editing an ID not in the local list.
	ErrUnknownReferral = errors.New("referral not in list")
)

// MissingFieldError reports the first required field left empty.
type MissingFieldError struct {
	Field Field
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field.Label())
}

// InvalidFieldError reports a field whose value is malformed.
type InvalidFieldError struct {
	Field  Field
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field.Label(), e.Reason)
}

// Entry is one row of the referral list.
type Entry struct {
	Referral client.Referral
	// Local marks a row edited in the UI and never sent to the API.
	Local bool
}

// Kind tells the caller what a submit requires.
type Kind int

const (
	// KindCreate means the referral must be posted; the caller reports the
	// outcome through CreateSucceeded or CreateFailed.
	KindCreate Kind = iota + 1
	// KindLocalUpdate means the local list was already updated.
	KindLocalUpdate
)

// Submission is the result of a successful Submit.
type Submission struct {
	Kind     Kind
	Referral client.Referral
}

// Form is the state of the referral builder. The zero value is not usable;
// call New.
type Form struct {
	values     [fieldCount]string
	focus      Field
	editingID  string
	submitting bool
	entries    []Entry
}

// New returns an empty form focused on the first field.
func New() *Form {
	return &Form{focus: GivenName}
}

// Value returns the current value of f.
func (m *Form) Value(f Field) string {
	if !f.valid() {
		return ""
	}
	return m.values[f]
}

// SetValue replaces the value of f.
func (m *Form) SetValue(f Field, v string) {
	if f.valid() {
		m.values[f] = v
	}
}

// Focus returns the focused field.
func (m *Form) Focus() Field { return m.focus }

// SetFocus focuses f.
func (m *Form) SetFocus(f Field) {
	if f.valid() {
		m.focus = f
	}
}

// FocusNext moves focus to the next field, wrapping after the last.
func (m *Form) FocusNext() { m.focus = m.focus.next() }

// FocusPrev moves focus to the previous field, wrapping before the first.
func (m *Form) FocusPrev() { m.focus = m.focus.prev() }

// OnLastField reports whether focus is on the last input.
func (m *Form) OnLastField() bool { return m.focus == fieldCount-1 }

// Current builds a referral from the input values. The avatar is not part
// of it.
func (m *Form) Current() client.Referral {
	return client.Referral{
		ID:        m.editingID,
		GivenName: m.values[GivenName],
		Surname:   m.values[Surname],
		Email:     m.values[Email],
		Phone:     m.values[Phone],
		Address: client.Address{
			HomeNameOrNumber: m.values[HomeNameOrNumber],
			Street:           m.values[Street],
			Suburb:           m.values[Suburb],
			State:            m.values[State],
			Postcode:         m.values[Postcode],
			Country:          m.values[Country],
		},
	}
}

// Preview returns the table columns (given name, surname, phone, email) of
// the uncommitted form values, with Placeholder for empty ones.
func (m *Form) Preview() []string {
	cols := []Field{GivenName, Surname, Phone, Email}
	out := make([]string, len(cols))
	for i, f := range cols {
		out[i] = orPlaceholder(m.values[f])
	}
	return out
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// checkFormat validates the fields that have a format beyond being present.
func (m *Form) checkFormat() error {
	if validator.Check(strings.TrimSpace(m.values[Email]), "email") != nil {
		return &InvalidFieldError{Field: Email, Reason: "must be a valid email address"}
	}
	return nil
}

// FirstMissing returns the first required field that is blank.
func (m *Form) FirstMissing() (Field, bool) {
	for _, f := range Fields() {
		if f.Required() && strings.TrimSpace(m.values[f]) == "" {
			return f, true
		}
	}
	return 0, false
}

// Editing returns the ID being edited, if any.
func (m *Form) Editing() (string, bool) {
	return m.editingID, m.editingID != ""
}

// Submitting reports whether a create is in flight.
func (m *Form) Submitting() bool { return m.submitting }

// SubmitLabel is the caption of the submit button.
func (m *Form) SubmitLabel() string {
	if m.editingID != "" {
		return "Update Referral"
	}
	return "Create Referral"
}

// Entries returns a copy of the referral list.
func (m *Form) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// SetEntries replaces the list with referrals fetched from the API.
func (m *Form) SetEntries(referrals []client.Referral) {
	m.entries = make([]Entry, len(referrals))
	for i, r := range referrals {
		m.entries[i] = Entry{Referral: r}
	}
}

func (m *Form) indexOf(id string) int {
	for i, e := range m.entries {
		if e.Referral.ID == id {
			return i
		}
	}
	return -1
}

// BeginEdit copies every field of the referral with the given ID, nested
// address included, into the inputs and enters edit mode. It is refused
// with ErrBusy while a create is in flight, since the create's outcome
// resets the form.
func (m *Form) BeginEdit(id string) error {
	if m.submitting {
		return ErrBusy
	}
	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("edit %q: %w", id, ErrUnknownReferral)
	}
	r := m.entries[i].Referral

	avatar := m.values[Avatar]
	m.values = [fieldCount]string{
		GivenName:        r.GivenName,
		Surname:          r.Surname,
		Email:            r.Email,
		Phone:            r.Phone,
		HomeNameOrNumber: r.Address.HomeNameOrNumber,
		Street:           r.Address.Street,
		Suburb:           r.Address.Suburb,
		State:            r.Address.State,
		Postcode:         r.Address.Postcode,
		Country:          r.Address.Country,
		Avatar:           avatar,
	}
	m.editingID = id
	m.focus = GivenName
	return nil
}

// CancelEdit leaves edit mode and clears the inputs.
func (m *Form) CancelEdit() {
	m.Reset()
}

// Submit validates the inputs. While editing, the matching local entry is
// overwritten (ID kept) and the form is reset without any API call.
// Otherwise the caller must post Submission.Referral and then call
// CreateSucceeded or CreateFailed.
//
// A blank required field refuses the submit with a *MissingFieldError, and
// a malformed email with an *InvalidFieldError. Either moves focus to the
// field and keeps every input as typed.
func (m *Form) Submit() (Submission, error) {
	if m.submitting {
		return Submission{}, ErrBusy
	}
	if f, missing := m.FirstMissing(); missing {
		m.focus = f
		return Submission{}, &MissingFieldError{Field: f}
	}
	if err := m.checkFormat(); err != nil {
		var invalid *InvalidFieldError
		if errors.As(err, &invalid) {
			m.focus = invalid.Field
		}
		return Submission{}, err
	}

	referral := m.Current()
	if m.editingID != "" {
		if i := m.indexOf(m.editingID); i >= 0 {
			m.entries[i] = Entry{Referral: referral, Local: true}
		}
		m.Reset()
		return Submission{Kind: KindLocalUpdate, Referral: referral}, nil
	}

	m.submitting = true
	return Submission{Kind: KindCreate, Referral: referral}, nil
}

// CreateSucceeded appends the server's record and resets the form.
func (m *Form) CreateSucceeded(created client.Referral) {
	m.entries = append(m.entries, Entry{Referral: created})
	m.submitting = false
	m.Reset()
}

// CreateFailed leaves the list unchanged and resets the form.
func (m *Form) CreateFailed() {
	m.submitting = false
	m.Reset()
}

// Remove drops the entry with the given ID after the API deleted it. Editing
// that entry is cancelled.
func (m *Form) Remove(id string) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	if m.editingID == id {
		m.Reset()
	}
	return true
}

// Reset clears every input and leaves edit mode.
func (m *Form) Reset() {
	m.values = [fieldCount]string{}
	m.editingID = ""
	m.focus = GivenName
}
