package form

// Field identifies one input of the referral form.
type Field int

// Form inputs in tab order.
const (
	GivenName Field = iota
	Surname
	Email
	Phone
	HomeNameOrNumber
	Street
	Suburb
	State
	Postcode
	Country
	Avatar
	fieldCount
)

// Section groups fields under a heading.
type Section string

const (
	SectionDetails Section = "Referral Details"
	SectionAddress Section = "Address"
	SectionAvatar  Section = "Avatar"
)

type fieldSpec struct {
	label       string
	placeholder string
	section     Section
	required    bool
}

var specs = [fieldCount]fieldSpec{
	GivenName:        {"Given Name", "Enter given name", SectionDetails, true},
	Surname:          {"Surname", "Enter surname", SectionDetails, true},
	Email:            {"Email", "Enter email", SectionDetails, true},
	Phone:            {"Phone", "Enter phone number", SectionDetails, true},
	HomeNameOrNumber: {"Home Name or #", "Home Name OR #", SectionAddress, true},
	Street:           {"Street", "Street", SectionAddress, true},
	Suburb:           {"Suburb", "Suburb", SectionAddress, true},
	State:            {"State", "State", SectionAddress, true},
	Postcode:         {"Postcode", "Postcode", SectionAddress, true},
	Country:          {"Country", "Country", SectionAddress, true},
	// The avatar is a local file path only; it is never sent.
	Avatar: {"Upload Avatar", "path/to/avatar.png", SectionAvatar, false},
}

// Fields returns every field in tab order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Label is the text shown next to the input.
func (f Field) Label() string { return specs[f].label }

// Placeholder is shown while the input is empty.
func (f Field) Placeholder() string { return specs[f].placeholder }

// Section is the heading the field is grouped under.
func (f Field) Section() Section { return specs[f].section }

// Required reports whether submit is refused while the field is empty.
func (f Field) Required() bool { return specs[f].required }

func (f Field) String() string { return f.Label() }

func (f Field) valid() bool { return f >= 0 && f < fieldCount }

func (f Field) next() Field { return (f + 1) % fieldCount }

func (f Field) prev() Field { return (f + fieldCount - 1) % fieldCount }
