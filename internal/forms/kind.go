package forms

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned for form kinds the site does not render.
var ErrUnknownKind = errors.New("forms: unknown form kind")

// Kind identifies one of the site's forms.
type Kind string

const (
	KindContact     Kind = "contact"
	KindAppointment Kind = "appointment"
)

// Kinds lists every form kind in render order.
func Kinds() []Kind { return []Kind{KindContact, KindAppointment} }

// ParseKind validates a kind taken from a URL.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindContact, KindAppointment:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// FieldType selects the input control rendered for a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldDate     FieldType = "date"
	FieldCheckbox FieldType = "checkbox"
)

// Field describes one input of a form.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	// Options holds translation key suffixes for select fields.
	Options []string
	MaxLen  int
}

// IsBool reports whether the field carries a boolean value.
func (f Field) IsBool() bool { return f.Type == FieldCheckbox }

// Definition is the static shape of a form kind.
type Definition struct {
	Kind Kind
	// FormType is the discriminator sent to the webhook.
	FormType string
	Fields   []Field
}

// Field looks up a field by name.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required lists the names of required fields.
func (d Definition) Required() []string {
	out := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

var definitions = map[Kind]Definition{
	KindContact: {
		Kind:     KindContact,
		FormType: "contact_form",
		Fields: []Field{
			{Name: "name", Type: FieldText, Required: true, MaxLen: 120},
			{Name: "email", Type: FieldEmail, Required: true, MaxLen: 254},
			{Name: "phone", Type: FieldTel, MaxLen: 40},
			{Name: "subject", Type: FieldSelect, Required: true, Options: []string{"consultation", "prices", "treatment", "other"}},
			{Name: "message", Type: FieldTextarea, Required: true, MaxLen: 4000},
			{Name: "privacy", Type: FieldCheckbox, Required: true},
		},
	},
	KindAppointment: {
		Kind:     KindAppointment,
		FormType: "appointment_request",
		Fields: []Field{
			{Name: "name", Type: FieldText, Required: true, MaxLen: 120},
			{Name: "email", Type: FieldEmail, Required: true, MaxLen: 254},
			{Name: "phone", Type: FieldTel, Required: true, MaxLen: 40},
			{Name: "appointmentType", Type: FieldSelect, Required: true, Options: []string{"onsite", "video", "phone"}},
			{Name: "preferredDate", Type: FieldDate, MaxLen: 10},
			{Name: "message", Type: FieldTextarea, MaxLen: 4000},
			{Name: "privacy", Type: FieldCheckbox, Required: true},
		},
	},
}

// DefinitionFor returns the field definition of kind.
func DefinitionFor(kind Kind) (Definition, error) {
	def, ok := definitions[kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return def, nil
}
