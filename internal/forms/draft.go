package forms

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// Draft is the flat field-name to value record of one form instance.
type Draft struct {
	Values map[string]string
	Flags  map[string]bool
}

// NewDraft returns the empty default draft.
func NewDraft() Draft {
	return Draft{Values: map[string]string{}, Flags: map[string]bool{}}
}

// Value returns a string field.
func (d Draft) Value(name string) string { return d.Values[name] }

// Checked returns a boolean field.
func (d Draft) Checked(name string) bool { return d.Flags[name] }

// IsEmpty reports whether the draft equals the default draft.
func (d Draft) IsEmpty() bool {
	for _, v := range d.Values {
		if v != "" {
			return false
		}
	}
	for _, v := range d.Flags {
		if v {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (d Draft) Clone() Draft {
	cp := NewDraft()
	for k, v := range d.Values {
		cp.Values[k] = v
	}
	for k, v := range d.Flags {
		cp.Flags[k] = v
	}
	return cp
}

// Missing lists required fields that have no value.
func (d Draft) Missing(def Definition) []string {
	var missing []string
	for _, f := range def.Fields {
		if !f.Required {
			continue
		}
		if f.IsBool() {
			if !d.Flags[f.Name] {
				missing = append(missing, f.Name)
			}
			continue
		}
		if strings.TrimSpace(d.Values[f.Name]) == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Apply copies known fields from submitted form values into the draft.
// Unknown keys are ignored; checkboxes absent from values become false.
func (d *Draft) Apply(def Definition, values map[string][]string) {
	if d.Values == nil || d.Flags == nil {
		*d = NewDraft()
	}
	for _, f := range def.Fields {
		raw := values[f.Name]
		if f.IsBool() {
			d.Flags[f.Name] = len(raw) > 0 && truthy(raw[len(raw)-1])
			continue
		}
		if len(raw) == 0 {
			continue
		}
		d.Values[f.Name] = cleanValue(f, raw[len(raw)-1])
	}
}

func cleanValue(f Field, v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	// strip markup; the payload carries plain text
	v = html.UnescapeString(stripPolicy.Sanitize(v))
	if f.Type == FieldSelect && len(f.Options) > 0 && !containsString(f.Options, v) {
		return ""
	}
	if f.MaxLen > 0 && utf8.RuneCountInString(v) > f.MaxLen {
		v = string([]rune(v)[:f.MaxLen])
	}
	return v
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
