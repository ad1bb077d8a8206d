// Package form describes edit forms declaratively so any front end (the TUI,
// the CLI, or a JSON consumer) can render and validate them the same way.
package form

// FieldType tags how a field is rendered and validated.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeEmail      FieldType = "email"
	TypeSelect     FieldType = "select"
	TypeTimeZone   FieldType = "timezone"
	TypeDateFormat FieldType = "dateformat"
	TypeTimeFormat FieldType = "timeformat"
)

// HasOptions reports whether values of this type come from a fixed option list.
func (t FieldType) HasOptions() bool {
	switch t {
	case TypeSelect, TypeTimeZone, TypeDateFormat, TypeTimeFormat:
		return true
	}
	return false
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Field struct {
	Code     string    `json:"code"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Options  []Option  `json:"options,omitempty"`
	Required bool      `json:"required,omitempty"`
}

// Schema is an ordered list of fields under a title.
type Schema struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Field returns the field with the given code.
func (s Schema) Field(code string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Code == code {
			return f, true
		}
	}
	return Field{}, false
}

// Codes lists field codes in display order.
func (s Schema) Codes() []string {
	codes := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		codes[i] = f.Code
	}
	return codes
}

// TimeZones are the selectable IANA zones, labelled by UTC offset.
var TimeZones = []Option{
	{Label: "UTC−12:00", Value: "Etc/GMT+12"},
	{Label: "UTC", Value: "Etc/UTC"},
	{Label: "UTC+01:00", Value: "Etc/GMT-1"},
	{Label: "UTC+03:00", Value: "Etc/GMT-3"},
	{Label: "UTC+05:30", Value: "Asia/Kolkata"},
	{Label: "UTC+08:00", Value: "Asia/Shanghai"},
}

var DateFormats = Values("YYYY-MM-DD", "DD.MM.YYYY", "MM/DD/YYYY")

var TimeFormats = Values("HH:mm", "h:mm A")

// Values builds options whose label equals their value.
func Values[S ~string](values ...S) []Option {
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{Label: string(v), Value: string(v)}
	}
	return opts
}
