package form

import "slices"

// Builder assembles a Schema field by field.
type Builder struct {
	schema Schema
}

func New(title string) *Builder {
	return &Builder{schema: Schema{Title: title}}
}

func (b *Builder) add(f Field) *Builder {
	b.schema.Fields = append(b.schema.Fields, f)
	return b
}

// Text adds a free-text field.
func (b *Builder) Text(code, label string, required bool) *Builder {
	return b.add(Field{Code: code, Label: label, Type: TypeString, Required: required})
}

// Email adds a field that must hold a valid address when set.
func (b *Builder) Email(code, label string, required bool) *Builder {
	return b.add(Field{Code: code, Label: label, Type: TypeEmail, Required: required})
}

// Select adds a field restricted to options.
func (b *Builder) Select(code, label string, options []Option) *Builder {
	return b.add(Field{Code: code, Label: label, Type: TypeSelect, Options: slices.Clone(options)})
}

func (b *Builder) TimeZone(code, label string) *Builder {
	return b.add(Field{Code: code, Label: label, Type: TypeTimeZone, Options: slices.Clone(TimeZones)})
}

func (b *Builder) DateFormat(code, label string) *Builder {
	return b.add(Field{Code: code, Label: label, Type: TypeDateFormat, Options: slices.Clone(DateFormats)})
}

func (b *Builder) TimeFormat(code, label string) *Builder {
	return b.add(Field{Code: code, Label: label, Type: TypeTimeFormat, Options: slices.Clone(TimeFormats)})
}

// Build returns a copy of the assembled schema.
func (b *Builder) Build() Schema {
	out := Schema{Title: b.schema.Title, Fields: make([]Field, len(b.schema.Fields))}
	for i, f := range b.schema.Fields {
		f.Options = slices.Clone(f.Options)
		out.Fields[i] = f
	}
	return out
}
