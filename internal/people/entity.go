package people

import (
	"time"

	"github.com/google/uuid"

	"github.com/jask/admindesk/internal/crud"
)

// SearchKeys are the fields free-text search looks at.
var SearchKeys = []string{FieldFirstName, FieldLastName, FieldEmail, FieldLogin, FieldRole, FieldStatus}

// ID returns p's identifier.
func ID(p Person) string { return p.ID }

// Entity describes Person to the generic services.
func Entity() crud.Entity[Person, string] {
	return crud.Entity[Person, string]{
		Name:    "person",
		IDField: FieldID,
		ID:      ID,
		SetID:   func(p *Person, id string) { p.ID = id },
		NewID:   uuid.NewString,
		Clone:   Person.Clone,
		Fields: map[string]crud.Field[Person]{
			FieldID:          crud.ReadOnly(func(p Person) any { return p.ID }),
			FieldFirstName:   crud.Text(func(p Person) string { return p.FirstName }, func(p *Person, v string) { p.FirstName = v }),
			FieldLastName:    crud.Text(func(p Person) string { return p.LastName }, func(p *Person, v string) { p.LastName = v }),
			FieldEmail:       crud.Text(func(p Person) string { return p.Email }, func(p *Person, v string) { p.Email = v }),
			FieldLogin:       crud.Text(func(p Person) string { return p.Login }, func(p *Person, v string) { p.Login = v }),
			FieldRole:        crud.Enum(func(p Person) Role { return p.Role }, func(p *Person, v Role) { p.Role = v }, Roles...),
			FieldStatus:      crud.Enum(func(p Person) Status { return p.Status }, func(p *Person, v Status) { p.Status = v }, Statuses...),
			FieldTimeZone:    crud.Text(func(p Person) string { return p.TimeZone }, func(p *Person, v string) { p.TimeZone = v }),
			FieldDateFormat:  crud.Text(func(p Person) string { return p.DateFormat }, func(p *Person, v string) { p.DateFormat = v }),
			FieldTimeFormat:  crud.Text(func(p Person) string { return p.TimeFormat }, func(p *Person, v string) { p.TimeFormat = v }),
			FieldMFAEnabled:  crud.Flag(func(p Person) bool { return p.MFAEnabled }, func(p *Person, v bool) { p.MFAEnabled = v }),
			FieldLastLogin:   crud.OptionalTimestamp(func(p Person) *time.Time { return p.LastLogin }, func(p *Person, v *time.Time) { p.LastLogin = v }),
			FieldCreatedAt:   crud.Timestamp(func(p Person) time.Time { return p.CreatedAt }, func(p *Person, v time.Time) { p.CreatedAt = v }),
			FieldInviteToken: crud.OptionalText(func(p Person) *string { return p.InviteToken }, func(p *Person, v *string) { p.InviteToken = v }),
		},
		SearchKeys: SearchKeys,
	}
}

// NewMemoryService returns an in-memory people store over a copy of seed.
func NewMemoryService(seed []Person) *crud.Memory[Person, string] {
	return crud.NewMemory(Entity(), seed)
}
