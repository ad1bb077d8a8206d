// Package people manages the Person entity: its field table, form schema,
// in-memory service and the Desk, a broker with people-specific verbs.
package people

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleViewer  Role = "Viewer"
	RoleEditor  Role = "Editor"
	RoleAnalyst Role = "Analyst"
)

// Roles in seed rotation order.
var Roles = []Role{RoleAdmin, RoleViewer, RoleEditor, RoleAnalyst}

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusInvited  Status = "Invited"
)

var Statuses = []Status{StatusActive, StatusInactive, StatusInvited}

// Field names as seen by filters, sorting and patches.
const (
	FieldID          = "id"
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldEmail       = "email"
	FieldLogin       = "login"
	FieldRole        = "role"
	FieldStatus      = "status"
	FieldTimeZone    = "timeZone"
	FieldDateFormat  = "dateFormat"
	FieldTimeFormat  = "timeFormat"
	FieldMFAEnabled  = "mfaEnabled"
	FieldLastLogin   = "lastLogin"
	FieldCreatedAt   = "createdAt"
	FieldInviteToken = "inviteToken"
)

type Person struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Login       string     `json:"login"`
	Role        Role       `json:"role"`
	Status      Status     `json:"status"`
	TimeZone    string     `json:"timeZone"`
	DateFormat  string     `json:"dateFormat"`
	TimeFormat  string     `json:"timeFormat"`
	MFAEnabled  bool       `json:"mfaEnabled"`
	LastLogin   *time.Time `json:"lastLogin"`
	CreatedAt   time.Time  `json:"createdAt"`
	InviteToken *string    `json:"inviteToken,omitempty"`
}

// Clone returns p with its optional fields copied.
func (p Person) Clone() Person {
	if p.LastLogin != nil {
		t := *p.LastLogin
		p.LastLogin = &t
	}
	if p.InviteToken != nil {
		tok := *p.InviteToken
		p.InviteToken = &tok
	}
	return p
}

func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

const tokenPrefix = "tok_"

// NewInviteToken returns a fresh random invite token.
func NewInviteToken() string {
	return tokenPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
