package people

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/jask/admindesk/internal/broker"
	"github.com/jask/admindesk/internal/crud"
	"github.com/jask/admindesk/internal/query"
)

// Desk is the people admin broker: the generic list/selection state machine
// plus the account verbs an administrator uses.
type Desk struct {
	*broker.Broker[Person, string]
}

func NewDesk(svc crud.Service[Person, string], opts ...broker.Option) *Desk {
	return &Desk{Broker: broker.New(svc, ID, opts...)}
}

// FilterByStatus shows only people in one of statuses; none clears the filter.
func (d *Desk) FilterByStatus(ctx context.Context, statuses ...Status) {
	d.SetFilters(ctx, StatusFilter(statuses...))
}

// StatusFilter matches people whose status is one of statuses. No statuses
// yields no filter.
func StatusFilter(statuses ...Status) []query.FilterItem {
	if len(statuses) == 0 {
		return nil
	}
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return []query.FilterItem{{Field: FieldStatus, Op: query.OpIn, Value: values}}
}

func (d *Desk) Deactivate(ctx context.Context, id string) (Person, error) {
	return d.Update(ctx, id, crud.Patch{FieldStatus: string(StatusInactive)})
}

func (d *Desk) Reactivate(ctx context.Context, id string) (Person, error) {
	return d.Update(ctx, id, crud.Patch{FieldStatus: string(StatusActive)})
}

// ResetMFA turns multi-factor authentication off so the person re-enrolls.
func (d *Desk) ResetMFA(ctx context.Context, id string) (Person, error) {
	return d.Update(ctx, id, crud.Patch{FieldMFAEnabled: false})
}

// Invite creates p as an invited person with a fresh invite token. The email
// is stored lower-cased. An empty login is derived from the first name, or the
// email's local part.
func (d *Desk) Invite(ctx context.Context, p Person) (Person, error) {
	p.Email = NormalizeEmail(p.Email)
	p.Status = StatusInvited
	token := NewInviteToken()
	p.InviteToken = &token
	p.LastLogin = nil
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Login == "" {
		p.Login = DeriveLogin(p)
	}
	return d.Create(ctx, p)
}

// BulkChangeRole assigns role to every selected person, one at a time in
// selection order. The first failure stops the run and leaves the selection
// in place; success clears it.
func (d *Desk) BulkChangeRole(ctx context.Context, role Role) error {
	for _, id := range d.SelectedIDs() {
		if _, err := d.Update(ctx, id, crud.Patch{FieldRole: string(role)}); err != nil {
			return fmt.Errorf("change role of %s: %w", id, err)
		}
	}
	d.ClearSelection()
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DeriveLogin builds a login handle from the person's name or email.
func DeriveLogin(p Person) string {
	if login := slug.Make(p.FirstName); login != "" {
		return login
	}
	local, _, _ := strings.Cut(p.Email, "@")
	return slug.Make(local)
}
