package testdata

import (
	"strings"
	"testing"
	"time"

	"github.com/jask/admindesk/internal/people"
)

func TestPeopleDistribution(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	rows := People(120, now)
	if len(rows) != 120 {
		t.Fatalf("len = %d", len(rows))
	}

	counts := map[people.Status]int{}
	for _, p := range rows {
		counts[p.Status]++
	}
	if counts[people.StatusInvited] != 20 || counts[people.StatusInactive] != 20 || counts[people.StatusActive] != 80 {
		t.Fatalf("status counts = %v", counts)
	}

	first := rows[0]
	if first.ID != "1" || first.FirstName != "Alice" || first.LastName != "Iverson" || first.Email != "alice.iverson@example.com" {
		t.Fatalf("row 0 = %+v", first)
	}
	if first.Login != "alice" || first.Role != people.RoleAdmin || first.TimeZone != "Etc/UTC" || !first.MFAEnabled {
		t.Fatalf("row 0 = %+v", first)
	}
	if first.LastLogin != nil || first.InviteToken == nil || !strings.HasPrefix(*first.InviteToken, "tok_") {
		t.Fatalf("invited row 0 should have a token and no login: %+v", first)
	}

	second := rows[1]
	if second.LastName != "Petrova" || second.Role != people.RoleViewer || second.Status != people.StatusActive {
		t.Fatalf("row 1 = %+v", second)
	}
	if second.DateFormat != "DD.MM.YYYY" || second.TimeFormat != "h:mm A" || second.TimeZone != "Asia/Shanghai" {
		t.Fatalf("row 1 formats = %+v", second)
	}
	if second.LastLogin == nil || !second.LastLogin.Equal(now.Add(-2*day)) || !second.CreatedAt.Equal(now.Add(-11*day)) {
		t.Fatalf("row 1 times = %v %v", second.LastLogin, second.CreatedAt)
	}
	if second.InviteToken != nil {
		t.Fatalf("active row has token")
	}

	if rows[4].Status != people.StatusInactive {
		t.Fatalf("row 4 status = %s", rows[4].Status)
	}
}
