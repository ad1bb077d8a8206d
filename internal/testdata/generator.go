package testdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/jask/admindesk/internal/database"
	"github.com/jask/admindesk/internal/database/repository"
	"github.com/jask/admindesk/internal/people"
)

var (
	firstNames = []string{"Alice", "Berta", "Carmen", "David", "Ethan", "Farah", "Gita", "Henry", "Isa", "Jon"}
	lastNames  = []string{"Iverson", "Johnson", "Kim", "Lopez", "Martinez", "Ng", "Olsen", "Petrova", "Qureshi", "Rossi"}
)

const day = 24 * time.Hour

// People generates n sample people relative to now. Everything except invite
// tokens is a function of the row index: ids are "1".."n", every sixth row is
// invited, every fourth remaining row inactive, and roles rotate.
func People(n int, now time.Time) []people.Person {
	rows := make([]people.Person, 0, n)
	for i := 0; i < n; i++ {
		first := firstNames[i%len(firstNames)]
		last := lastNames[(i*7)%len(lastNames)]

		status := people.StatusActive
		switch {
		case i%6 == 0:
			status = people.StatusInvited
		case i%4 == 0:
			status = people.StatusInactive
		}

		p := people.Person{
			ID:         strconv.Itoa(i + 1),
			FirstName:  first,
			LastName:   last,
			Email:      strings.ToLower(first) + "." + strings.ToLower(last) + "@example.com",
			Login:      slug.Make(first),
			Role:       people.Roles[i%len(people.Roles)],
			Status:     status,
			TimeZone:   "Asia/Shanghai",
			DateFormat: "DD.MM.YYYY",
			TimeFormat: "h:mm A",
			MFAEnabled: i%3 == 0,
			CreatedAt:  now.Add(-time.Duration(i+10) * day),
		}
		if i%3 == 0 {
			p.TimeZone = "Etc/UTC"
		}
		if i%2 == 0 {
			p.DateFormat = "YYYY-MM-DD"
			p.TimeFormat = "HH:mm"
		}
		if status == people.StatusInvited {
			token := people.NewInviteToken()
			p.InviteToken = &token
		} else {
			seen := now.Add(-time.Duration(i+1) * day)
			p.LastLogin = &seen
		}
		rows = append(rows, p)
	}
	return rows
}

// Repos bundles repos used by Seed.
type Repos struct {
	People *repository.PersonRepo
}

// Seed fills an empty store with n generated people. A store that already
// holds rows is left alone.
func Seed(ctx context.Context, repos Repos, n int) error {
	count, err := repos.People.Count(ctx)
	if err != nil {
		return fmt.Errorf("count people: %w", err)
	}
	if count > 0 || n <= 0 {
		return nil
	}
	if err := repos.People.Insert(ctx, People(n, database.Now())...); err != nil {
		return fmt.Errorf("seed people: %w", err)
	}
	return nil
}
