package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jask/admindesk/internal/logger"
	"github.com/jask/admindesk/internal/people"
	"github.com/jask/admindesk/internal/query"
)

// IngestService invites people listed in CSV exports.
type IngestService struct {
	Desk *people.Desk
}

type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// CSV columns by header name. first_name, last_name and email are required;
// the rest fall back to the defaults below when the column or cell is empty.
const (
	colFirstName  = "first_name"
	colLastName   = "last_name"
	colEmail      = "email"
	colLogin      = "login"
	colRole       = "role"
	colTimeZone   = "time_zone"
	colDateFormat = "date_format"
	colTimeFormat = "time_format"
)

const lookupPageSize = 50

var ingestDefaults = map[string]string{
	colRole:       string(people.RoleViewer),
	colTimeZone:   "Etc/UTC",
	colDateFormat: "YYYY-MM-DD",
	colTimeFormat: "HH:mm",
}

// ImportCSV invites one person per data row. Rows whose email already exists,
// in the store or earlier in the file, are skipped. Invalid rows are reported
// in the result and do not stop the import; a bad header does.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader) (IngestResult, error) {
	res := IngestResult{}
	log := logger.FromContext(ctx)
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	header, err := csvr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, errors.New("ingest: empty file")
		}
		return res, fmt.Errorf("ingest: header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{colFirstName, colLastName, colEmail} {
		if _, ok := cols[name]; !ok {
			return res, fmt.Errorf("ingest: missing %s column", name)
		}
	}

	seen := make(map[string]bool)
	line := 1
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		cell := func(name string) string {
			if i, ok := cols[name]; ok && i < len(rec) {
				if v := strings.TrimSpace(rec[i]); v != "" {
					return v
				}
			}
			return ingestDefaults[name]
		}

		p := people.Person{
			FirstName:  cell(colFirstName),
			LastName:   cell(colLastName),
			Email:      people.NormalizeEmail(cell(colEmail)),
			Login:      cell(colLogin),
			Role:       people.Role(cell(colRole)),
			Status:     people.StatusInvited,
			TimeZone:   cell(colTimeZone),
			DateFormat: cell(colDateFormat),
			TimeFormat: cell(colTimeFormat),
		}
		if p.Login == "" {
			p.Login = people.DeriveLogin(p)
		}
		if err := people.Form().Validate(people.FormValues(p)); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}

		if seen[p.Email] {
			log.Debug("duplicate row", "line", line, "email", p.Email)
			res.Skipped++
			continue
		}
		seen[p.Email] = true
		exists, err := s.emailExists(ctx, p.Email)
		if err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		if exists {
			log.Debug("already on file", "line", line, "email", p.Email)
			res.Skipped++
			continue
		}

		if _, err := s.Desk.Invite(ctx, p); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d invite: %w", line, err))
			continue
		}
		res.Imported++
	}
	log.Info("csv import finished", "imported", res.Imported, "skipped", res.Skipped, "rejected", len(res.Errors))
	return res, nil
}

// emailExists looks email up case-insensitively. The contains filter narrows
// the candidates in the store; the exact comparison happens here.
func (s *IngestService) emailExists(ctx context.Context, email string) (bool, error) {
	opts := query.Options{
		Filters: []query.FilterItem{{Field: people.FieldEmail, Op: query.OpContains, Value: email}},
		Page:    query.Page{Number: 1, Size: lookupPageSize},
	}
	for {
		found, err := s.Desk.Service().List(ctx, opts)
		if err != nil {
			return false, fmt.Errorf("look up %s: %w", email, err)
		}
		for _, p := range found.Rows {
			if strings.EqualFold(p.Email, email) {
				return true, nil
			}
		}
		if opts.Page.Number >= (query.Page{Size: opts.Page.Size, Total: found.Total}).Pages() {
			return false, nil
		}
		opts.Page.Number++
	}
}
