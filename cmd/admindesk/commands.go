package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jask/admindesk/internal/broker"
	"github.com/jask/admindesk/internal/config"
	"github.com/jask/admindesk/internal/crud"
	"github.com/jask/admindesk/internal/database"
	"github.com/jask/admindesk/internal/database/repository"
	"github.com/jask/admindesk/internal/logger"
	"github.com/jask/admindesk/internal/people"
	"github.com/jask/admindesk/internal/prefs"
	"github.com/jask/admindesk/internal/query"
	"github.com/jask/admindesk/internal/service"
	"github.com/jask/admindesk/internal/testdata"
	"github.com/jask/admindesk/internal/tui"
)

func newTUICmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive people table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			// the terminal belongs to the program, so logs go to a file
			l, closer, err := logger.OpenFile(cfg.Log)
			if err != nil {
				return err
			}
			defer closer.Close()

			viewPath, err := prefs.DefaultPath()
			if err != nil {
				return err
			}
			view, err := prefs.LoadView(viewPath)
			if err != nil {
				l.Warn("ignoring saved view", "err", err)
				view = prefs.View{}
			}

			s, err := openSession(cmd.Context(), cfg, l, broker.WithQuery(view.Query()))
			if err != nil {
				return err
			}
			defer s.close()
			l.Info("starting tui", "driver", cfg.Storage.Driver)
			view, err = tui.Run(cmd.Context(), s.desk, l, view)
			if err != nil {
				return err
			}
			if err := prefs.SaveView(viewPath, view); err != nil {
				l.Warn("saving view", "err", err)
			}
			return nil
		},
	}
}

type listFlags struct {
	search   string
	statuses []string
	sort     string
	desc     bool
	page     int
	pageSize int
	json     bool
}

func newListCmd(f *rootFlags) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List people",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			opts, err := lf.options(s.cfg.Broker.PageSize)
			if err != nil {
				return err
			}
			res, err := s.desk.Service().List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if lf.json {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			page := opts.Page
			page.Total = res.Total
			writeTable(cmd.OutOrStdout(), res.Rows)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d · %d people\n", page.Number, page.Pages(), res.Total)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&lf.search, "search", "s", "", "case-insensitive search over name, email, login, role and status")
	fl.StringSliceVar(&lf.statuses, "status", nil, "only these statuses (repeatable)")
	fl.StringVar(&lf.sort, "sort", "", "field to sort by, e.g. lastName")
	fl.BoolVar(&lf.desc, "desc", false, "sort descending")
	fl.IntVar(&lf.page, "page", 1, "page number")
	fl.IntVar(&lf.pageSize, "page-size", 0, "rows per page (default from config)")
	fl.BoolVar(&lf.json, "json", false, "print the result as JSON")
	return cmd
}

func (lf *listFlags) options(defaultSize int) (query.Options, error) {
	statuses := make([]people.Status, 0, len(lf.statuses))
	for _, name := range lf.statuses {
		st, err := parseStatus(name)
		if err != nil {
			return query.Options{}, err
		}
		statuses = append(statuses, st)
	}
	size := lf.pageSize
	if size <= 0 {
		size = defaultSize
	}
	opts := query.Options{
		Search:  lf.search,
		Filters: people.StatusFilter(statuses...),
		Page:    query.Page{Number: max(lf.page, 1), Size: size},
	}
	if lf.sort != "" {
		if err := people.Entity().CheckField(lf.sort); err != nil {
			return query.Options{}, err
		}
		opts.Sort = query.Sort{Field: lf.sort, Direction: query.Asc}
		if lf.desc {
			opts.Sort.Direction = query.Desc
		}
	}
	return opts, nil
}

func parseStatus(name string) (people.Status, error) {
	for _, st := range people.Statuses {
		if strings.EqualFold(name, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (want one of %v)", name, people.Statuses)
}

func parseRole(name string) (people.Role, error) {
	for _, r := range people.Roles {
		if strings.EqualFold(name, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q (want one of %v)", name, people.Roles)
}

func newShowCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print one person as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			p, err := getPerson(cmd.Context(), s.desk, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
}

func getPerson(ctx context.Context, desk *people.Desk, id string) (people.Person, error) {
	p, err := desk.Service().Get(ctx, id)
	if err != nil {
		return people.Person{}, err
	}
	if p == nil {
		return people.Person{}, crud.NotFound("person", id)
	}
	return *p, nil
}

func newInviteCmd(f *rootFlags) *cobra.Command {
	var p people.Person
	var role string
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite a new person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := parseRole(role)
			if err != nil {
				return err
			}
			p.Role = r
			p.Status = people.StatusInvited
			if p.Login == "" {
				p.Login = people.DeriveLogin(p)
			}
			if err := people.Form().Validate(people.FormValues(p)); err != nil {
				return err
			}

			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			created, err := s.desk.Invite(cmd.Context(), p)
			if err != nil {
				return err
			}
			s.log.Info("invited", "id", created.ID, "email", created.Email)
			return writeJSON(cmd.OutOrStdout(), created)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&p.FirstName, "first", "", "first name")
	fl.StringVar(&p.LastName, "last", "", "last name")
	fl.StringVar(&p.Email, "email", "", "email address")
	fl.StringVar(&p.Login, "login", "", "login (derived from the name when empty)")
	fl.StringVar(&role, "role", string(people.RoleViewer), "role")
	fl.StringVar(&p.TimeZone, "time-zone", "Etc/UTC", "IANA time zone")
	fl.StringVar(&p.DateFormat, "date-format", "YYYY-MM-DD", "date format")
	fl.StringVar(&p.TimeFormat, "time-format", "HH:mm", "time format")
	return cmd
}

type accountVerb func(*people.Desk, context.Context, string) (people.Person, error)

func newAccountCmd(f *rootFlags, use, short, done string, verb accountVerb) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			var errs []error
			for _, id := range args {
				p, err := verb(s.desk, cmd.Context(), id)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", done, p.FullName(), p.ID)
			}
			return errors.Join(errs...)
		},
	}
}

func newBulkRoleCmd(f *rootFlags) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "bulk-role ID...",
		Short: "Give several people the same role",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRole(role)
			if err != nil {
				return err
			}
			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			for _, id := range args {
				p, err := getPerson(cmd.Context(), s.desk, id)
				if err != nil {
					return err
				}
				s.desk.Select(p, true)
			}
			n := len(s.desk.SelectedIDs())
			if err := s.desk.BulkChangeRole(cmd.Context(), r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d set to %s\n", n, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role to assign")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newImportCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Invite everyone listed in a CSV file",
		Long:  "Import reads a CSV file with a header row. first_name, last_name and email are required;\n" +
			"login, role, time_zone, date_format and time_format are optional.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			ingest := &service.IngestService{Desk: s.desk}
			ctx := logger.WithContext(cmd.Context(), s.log.WithPrefix("import"))
			res, err := ingest.ImportCSV(ctx, file)
			if err != nil {
				return err
			}
			for _, e := range res.Errors {
				s.log.Warn("row rejected", "err", e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d, rejected %d\n", res.Imported, res.Skipped, len(res.Errors))
			return nil
		},
	}
}

func newResetCmd(f *rootFlags) *cobra.Command {
	var reseed bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete everyone from the sqlite store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.DriverSQLite {
				return fmt.Errorf("reset needs the %s driver, have %s", config.DriverSQLite, cfg.Storage.Driver)
			}
			db, err := database.OpenMigrated(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			maint := &service.MaintenanceService{DB: db}
			removed, err := maint.Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d people\n", removed)
			if reseed {
				repo := repository.NewPersonRepo(db)
				if err := testdata.Seed(cmd.Context(), testdata.Repos{People: repo}, cfg.Seed.People); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d people\n", cfg.Seed.People)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reseed, "reseed", false, "generate sample people afterwards")
	return cmd
}

func newFormCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Print the person form schema as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), people.Form())
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, rows []people.Person) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Email", "Role", "Status", "MFA", "Last login")
	for _, p := range rows {
		mfa := "off"
		if p.MFAEnabled {
			mfa = "on"
		}
		last := "never"
		if p.LastLogin != nil {
			last = p.LastLogin.Format("2006-01-02")
		}
		t.Row(p.ID, p.FullName(), p.Email, string(p.Role), string(p.Status), mfa, last)
	}
	fmt.Fprintln(w, t.String())
}
