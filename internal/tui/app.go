package tui

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/jask/admindesk/internal/broker"
	"github.com/jask/admindesk/internal/people"
	"github.com/jask/admindesk/internal/prefs"
)

// statusCycle is the order the filter key steps through; nil shows everyone.
var statusCycle = [][]people.Status{
	nil,
	{people.StatusActive},
	{people.StatusInactive},
	{people.StatusInvited},
}

// sortColumns maps the sort keys 1-6 to fields.
var sortColumns = map[string]string{
	"1": people.FieldFirstName,
	"2": people.FieldLastName,
	"3": people.FieldEmail,
	"4": people.FieldRole,
	"5": people.FieldStatus,
	"6": people.FieldLastLogin,
}

// App is the people admin screen. All broker calls run inside commands and
// report back with a snapshot of the desk state.
type App struct {
	ctx  context.Context
	desk *people.Desk
	log  *log.Logger

	keys   keyMap
	help   help.Model
	search textinput.Model

	state     broker.State[people.Person]
	searching bool
	cursor    int
	filterIdx int
	roleIdx   int
	notice    string
	width     int
	height    int
}

func New(ctx context.Context, desk *people.Desk, logger *log.Logger) *App {
	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "search name, email, login, role, status"
	in.CharLimit = 64
	return &App{
		ctx:    ctx,
		desk:   desk,
		log:    logger,
		keys:   defaultKeys(),
		help:   help.New(),
		search: in,
		state:  desk.State(),
		width:  100,
	}
}

// Restore points the filter and search widgets at a view the desk was
// started with.
func (a *App) Restore(v prefs.View) {
	a.filterIdx = 0
	for i, statuses := range statusCycle {
		if slices.Equal(statuses, v.Statuses) {
			a.filterIdx = i
		}
	}
	a.search.SetValue(v.Search)
}

// SavedView is the view to restore next time.
func (a *App) SavedView() prefs.View {
	return prefs.View{
		Search:   a.state.Search,
		Statuses: slices.Clone(statusCycle[a.filterIdx]),
		Sort:     a.state.Sort,
	}
}

// messages
type stateMsg struct {
	state  broker.State[people.Person]
	notice string
}

type errMsg struct {
	err   error
	state broker.State[people.Person]
}

func (e errMsg) Error() string { return e.err.Error() }

func (a *App) Init() tea.Cmd {
	return a.fetch()
}

// do runs fn against the desk and reports the resulting state.
func (a *App) do(notice string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(a.ctx); err != nil {
			a.log.Warn("desk action failed", "action", notice, "err", err)
			return errMsg{err: err, state: a.desk.State()}
		}
		return stateMsg{state: a.desk.State(), notice: notice}
	}
}

func (a *App) fetch() tea.Cmd {
	return a.do("", func(ctx context.Context) error {
		a.desk.Fetch(ctx)
		return nil
	})
}

// apply adopts st unless a newer snapshot is already on screen; commands can
// report back out of order.
func (a *App) apply(st broker.State[people.Person]) {
	if !st.NewerThan(a.state) {
		return
	}
	a.state = st
	if a.cursor >= len(a.state.Items) {
		a.cursor = max(len(a.state.Items)-1, 0)
	}
}

func (a *App) current() (people.Person, bool) {
	if a.cursor < 0 || a.cursor >= len(a.state.Items) {
		return people.Person{}, false
	}
	return a.state.Items[a.cursor], true
}

func (a *App) targetRole() people.Role {
	return people.Roles[a.roleIdx%len(people.Roles)]
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
	case stateMsg:
		a.apply(m.state)
		if m.notice != "" {
			a.notice = m.notice
		}
	case errMsg:
		a.apply(m.state)
		a.notice = ""
	case tea.KeyMsg:
		if a.searching {
			return a.updateSearch(m)
		}
		return a.updateKey(m)
	}
	return a, nil
}

func (a *App) updateSearch(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.SubmitInput):
		a.searching = false
		a.search.Blur()
		term := a.search.Value()
		a.cursor = 0
		return a, a.do("", func(ctx context.Context) error {
			a.desk.SetSearch(ctx, term)
			return nil
		})
	case key.Matches(m, a.keys.CancelInput):
		a.searching = false
		a.search.Blur()
		a.search.SetValue(a.state.Search)
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(m)
	return a, cmd
}

func (a *App) updateKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(m, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.cursor < len(a.state.Items)-1 {
			a.cursor++
		}
	case key.Matches(m, a.keys.PrevPage):
		if a.state.Page.Number > 1 {
			page := a.state.Page.Number - 1
			a.cursor = 0
			return a, a.do("", func(ctx context.Context) error { a.desk.SetPage(ctx, page); return nil })
		}
	case key.Matches(m, a.keys.NextPage):
		if a.state.Page.Number < a.state.Page.Pages() {
			page := a.state.Page.Number + 1
			a.cursor = 0
			return a, a.do("", func(ctx context.Context) error { a.desk.SetPage(ctx, page); return nil })
		}
	case key.Matches(m, a.keys.Refresh):
		return a, a.fetch()
	case key.Matches(m, a.keys.Search):
		a.searching = true
		return a, a.search.Focus()
	case key.Matches(m, a.keys.Filter):
		a.filterIdx = (a.filterIdx + 1) % len(statusCycle)
		statuses := statusCycle[a.filterIdx]
		a.cursor = 0
		return a, a.do("", func(ctx context.Context) error { a.desk.FilterByStatus(ctx, statuses...); return nil })
	case key.Matches(m, a.keys.Sort):
		field := sortColumns[m.String()]
		a.cursor = 0
		return a, a.do("", func(ctx context.Context) error { a.desk.SetSort(ctx, field); return nil })
	case key.Matches(m, a.keys.Select):
		if p, ok := a.current(); ok {
			a.desk.Select(p, !a.desk.IsSelected(p.ID))
			a.state = a.desk.State()
		}
	case key.Matches(m, a.keys.ClearSel):
		a.desk.ClearSelection()
		a.state = a.desk.State()
	case key.Matches(m, a.keys.CycleRole):
		a.roleIdx = (a.roleIdx + 1) % len(people.Roles)
		a.notice = fmt.Sprintf("bulk role: %s", a.targetRole())
	case key.Matches(m, a.keys.ApplyRole):
		n := len(a.state.Selection)
		if n == 0 {
			a.notice = "select people first (space)"
			return a, nil
		}
		role := a.targetRole()
		return a, a.do(fmt.Sprintf("%d set to %s", n, role), func(ctx context.Context) error {
			return a.desk.BulkChangeRole(ctx, role)
		})
	case key.Matches(m, a.keys.Deactivate):
		return a, a.personAction("deactivated", a.desk.Deactivate)
	case key.Matches(m, a.keys.Reactivate):
		return a, a.personAction("reactivated", a.desk.Reactivate)
	case key.Matches(m, a.keys.ResetMFA):
		return a, a.personAction("MFA reset for", a.desk.ResetMFA)
	}
	return a, nil
}

func (a *App) personAction(verb string, fn func(context.Context, string) (people.Person, error)) tea.Cmd {
	p, ok := a.current()
	if !ok {
		return nil
	}
	return a.do(verb+" "+p.FullName(), func(ctx context.Context) error {
		_, err := fn(ctx, p.ID)
		return err
	})
}

// Run starts the program on the terminal, opening on view, and returns the
// view the user left it in.
func Run(ctx context.Context, desk *people.Desk, logger *log.Logger, view prefs.View) (prefs.View, error) {
	a := New(ctx, desk, logger)
	a.Restore(view)
	m, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if final, ok := m.(*App); ok && final != nil {
		return final.SavedView(), err
	}
	return view, err
}
