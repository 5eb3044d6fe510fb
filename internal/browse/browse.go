// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/staranto/cinectl/internal/tmdb"
)

// Source is the slice of the TMDB client the shell needs.
type Source interface {
	Trending(ctx context.Context, window string) (*tmdb.Page, error)
	Search(ctx context.Context, query string, page int) (*tmdb.Page, error)
}

type moviesMsg struct {
	query  string
	movies []tmdb.Movie
}

type errMsg struct{ err error }

// movieItem adapts tmdb.Movie to list.Item.
type movieItem struct {
	movie tmdb.Movie
}

func (i movieItem) Title() string { return i.movie.Title }
func (i movieItem) Description() string {
	parts := []string{}
	if y := i.movie.Year(); y != "" {
		parts = append(parts, y)
	}
	if i.movie.VoteAverage > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", i.movie.VoteAverage))
	}
	return strings.Join(parts, " · ")
}
func (i movieItem) FilterValue() string { return i.movie.Title }

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f6be00"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	detailStyle = lipgloss.NewStyle().Padding(1, 2)
)

// Model is the browse shell state.
type Model struct {
	ctx    context.Context
	src    Source
	window string

	list    list.Model
	input   textinput.Model
	spinner spinner.Model

	searching bool
	loading   bool
	query     string
	err       error
	selected  *tmdb.Movie

	width  int
	height int
}

// New returns a shell that starts on the trending list for window.
func New(ctx context.Context, src Source, window string) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Trending"
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle

	ti := textinput.New()
	ti.Placeholder = "Search movies..."
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		src:     src,
		window:  window,
		list:    l,
		input:   ti,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(""))
}

// load fetches trending when query is empty and searches otherwise.
func (m Model) load(query string) tea.Cmd {
	ctx, src, window := m.ctx, m.src, m.window
	return func() tea.Msg {
		var (
			page *tmdb.Page
			err  error
		)
		if query == "" {
			page, err = src.Trending(ctx, window)
		} else {
			page, err = src.Search(ctx, query, 1)
		}
		if err != nil {
			return errMsg{err: err}
		}
		return moviesMsg{query: query, movies: page.Movies}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case moviesMsg:
		m.loading = false
		m.err = nil
		m.query = msg.query
		if msg.query == "" {
			m.list.Title = "Trending"
		} else {
			m.list.Title = fmt.Sprintf("Search: %s", msg.query)
		}
		items := make([]list.Item, 0, len(msg.movies))
		for _, mv := range msg.movies {
			items = append(items, movieItem{movie: mv})
		}
		return m, m.list.SetItems(items)

	case errMsg:
		m.loading = false
		m.err = msg.err
		log.WithError(msg.err).Debug("browse load failed")
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.input.Blur()
			return m, nil
		case "enter":
			m.searching = false
			m.input.Blur()
			m.loading = true
			m.selected = nil
			query := strings.TrimSpace(m.input.Value())
			return m, tea.Batch(m.spinner.Tick, m.load(query))
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.selected != nil {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc", "enter", "backspace":
			m.selected = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "enter":
		if it, ok := m.list.SelectedItem().(movieItem); ok {
			mv := it.movie
			m.selected = &mv
		}
		return m, nil
	case "esc":
		if m.query != "" {
			m.loading = true
			m.input.SetValue("")
			return m, tea.Batch(m.spinner.Tick, m.load(""))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	if m.selected != nil {
		b.WriteString(detailView(*m.selected))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("esc back • q quit"))
		return b.String()
	}

	if m.searching {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.loading {
		b.WriteString(m.spinner.View() + " loading...\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
	}

	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("/ search • enter details • esc trending • q quit"))
	return b.String()
}

func detailView(mv tmdb.Movie) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(mv.Title))
	if y := mv.Year(); y != "" {
		b.WriteString(" (" + y + ")")
	}
	b.WriteString("\n\n")
	if mv.ReleaseDate != "" {
		fmt.Fprintf(&b, "Released:   %s\n", mv.ReleaseDate)
	}
	fmt.Fprintf(&b, "Rating:     %.1f\n", mv.VoteAverage)
	fmt.Fprintf(&b, "Popularity: %.0f\n", mv.Popularity)
	if u := mv.PosterURL(""); u != "" {
		fmt.Fprintf(&b, "Poster:     %s\n", u)
	}
	if mv.Overview != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(72).Render(mv.Overview) + "\n")
	}
	return detailStyle.Render(b.String())
}

// Run starts the shell on the alternate screen and blocks until it exits.
func Run(ctx context.Context, src Source, window string, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(
		New(ctx, src, window),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browse failed: %w", err)
	}
	return nil
}
