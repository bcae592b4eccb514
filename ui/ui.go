// Package ui provides the synced-lyrics terminal UI.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/verseline/verseline/internal/lyrics"
	"github.com/verseline/verseline/internal/player"
	"github.com/verseline/verseline/internal/spotify"
	"github.com/verseline/verseline/internal/timeline"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show transient notices
	ellipsis             = "…"
	// offsetStep is the per-keypress sync adjustment.
	offsetStep = 100 * time.Millisecond
)

// NewProgram returns a new Tea program rendering lyrics for the poller's
// playback.
func NewProgram(cfg Config, poller *player.Poller, source *lyrics.Source) *tea.Program {
	log.Debug("starting verseline", "refresh_rate", cfg.RefreshRate, "sync_offset", cfg.SyncOffset)

	if cfg.RefreshRate <= 0 {
		cfg.RefreshRate = 100 * time.Millisecond
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := model{
		cfg:      cfg,
		poller:   poller,
		source:   source,
		spinner:  sp,
		offsetMs: cfg.SyncOffset.Milliseconds(),
		selected: -1,
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

type tickMsg time.Time

type lyricsMsg struct {
	trackID string
	doc     *lyrics.Document
	err     error
}

type statusExpiredMsg struct{}

type model struct {
	cfg    Config
	poller *player.Poller
	source *lyrics.Source

	spinner spinner.Model
	width   int
	height  int

	trackID   string
	doc       *lyrics.Document
	lyricsErr error
	loading   bool

	status   string
	offsetMs int64
	// selected is a manual line selection for seek-to-line; -1 follows
	// playback.
	selected int
	quitting bool
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.cfg.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) loadLyrics(track *spotify.Track) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		doc, err := source.Lookup(ctx, track.ArtistLine(), track.Name, track.DurationMs)
		return lyricsMsg{trackID: track.ID, doc: doc, err: err}
	}
}

func (m model) expireStatus() tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusExpiredMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		var cmds []tea.Cmd
		if st := m.poller.Current(); st != nil && st.Track != nil && st.Track.ID != m.trackID {
			m.trackID = st.Track.ID
			m.doc = nil
			m.lyricsErr = nil
			m.loading = true
			m.selected = -1
			cmds = append(cmds, m.loadLyrics(st.Track), m.spinner.Tick)
		}
		cmds = append(cmds, m.tick())
		return m, tea.Batch(cmds...)

	case lyricsMsg:
		// A slow lookup for a previous track must not clobber the current one.
		if msg.trackID != m.trackID {
			return m, nil
		}
		m.loading = false
		m.doc = msg.doc
		m.lyricsErr = msg.err
		return m, nil

	case statusExpiredMsg:
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case " ":
		m.poller.TogglePlayback()

	case "n":
		m.poller.SkipNext()

	case "p":
		m.poller.SkipPrevious()

	case "+", "=":
		m.offsetMs += offsetStep.Milliseconds()
		m.status = fmt.Sprintf("sync offset %+dms", m.offsetMs)
		return m, m.expireStatus()

	case "-", "_":
		m.offsetMs -= offsetStep.Milliseconds()
		m.status = fmt.Sprintf("sync offset %+dms", m.offsetMs)
		return m, m.expireStatus()

	case "c":
		if snap := m.resolve(); snap.Line != nil {
			if err := clipboard.WriteAll(snap.Line.Text); err != nil {
				log.Error("unable to copy line", "error", err)
			} else {
				m.status = "copied line"
				return m, m.expireStatus()
			}
		}

	case "j", "down":
		m = m.moveSelection(1)

	case "k", "up":
		m = m.moveSelection(-1)

	case "g":
		m.selected = -1

	case "enter":
		if m.doc != nil && m.doc.Synced && m.selected >= 0 && m.selected < len(m.doc.Lines) {
			m.poller.Seek(m.doc.Lines[m.selected].Time)
			m.selected = -1
		}
	}

	return m, nil
}

func (m model) moveSelection(delta int) model {
	if m.doc == nil || !m.doc.Synced || len(m.doc.Lines) == 0 {
		return m
	}
	if m.selected < 0 {
		m.selected = m.activeLineIndex()
		if m.selected < 0 {
			m.selected = 0
		}
		return m
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.doc.Lines) {
		m.selected = len(m.doc.Lines) - 1
	}
	return m
}

func (m model) position() int64 {
	return m.poller.Position() + m.offsetMs
}

func (m model) resolve() timeline.Snapshot {
	if m.doc == nil {
		return timeline.Snapshot{LineIndex: -1, WordIndex: -1}
	}
	return timeline.Resolve(m.doc, m.position())
}

func (m model) activeLineIndex() int {
	return m.resolve().LineIndex
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.lyricsView())
	b.WriteString("\n")
	b.WriteString(m.statusBarView())
	return b.String()
}

func (m model) headerView() string {
	st := m.poller.Current()
	if st == nil || st.Track == nil {
		return headerStyle.Render("Nothing playing") + "\n" +
			artistStyle.Render("start playback on any device to see lyrics")
	}

	title := truncate.StringWithTail(st.Track.Name, uint(max(m.width-2, 10)), ellipsis) //nolint:gosec
	line := headerStyle.Render(title) + "\n" + artistStyle.Render(st.Track.ArtistLine())

	if st.Queue != nil && st.Queue.Next != nil {
		next := truncate.StringWithTail("next: "+st.Queue.Next.Name, uint(max(m.width-2, 10)), ellipsis) //nolint:gosec
		line += "\n" + upcomingLineStyle.Render(next)
	}
	return line
}

// lyricsView renders a window of lines centred on the active one.
func (m model) lyricsView() string {
	switch {
	case m.loading:
		return m.spinner.View() + " fetching lyrics" + ellipsis
	case errors.Is(m.lyricsErr, lyrics.ErrNotFound):
		return upcomingLineStyle.Render("no lyrics for this track")
	case m.lyricsErr != nil:
		return errorStyle.Render("lyrics unavailable: " + m.lyricsErr.Error())
	case m.doc == nil || m.doc.Empty():
		return ""
	}

	if !m.doc.Synced {
		return m.plainLyricsView()
	}

	snap := m.resolve()

	window := m.windowHeight()
	center := snap.LineIndex
	if m.selected >= 0 {
		center = m.selected
	}
	if center < 0 {
		center = 0
	}

	start := center - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(m.doc.Lines) {
		end = len(m.doc.Lines)
		start = max(end-window, 0)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderLine(i, snap))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderLine(i int, snap timeline.Snapshot) string {
	line := &m.doc.Lines[i]
	text := truncate.StringWithTail(line.Text, uint(max(m.width-2, 10)), ellipsis) //nolint:gosec

	switch {
	case i == m.selected:
		return selectedLineStyle.Render("❯ " + text)

	case i == snap.LineIndex && snap.Pause:
		return pauseStyle.Render(padLine("· · ·", m.width-2))

	case i == snap.LineIndex:
		return "  " + m.renderActiveLine(line, snap.WordIndex)

	default:
		return "  " + upcomingLineStyle.Render(text)
	}
}

// renderActiveLine highlights the words already sung.
func (m model) renderActiveLine(line *lyrics.Line, wordIndex int) string {
	if len(line.Words) == 0 || wordIndex < 0 {
		return currentLineStyle.Render(line.Text)
	}

	parts := make([]string, len(line.Words))
	for i, w := range line.Words {
		if i <= wordIndex {
			parts[i] = sungWordStyle.Render(w.Text)
		} else {
			parts[i] = currentLineStyle.Render(w.Text)
		}
	}
	return strings.Join(parts, " ")
}

func (m model) plainLyricsView() string {
	var b strings.Builder
	limit := m.windowHeight()
	for i, line := range m.doc.Lines {
		if i >= limit {
			b.WriteString(upcomingLineStyle.Render(ellipsis))
			break
		}
		b.WriteString(wordwrap.String(line.Text, max(m.width-2, 10)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) windowHeight() int {
	// Header, padding and status bar take a handful of rows.
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	return h
}

func (m model) statusBarView() string {
	st := m.poller.Current()

	var left string
	switch {
	case m.poller.UserError() != "":
		left = errorStyle.Render(m.poller.UserError())
	case m.status != "":
		left = noticeStyle.Render(m.status)
	case st != nil && st.Track != nil:
		icon := "▶"
		if !st.IsPlaying {
			icon = "⏸"
		}
		left = statusBarStyle.Render(fmt.Sprintf("%s %s / %s",
			icon, formatTime(m.poller.Position()), formatTime(st.Track.DurationMs)))
	default:
		left = statusBarStyle.Render("waiting for playback " + ellipsis)
	}

	right := statusBarStyle.Render("space play/pause · n/p skip · c copy · q quit")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func formatTime(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// padLine centres text in the available width using display cells rather than
// bytes, so wide runes do not skew the layout.
func padLine(text string, width int) string {
	w := runewidth.StringWidth(text)
	if w >= width {
		return text
	}
	pad := (width - w) / 2
	return strings.Repeat(" ", pad) + text
}
