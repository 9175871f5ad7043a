package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/signal-archive/internal/archive"
	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/decoder"
	"github.com/vovakirdan/signal-archive/internal/engine"
	"github.com/vovakirdan/signal-archive/internal/grid"
	"github.com/vovakirdan/signal-archive/internal/registry"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

// Layout constants
const (
	consoleLines   = 6
	documentRows   = 8
	readerWidth    = 56
	readerHeight   = 14
	eventBuffer    = 1024
	decoderBarSize = 20
)

// Focus is the panel receiving navigation keys.
type Focus int

const (
	FocusGrid Focus = iota
	FocusArchive
)

// Clipboard is the export/import target. Nil disables both commands.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard uses the host clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Options configures a Model.
type Options struct {
	Slot      string
	Clipboard Clipboard
	Now       func() time.Time
}

// Model is the Bubble Tea model of one archive terminal.
type Model struct {
	runner *engine.Runner
	sub    *engine.Subscription
	opts   Options

	view    engine.View
	catalog *symbols.Catalog
	screen  *core.Screen
	keys    KeyMap
	help    help.Model
	bar     progress.Model
	reader  viewport.Model

	focus        Focus
	cursor       int
	folder       int
	docCursor    int
	reading      bool
	confirmReset bool
	status       string
	frame        int
	width        int
	height       int
	quitting     bool
}

// NewModel subscribes to the runner and creates the model. The first event
// of the subscription fills the view.
func NewModel(r *engine.Runner, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(decoderBarSize),
		progress.WithoutPercentage(),
	)
	return Model{
		runner:  r,
		sub:     r.Subscribe(eventBuffer),
		opts:    opts,
		catalog: symbols.NewCatalog(nil),
		screen:  core.NewScreen(1, 1),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		bar:     bar,
		reader:  viewport.New(readerWidth, readerHeight),
	}
}

// Init starts listening for events and the session clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.sub), clockCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.apply(msg.Event)
		return m, waitForEvent(m.sub)

	case ClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case ClockMsg:
		m.frame++
		return m, clockCmd()

	case ReplyMsg:
		if msg.Reply.Err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.Op, msg.Reply.Err)
		} else {
			m.status = ""
		}
		return m, nil

	case StatusMsg:
		m.status = string(msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// apply folds an engine event into the local view.
func (m *Model) apply(e engine.Event) {
	m.view.Apply(e)
	switch e.(type) {
	case engine.StateReplaced, engine.MilestoneFired:
		m.catalog = symbols.NewCatalog(m.view.Symbols)
	}
	if n := m.view.Size * m.view.Size; m.cursor >= n {
		m.cursor = 0
	}
	if docs := m.folderDocs(); m.docCursor >= len(docs) {
		m.docCursor = max(len(docs)-1, 0)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && !m.reading {
		m.quitting = true
		return m, tea.Quit
	}

	if m.confirmReset {
		m.confirmReset = false
		if msg.String() == "y" || msg.String() == "Y" {
			m.status = ""
			return m, doCmd(m.runner, "reset", engine.ResetAll{})
		}
		m.status = "reset cancelled"
		return m, nil
	}

	if m.reading {
		if key.Matches(msg, m.keys.Close, m.keys.Quit) {
			m.reading = false
			return m, nil
		}
		var cmd tea.Cmd
		m.reader, cmd = m.reader.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Focus):
		if m.focus == FocusGrid {
			m.focus = FocusArchive
		} else {
			m.focus = FocusGrid
		}
	case key.Matches(msg, m.keys.Save):
		return m, doCmd(m.runner, "save", engine.SaveNow{})
	case key.Matches(msg, m.keys.Load):
		return m, doCmd(m.runner, "load", engine.LoadNow{})
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, m.keys.Import):
		return m, m.importCmd()
	case key.Matches(msg, m.keys.Reset):
		m.confirmReset = true
		m.status = "ERASE ALL PROGRESS? (y/N)"
	case m.focus == FocusGrid:
		m.gridKey(msg)
	default:
		m.archiveKey(msg)
	}
	return m, nil
}

func (m *Model) gridKey(msg tea.KeyMsg) {
	size := m.view.Size
	if size == 0 {
		return
	}
	row, col := m.cursor/size, m.cursor%size
	switch {
	case key.Matches(msg, m.keys.Up):
		row = (row + size - 1) % size
	case key.Matches(msg, m.keys.Down):
		row = (row + 1) % size
	case key.Matches(msg, m.keys.Left):
		col = (col + size - 1) % size
	case key.Matches(msg, m.keys.Right):
		col = (col + 1) % size
	case key.Matches(msg, m.keys.Select):
		m.runner.Send(engine.SelectTile{Index: m.cursor})
		return
	}
	m.cursor = row*size + col
}

func (m *Model) archiveKey(msg tea.KeyMsg) {
	docs := m.folderDocs()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.docCursor > 0 {
			m.docCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.docCursor < len(docs)-1 {
			m.docCursor++
		}
	case key.Matches(msg, m.keys.Left):
		m.folder = (m.folder + len(archive.Folders) - 1) % len(archive.Folders)
		m.docCursor = 0
	case key.Matches(msg, m.keys.Right):
		m.folder = (m.folder + 1) % len(archive.Folders)
		m.docCursor = 0
	case key.Matches(msg, m.keys.Open, m.keys.Select):
		if d, ok := m.currentDoc(); ok {
			m.openReader(d)
		}
	case key.Matches(msg, m.keys.Inbox):
		m.file(archive.Inbox)
	case key.Matches(msg, m.keys.Archive):
		m.file(archive.Archived)
	case key.Matches(msg, m.keys.Flag):
		m.file(archive.Priority)
	}
}

func (m *Model) file(to archive.Folder) {
	if d, ok := m.currentDoc(); ok && d.Folder != to {
		m.runner.Send(engine.MoveDocument{ID: d.ID, Folder: to})
	}
}

func (m *Model) openReader(d archive.Document) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", d.Name)
	fmt.Fprintf(&b, "TYPE: %s  FREQUENCY: %s\n", strings.ToUpper(string(d.Type)), d.Frequency)
	fmt.Fprintf(&b, "RECEIVED: %s\n\n", d.CreatedAt.UTC().Format(time.RFC3339))
	b.WriteString(d.Content)
	m.reader.SetContent(b.String())
	m.reader.GotoTop()
	m.reading = true
}

func (m Model) exportCmd() tea.Cmd {
	clip, r := m.opts.Clipboard, m.runner
	if clip == nil {
		return func() tea.Msg { return StatusMsg("clipboard unavailable") }
	}
	return func() tea.Msg {
		msg := doCmd(r, "export", engine.ExportSnapshot{})().(ReplyMsg)
		if msg.Reply.Err != nil {
			return msg
		}
		if err := clip.WriteAll(string(msg.Reply.Data)); err != nil {
			return StatusMsg(fmt.Sprintf("export failed: %v", err))
		}
		return StatusMsg("save copied to clipboard")
	}
}

func (m Model) importCmd() tea.Cmd {
	clip, r := m.opts.Clipboard, m.runner
	if clip == nil {
		return func() tea.Msg { return StatusMsg("clipboard unavailable") }
	}
	return func() tea.Msg {
		text, err := clip.ReadAll()
		if err != nil {
			return StatusMsg(fmt.Sprintf("import failed: %v", err))
		}
		return doCmd(r, "import", engine.ImportSnapshot{Data: []byte(text)})()
	}
}

func (m Model) folderDocs() []archive.Document {
	return m.view.Folder(archive.Folders[m.folder])
}

func (m Model) currentDoc() (archive.Document, bool) {
	docs := m.folderDocs()
	if m.docCursor < 0 || m.docCursor >= len(docs) {
		return archive.Document{}, false
	}
	return docs[m.docCursor], true
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	shift := m.view.UI.ColorShift
	right := m.decodersView() + "\n" + m.archiveView()
	if m.reading {
		right = m.reader.View()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle(shift, m.focus == FocusGrid && !m.reading).Render(m.gridView()),
		panelStyle(shift, m.focus == FocusArchive || m.reading).Render(right),
	)

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.consoleView())
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(levelStyles[engine.LevelWarning].Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	ui := m.view.UI
	title := glitchText("SIGNAL ARCHIVE", ui.GlitchLevel, m.frame)
	if m.opts.Slot != "" {
		title += " // " + strings.ToUpper(m.opts.Slot)
	}
	s := m.view.Stats
	var session time.Duration
	if !s.SessionStart.IsZero() {
		session = m.opts.Now().Sub(s.SessionStart)
	}
	line := fmt.Sprintf("%s   MATCHES %d   DOCUMENTS %d   FRAGMENTS %d",
		formatSession(session), s.TotalMatches, s.TotalDocuments, s.Fragments)
	return titleStyle(ui.ColorShift).Render(title) + "  " + colorStyles[core.ColorGray].Render(line)
}

func (m Model) gridView() string {
	if m.view.Size == 0 {
		return "AWAITING SIGNAL..."
	}
	w, h := grid.FrameSize(m.view.Size)
	if m.screen.Width() != w || m.screen.Height() != h {
		m.screen.Resize(w, h)
	}
	m.screen.Clear()
	cursor := m.cursor
	if m.focus != FocusGrid {
		cursor = -1
	}
	grid.RenderTiles(m.screen, 0, 0, m.view.Size, m.view.Tiles, m.view.Selected, cursor, m.catalog)
	return RenderScreen(m.screen)
}

func (m Model) decodersView() string {
	var b strings.Builder
	b.WriteString(titleStyle(m.view.UI.ColorShift).Render("DECODERS"))
	for _, d := range m.view.Decoders {
		b.WriteString("\n")
		b.WriteString(decoderLine(d, m.bar))
	}
	return b.String()
}

func decoderLine(d decoder.Decoder, bar progress.Model) string {
	if !d.Unlocked {
		return colorStyles[core.ColorGray].Render(fmt.Sprintf("%-4s LOCKED (%d DOCS)", d.ID, d.UnlockAt))
	}
	return fmt.Sprintf("%-4s %s %5.1f%% %.1f/min", d.ID, bar.ViewAs(d.Progress/decoder.Full), d.Progress, d.Rate)
}

func (m Model) archiveView() string {
	var tabs []string
	for i, f := range archive.Folders {
		label := fmt.Sprintf("%s (%d)", strings.ToUpper(string(f)), len(m.view.Folders[f]))
		if i == m.folder {
			label = titleStyle(m.view.UI.ColorShift).Render(label)
		} else {
			label = colorStyles[core.ColorGray].Render(label)
		}
		tabs = append(tabs, label)
	}

	var b strings.Builder
	b.WriteString(strings.Join(tabs, " "))

	docs := m.folderDocs()
	if len(docs) == 0 {
		b.WriteString("\n")
		b.WriteString(colorStyles[core.ColorGray].Render("(empty)"))
		return b.String()
	}

	start := 0
	if m.docCursor >= documentRows {
		start = m.docCursor - documentRows + 1
	}
	end := min(start+documentRows, len(docs))
	for i := start; i < end; i++ {
		d := docs[i]
		prefix := "  "
		if i == m.docCursor && m.focus == FocusArchive {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s  %-12s %s", prefix, d.Name, d.Type, d.Frequency)
		b.WriteString("\n")
		if d.Type == registry.Intercept || d.Type == registry.Narrative {
			b.WriteString(colorStyles[core.ColorBrightMagenta].Render(line))
		} else {
			b.WriteString(line)
		}
	}
	return b.String()
}

func (m Model) consoleView() string {
	logs := m.view.Logs
	if len(logs) > consoleLines {
		logs = logs[len(logs)-consoleLines:]
	}
	lines := make([]string, 0, len(logs))
	for _, e := range logs {
		style, ok := levelStyles[e.Level]
		if !ok {
			style = levelStyles[engine.LevelInfo]
		}
		lines = append(lines, style.Render(fmt.Sprintf("[%s] %s", e.At.Format("15:04:05"), e.Text)))
	}
	return strings.Join(lines, "\n")
}

// Run starts the Bubble Tea program for a started runner and blocks until
// the player quits. The caller stops the runner afterwards.
func Run(r *engine.Runner, opts Options) error {
	model := NewModel(r, opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	model.sub.Close()
	return err
}
