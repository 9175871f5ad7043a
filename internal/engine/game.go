// Package engine owns the game aggregate and the loop that serializes every
// mutation of it.
//
// Game is the synchronous aggregate: each method is one non-preemptible step
// and queues the facts it produced until Drain is called. Runner owns one
// Game on a single goroutine and feeds it player commands, progression ticks,
// delayed cascade steps and autosaves.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/signal-archive/internal/archive"
	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/decoder"
	"github.com/vovakirdan/signal-archive/internal/grid"
	"github.com/vovakirdan/signal-archive/internal/persist"
	"github.com/vovakirdan/signal-archive/internal/progression"
	"github.com/vovakirdan/signal-archive/internal/registry"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

// Frequency tags of documents not produced by a decoder.
const (
	GridFrequency    = "GRID"
	ArchiveFrequency = "ARCHIVE"
)

// MaxLogEntries bounds the console history kept for new subscribers.
const MaxLogEntries = 200

// Options configures a Game. Zero values fall back to the stock tables.
type Options struct {
	Config          core.RuntimeConfig
	Symbols         []symbols.Symbol
	Decoders        []decoder.Decoder
	Milestones      []progression.Milestone
	Templates       *registry.Registry
	InterceptChance float64 // Share of match documents generated as intercepts
	Rand            core.Rand
	Clock           core.Clock
}

func (o Options) withDefaults() Options {
	o.Config = o.Config.Normalize()
	if o.Symbols == nil {
		o.Symbols = symbols.DefaultSymbols()
	}
	if o.Decoders == nil {
		o.Decoders = decoder.DefaultDecoders()
	}
	if o.Milestones == nil {
		o.Milestones = progression.DefaultMilestones()
	}
	if o.Templates == nil {
		o.Templates = registry.Default
	}
	if o.Clock == nil {
		o.Clock = core.SystemClock{}
	}
	if o.Rand == nil {
		o.Rand = core.NewRand(o.Config.Seed)
	}
	if o.InterceptChance < 0 {
		o.InterceptChance = 0
	}
	return o
}

// Game is the explicit game aggregate. Not safe for concurrent use.
type Game struct {
	opts Options

	catalog  *symbols.Catalog
	grid     *grid.Grid
	decoders *decoder.Scheduler
	archive  *archive.Archive
	tracker  *progression.Tracker

	logs   []LogEntry
	outbox []Event
}

// New creates a game with a freshly settled board.
func New(opts Options) *Game {
	g := &Game{opts: opts.withDefaults()}
	g.init()
	g.log(LevelSuccess, "SYSTEM INITIALIZED")
	g.log(LevelInfo, "AWAITING TRANSMISSION INPUT...")
	return g
}

func (g *Game) init() {
	o := g.opts
	g.catalog = symbols.NewCatalog(o.Symbols)
	g.decoders = decoder.New(o.Decoders)
	g.archive = archive.New(o.Templates, o.Rand, o.Clock)
	g.tracker = progression.New(o.Milestones, o.Clock.Now())
	g.grid = newBoard(o.Config.GridSize, g.catalog, o.Rand)
}

func newBoard(size int, cat *symbols.Catalog, rng core.Rand) *grid.Grid {
	b := grid.New(size, cat, rng)
	b.Settle()
	return b
}

// Drain returns the facts produced since the previous call.
func (g *Game) Drain() []Event {
	out := g.outbox
	g.outbox = nil
	return out
}

func (g *Game) emit(e Event) {
	g.outbox = append(g.outbox, e)
}

func (g *Game) log(level Level, format string, args ...any) {
	entry := LogEntry{At: g.opts.Clock.Now(), Text: fmt.Sprintf(format, args...), Level: level}
	g.logs = append(g.logs, entry)
	if len(g.logs) > MaxLogEntries {
		g.logs = g.logs[len(g.logs)-MaxLogEntries:]
	}
	g.emit(LogEmitted{Entry: entry})
}

func (g *Game) emitGrid() {
	g.emit(GridChanged{Size: g.grid.Size(), Tiles: g.grid.Tiles(), Selected: g.grid.Selected()})
}

func (g *Game) emitStats() {
	g.emit(StatsChanged{Stats: g.tracker.Stats()})
}

// Select feeds one tile click into the selection state machine. A swap is
// returned as SelectionSwapped; the caller resolves it with ResolveStep.
func (g *Game) Select(index int) grid.Move {
	move := g.grid.Select(index)
	if move.Outcome != grid.SelectionIgnored {
		g.emitGrid()
	}
	return move
}

// ResolveStep runs one detect-and-resolve pass and applies its score. It
// returns false when the board was already stable.
func (g *Game) ResolveStep() bool {
	pass, ok := g.grid.Step()
	if !ok {
		return false
	}
	g.applyPass(pass)
	g.emitGrid()
	return true
}

// Cascade resolves until the board is stable and returns the number of
// scored passes. After grid.MaxCascadePasses the board is settled without
// scoring.
func (g *Game) Cascade() int {
	n := 0
	for n < grid.MaxCascadePasses && g.ResolveStep() {
		n++
	}
	if n == grid.MaxCascadePasses && !g.grid.IsStable() {
		g.grid.Settle()
		g.emitGrid()
	}
	return n
}

func (g *Game) applyPass(p grid.Pass) {
	s := p.Score
	g.tracker.ApplyMatch(s)
	g.log(LevelSuccess, "MATCH DETECTED: %d TILES", s.Size)
	if s.Combo {
		g.log(LevelWarning, "COMBO! +%d BONUS FRAGMENTS", s.Bonus)
	}

	if g.opts.Rand.Float64() < s.DocChance {
		typ := registry.Transmission
		if g.opts.InterceptChance > 0 && g.opts.Rand.Float64() < g.opts.InterceptChance {
			typ = registry.Intercept
		}
		g.generate(typ, GridFrequency, "")
	}

	g.evaluateMilestones()
	g.emitStats()
}

func (g *Game) evaluateMilestones() {
	for _, m := range g.tracker.Evaluate() {
		if m.Unlock != "" && g.catalog.Unlock(m.Unlock) {
			g.log(LevelWarning, "NEW SIGNAL DETECTED: %s", strings.ToUpper(string(m.Unlock)))
		}

		var doc *archive.Document
		if m.Narrative != "" {
			d := g.generate(registry.Narrative, ArchiveFrequency, m.Narrative)
			doc = &d
		}

		title := m.Title
		if title == "" {
			title = fmt.Sprintf("%d MATCHES", m.Threshold)
		}
		g.log(LevelWarning, "MILESTONE REACHED: %s", title)
		g.emit(MilestoneFired{Milestone: m, Document: doc, UI: g.tracker.UI()})
	}
}

// generate adds one document and re-checks the document-driven unlocks.
func (g *Game) generate(typ registry.Type, frequency, key string) archive.Document {
	doc := g.archive.Generate(typ, frequency, key)
	g.tracker.RecordDocument()
	g.log(LevelInfo, "NEW DOCUMENT: %s", doc.Name)
	g.emit(DocumentAdded{Document: doc})
	g.emit(FoldersChanged{Counts: g.archive.Counts()})
	g.checkUnlocks()
	return doc
}

func (g *Game) checkUnlocks() {
	unlocked := g.tracker.DecoderUnlocks(g.decoders)
	for _, id := range unlocked {
		g.log(LevelWarning, "NEW DECODER UNLOCKED: %s", id)
	}
	if len(unlocked) > 0 {
		g.emit(DecodersChanged{Decoders: g.decoders.All()})
	}
}

// Tick advances the decoders by elapsed wall time. Every decoder that fills
// up produces one transmission tagged with its ID.
func (g *Game) Tick(elapsed time.Duration) {
	for _, id := range g.decoders.Tick(elapsed) {
		g.generate(registry.Transmission, string(id), "")
	}
	g.checkUnlocks()
	g.emit(DecodersChanged{Decoders: g.decoders.All()})
	g.emitStats()
}

// CatchUp generates the documents owed for idle time: floor(minutes·rate)
// per active decoder. It returns the number of documents generated.
func (g *Game) CatchUp(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	g.log(LevelInfo, "SYSTEM WAS IDLE FOR %d MINUTES", minutes)

	total := 0
	for _, y := range g.decoders.IdleYield(minutes) {
		for i := 0; i < y.Count; i++ {
			g.generate(registry.Transmission, string(y.ID), "")
		}
		total += y.Count
	}
	g.log(LevelSuccess, "GENERATED %d IDLE DOCUMENTS", total)
	g.evaluateMilestones()
	g.emit(DecodersChanged{Decoders: g.decoders.All()})
	g.emitStats()
	return total
}

// Move files a document into another folder.
func (g *Game) Move(id string, folder archive.Folder) error {
	doc, _ := g.archive.Find(id)
	if err := g.archive.Move(id, folder); err != nil {
		return err
	}
	if doc.Folder == folder {
		return nil
	}
	g.log(LevelInfo, "FILED %s TO %s", doc.Name, strings.ToUpper(string(folder)))
	g.emit(DocumentMoved{ID: id, From: doc.Folder, To: folder})
	g.emit(FoldersChanged{Counts: g.archive.Counts()})
	return nil
}

// MarkSaved records a successful save.
func (g *Game) MarkSaved(at time.Time) {
	g.tracker.MarkSaved(at)
}

// Snapshot captures the persistent state.
func (g *Game) Snapshot() persist.Snapshot {
	return persist.Snapshot{
		Stats:     g.tracker.Stats(),
		Documents: g.archive.Documents(),
		Folders:   g.archive.FolderIDs(),
		Decoders:  g.decoders.All(),
		Symbols:   persist.SymbolStates(g.catalog.All()),
		UIState:   g.tracker.UI(),
	}
}

// Export encodes the current snapshot.
func (g *Game) Export() ([]byte, error) {
	return persist.Encode(g.Snapshot())
}

// Restore replaces the aggregate with a decoded snapshot and draws a fresh
// board. On error nothing changes.
func (g *Game) Restore(s persist.Snapshot) error {
	o := g.opts

	arc := archive.New(o.Templates, o.Rand, o.Clock)
	if err := arc.Restore(s.Documents, s.Folders); err != nil {
		return fmt.Errorf("engine: restore: %w", err)
	}

	cat := symbols.NewCatalog(o.Symbols)
	cat.Merge(persist.CatalogSymbols(s.Symbols))

	decs := decoder.New(o.Decoders)
	decs.Restore(s.Decoders)

	tr := progression.New(o.Milestones, s.Stats.SessionStart)
	tr.Restore(s.Stats, s.UIState)

	g.archive, g.catalog, g.decoders, g.tracker = arc, cat, decs, tr
	g.grid = newBoard(o.Config.GridSize, cat, o.Rand)
	g.emit(StateReplaced{View: g.View()})
	return nil
}

// Load decodes and restores a stored save. Malformed data leaves the state
// untouched and is reported as persist.ErrMalformedSave.
func (g *Game) Load(data []byte) error {
	s, err := persist.Decode(data)
	if err == nil {
		err = g.Restore(s)
	}
	if err != nil {
		g.log(LevelError, "LOAD FAILED: CORRUPT SAVE")
		return err
	}
	g.log(LevelSuccess, "GAME LOADED")
	return nil
}

// Import is Load for player-supplied data.
func (g *Game) Import(data []byte) error {
	s, err := persist.Decode(data)
	if err == nil {
		err = g.Restore(s)
	}
	if err != nil {
		g.log(LevelError, "IMPORT FAILED: INVALID FILE")
		return err
	}
	g.log(LevelSuccess, "SAVE IMPORTED")
	return nil
}

// Reset discards all progress and starts a fresh session.
func (g *Game) Reset() {
	g.logs = nil
	g.init()
	g.log(LevelWarning, "ALL PROGRESS RESET")
	g.log(LevelSuccess, "SYSTEM INITIALIZED")
	g.emit(StateReplaced{View: g.View()})
}

// Accessors for tests and the loop. The returned values are copies.

func (g *Game) Stats() progression.Stats { return g.tracker.Stats() }
func (g *Game) UI() progression.UIState { return g.tracker.UI() }
func (g *Game) Decoders() []decoder.Decoder { return g.decoders.All() }
func (g *Game) Documents() []archive.Document { return g.archive.Documents() }
func (g *Game) Colors() []symbols.ID { return g.grid.Colors() }
func (g *Game) Logs() []LogEntry { return append([]LogEntry{}, g.logs...) }

// Board exposes the grid for tests that need an explicit layout.
func (g *Game) Board() *grid.Grid { return g.grid }

// SetBoard replaces the grid. Used by tests to start from a known layout.
func (g *Game) SetBoard(b *grid.Grid) { g.grid = b }

// Catalog exposes the symbol catalog.
func (g *Game) Catalog() *symbols.Catalog { return g.catalog }

// Config returns the normalized runtime config.
func (g *Game) Config() core.RuntimeConfig { return g.opts.Config }
