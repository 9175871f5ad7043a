package engine

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/signal-archive/internal/archive"
	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/decoder"
	"github.com/vovakirdan/signal-archive/internal/grid"
	"github.com/vovakirdan/signal-archive/internal/persist"
	"github.com/vovakirdan/signal-archive/internal/progression"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// scriptRand draws integers from a seeded source and floats from a script.
// Once the script runs out Float64 returns 0.99, so matches stop spawning
// documents unless a test asks for one.
type scriptRand struct {
	*rand.Rand
	floats []float64
}

func newScriptRand(floats ...float64) *scriptRand {
	return &scriptRand{Rand: rand.New(rand.NewSource(42)), floats: floats}
}

func (r *scriptRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func newTestGame(t *testing.T, opts Options) (*Game, *core.ManualClock) {
	t.Helper()
	clock := core.NewManualClock(epoch)
	if opts.Clock == nil {
		opts.Clock = clock
	}
	if opts.Rand == nil {
		opts.Rand = newScriptRand()
	}
	g := New(opts)
	g.Drain()
	return g, clock
}

var letters = map[byte]symbols.ID{'r': "red", 'g': "green", 'b': "blue", 'y': "yellow"}

func setLayout(t *testing.T, g *Game, rows ...string) {
	t.Helper()
	var ids []symbols.ID
	for _, row := range rows {
		for i := 0; i < len(row); i++ {
			ids = append(ids, letters[row[i]])
		}
	}
	b, err := grid.FromColors(ids, g.Catalog(), g.opts.Rand)
	if err != nil {
		t.Fatalf("FromColors: %v", err)
	}
	g.SetBoard(b)
}

func logTexts(events []Event) []string {
	var out []string
	for _, e := range events {
		if l, ok := e.(LogEmitted); ok {
			out = append(out, l.Entry.Text)
		}
	}
	return out
}

func hasLog(events []Event, text string) bool {
	for _, l := range logTexts(events) {
		if l == text {
			return true
		}
	}
	return false
}

func TestNewGame(t *testing.T) {
	g := New(Options{Rand: core.NewRand(5), Clock: core.NewManualClock(epoch)})

	if !g.Board().IsStable() {
		t.Error("new board has free matches")
	}
	if g.Board().Size() != 8 {
		t.Errorf("default grid size = %d", g.Board().Size())
	}
	events := g.Drain()
	if !hasLog(events, "SYSTEM INITIALIZED") || !hasLog(events, "AWAITING TRANSMISSION INPUT...") {
		t.Errorf("startup logs missing: %v", logTexts(events))
	}
	if s := g.Stats(); !s.SessionStart.Equal(epoch) {
		t.Errorf("SessionStart = %v", s.SessionStart)
	}
}

func TestComboScoring(t *testing.T) {
	g, _ := newTestGame(t, Options{})
	setLayout(t, g,
		"rrrg",
		"gbyb",
		"byby",
		"yyyg",
	)

	if !g.ResolveStep() {
		t.Fatal("expected a resolve pass")
	}
	s := g.Stats()
	if s.TotalMatches != 6 || s.Fragments != 9 {
		t.Errorf("stats = %+v, expected matches 6 fragments 9", s)
	}

	events := g.Drain()
	if !hasLog(events, "MATCH DETECTED: 6 TILES") || !hasLog(events, "COMBO! +3 BONUS FRAGMENTS") {
		t.Errorf("logs = %v", logTexts(events))
	}
	if s.TotalDocuments != 0 {
		t.Errorf("document spawned despite a failed chance roll")
	}
}

func TestMatchSpawnsDocument(t *testing.T) {
	g, _ := newTestGame(t, Options{Rand: newScriptRand(0)})
	setLayout(t, g,
		"rrrg",
		"gbyb",
		"byrg",
		"yrgb",
	)

	g.ResolveStep()

	docs := g.Documents()
	if len(docs) != 1 {
		t.Fatalf("documents = %d, expected 1", len(docs))
	}
	if docs[0].Frequency != GridFrequency || docs[0].Type != "transmission" {
		t.Errorf("document = %+v", docs[0])
	}

	var added bool
	for _, e := range g.Drain() {
		if d, ok := e.(DocumentAdded); ok && d.Document.ID == "doc_0000" {
			added = true
		}
	}
	if !added {
		t.Error("DocumentAdded not emitted")
	}
}

func TestInterceptChance(t *testing.T) {
	g, _ := newTestGame(t, Options{Rand: newScriptRand(0, 0), InterceptChance: 0.5})
	setLayout(t, g, "rrrg", "gbyb", "byrg", "yrgb")

	g.ResolveStep()

	docs := g.Documents()
	if len(docs) != 1 || docs[0].Type != "intercept" {
		t.Errorf("documents = %+v, expected one intercept", docs)
	}
}

func TestTickDecoderOverflow(t *testing.T) {
	g, _ := newTestGame(t, Options{
		Decoders: []decoder.Decoder{{ID: "X", Rate: 30, Progress: 99.5, Unlocked: true, Active: true}},
	})

	g.Tick(time.Second)

	docs := g.Documents()
	if len(docs) != 1 || docs[0].Frequency != "X" {
		t.Fatalf("documents = %+v, expected one from X", docs)
	}
	if d := g.Decoders()[0]; d.Progress != 0 {
		t.Errorf("progress = %v after overflow", d.Progress)
	}

	g.Tick(time.Second)
	if len(g.Documents()) != 1 {
		t.Error("second tick produced a document")
	}
}

func TestTickAlwaysReportsCounters(t *testing.T) {
	g, _ := newTestGame(t, Options{})
	g.Tick(time.Second)

	var decs, stats bool
	for _, e := range g.Drain() {
		switch e.(type) {
		case DecodersChanged:
			decs = true
		case StatsChanged:
			stats = true
		}
	}
	if !decs || !stats {
		t.Errorf("tick events: decoders=%v stats=%v", decs, stats)
	}
}

func TestCatchUp(t *testing.T) {
	g, _ := newTestGame(t, Options{})

	n := g.CatchUp(10)
	if n != 5 {
		t.Fatalf("CatchUp(10) = %d, expected 5", n)
	}
	for _, d := range g.Documents() {
		if d.Frequency != "VLF" {
			t.Errorf("idle document tagged %s", d.Frequency)
		}
	}

	events := g.Drain()
	if !hasLog(events, "SYSTEM WAS IDLE FOR 10 MINUTES") || !hasLog(events, "GENERATED 5 IDLE DOCUMENTS") {
		t.Errorf("logs = %v", logTexts(events))
	}

	if g.CatchUp(0) != 0 || len(g.Drain()) != 0 {
		t.Error("CatchUp(0) should do nothing")
	}
}

func TestDecoderUnlockByDocuments(t *testing.T) {
	g, _ := newTestGame(t, Options{})

	g.CatchUp(100) // 50 documents from VLF

	var lf decoder.Decoder
	for _, d := range g.Decoders() {
		if d.ID == "LF" {
			lf = d
		}
	}
	if !lf.Unlocked || !lf.Active {
		t.Errorf("LF not unlocked at 50 documents: %+v", lf)
	}
	if !hasLog(g.Drain(), "NEW DECODER UNLOCKED: LF") {
		t.Error("unlock not logged")
	}
}

func TestMilestoneFiresOnce(t *testing.T) {
	g, _ := newTestGame(t, Options{
		Milestones: []progression.Milestone{
			{Threshold: 3, Title: "FIRST", Unlock: "violet", Narrative: "milestone_100", Glitch: 1, Shift: progression.ShiftDesaturate},
		},
	})
	setLayout(t, g, "rrrg", "gbyb", "byrg", "yrgb")
	g.ResolveStep()

	var fired []MilestoneFired
	for _, e := range g.Drain() {
		if m, ok := e.(MilestoneFired); ok {
			fired = append(fired, m)
		}
	}
	if len(fired) != 1 {
		t.Fatalf("fired %d milestones, expected 1", len(fired))
	}
	m := fired[0]
	if m.Document == nil || m.Document.Type != "narrative" || !strings.Contains(m.Document.Content, "VIOLET") {
		t.Errorf("narrative document = %+v", m.Document)
	}
	if m.UI.GlitchLevel != 1 || m.UI.ColorShift != progression.ShiftDesaturate {
		t.Errorf("UI = %+v", m.UI)
	}
	if !g.Catalog().IsUnlocked("violet") {
		t.Error("violet not unlocked")
	}

	setLayout(t, g, "rrrg", "gbyb", "byrg", "yrgb")
	g.ResolveStep()
	for _, e := range g.Drain() {
		if _, ok := e.(MilestoneFired); ok {
			t.Error("milestone fired twice")
		}
	}
}

func TestCountersMonotonic(t *testing.T) {
	g, _ := newTestGame(t, Options{Rand: core.NewRand(11)})
	rng := rand.New(rand.NewSource(3))
	prev := g.Stats()

	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			if g.Select(rng.Intn(70)).Outcome == grid.SelectionSwapped {
				g.Cascade()
			}
		case 1:
			g.Tick(time.Duration(rng.Intn(120)) * time.Second)
		case 2:
			g.CatchUp(rng.Intn(3))
		}
		cur := g.Stats()
		if cur.TotalMatches < prev.TotalMatches || cur.TotalDocuments < prev.TotalDocuments || cur.Fragments < prev.Fragments {
			t.Fatalf("step %d: counters decreased %+v -> %+v", i, prev, cur)
		}
		if !g.Board().IsStable() {
			t.Fatalf("step %d: board left with runs", i)
		}
		prev = cur
	}
}

func TestSaveRoundTrip(t *testing.T) {
	src, _ := newTestGame(t, Options{})
	src.CatchUp(120)
	docs := src.Documents()
	_ = src.Move(docs[3].ID, archive.Priority)
	src.Catalog().Unlock("cyan")

	data, err := src.Export()
	if err != nil {
		t.Fatalf("Export() = %v", err)
	}

	dst, _ := newTestGame(t, Options{})
	if err := dst.Import(data); err != nil {
		t.Fatalf("Import() = %v", err)
	}

	if !reflect.DeepEqual(src.Snapshot(), dst.Snapshot()) {
		t.Errorf("snapshot mismatch after import\nsrc: %+v\ndst: %+v", src.Snapshot(), dst.Snapshot())
	}
	if !dst.Board().IsStable() {
		t.Error("restored board not settled")
	}
}

func TestImportMalformedLeavesStateUntouched(t *testing.T) {
	g, _ := newTestGame(t, Options{})
	g.CatchUp(10)
	before := g.Snapshot()
	g.Drain()

	err := g.Import([]byte(`{"stats":{"totalMatches":1}}`))
	if !errors.Is(err, persist.ErrMalformedSave) {
		t.Fatalf("Import() = %v, expected ErrMalformedSave", err)
	}
	if !reflect.DeepEqual(before, g.Snapshot()) {
		t.Error("failed import changed the state")
	}

	events := g.Drain()
	if len(events) != 1 {
		t.Fatalf("expected only the failure log, got %d events", len(events))
	}
	l := events[0].(LogEmitted)
	if l.Entry.Text != "IMPORT FAILED: INVALID FILE" || l.Entry.Level != LevelError {
		t.Errorf("log = %+v", l.Entry)
	}
}

func TestMoveDocument(t *testing.T) {
	g, _ := newTestGame(t, Options{})
	g.CatchUp(4)
	g.Drain()

	if err := g.Move("doc_0001", archive.Archived); err != nil {
		t.Fatalf("Move() = %v", err)
	}
	var moved bool
	for _, e := range g.Drain() {
		if m, ok := e.(DocumentMoved); ok && m.ID == "doc_0001" && m.From == archive.Inbox && m.To == archive.Archived {
			moved = true
		}
	}
	if !moved {
		t.Error("DocumentMoved not emitted")
	}

	if err := g.Move("doc_0001", archive.Archived); err != nil || len(g.Drain()) != 0 {
		t.Error("same-folder move should be a silent no-op")
	}
	if err := g.Move("doc_0404", archive.Archived); !errors.Is(err, archive.ErrUnknownDocument) {
		t.Errorf("unknown document error = %v", err)
	}
}

func TestReset(t *testing.T) {
	g, _ := newTestGame(t, Options{})
	g.CatchUp(30)
	g.Catalog().Unlock("violet")

	g.Reset()

	if s := g.Stats(); s.TotalDocuments != 0 || len(g.Documents()) != 0 {
		t.Errorf("reset kept progress: %+v", s)
	}
	if g.Catalog().IsUnlocked("violet") {
		t.Error("reset kept symbol unlocks")
	}
	var replaced bool
	for _, e := range g.Drain() {
		if _, ok := e.(StateReplaced); ok {
			replaced = true
		}
	}
	if !replaced {
		t.Error("StateReplaced not emitted")
	}
}

func TestViewApplyTracksGame(t *testing.T) {
	g, _ := newTestGame(t, Options{Rand: newScriptRand(0, 0, 0)})
	v := g.View()

	setLayout(t, g, "rrrg", "gbyb", "byrg", "yrgb")
	g.ResolveStep()
	g.CatchUp(6)
	_ = g.Move("doc_0002", archive.Priority)
	g.Tick(time.Second)

	for _, e := range g.Drain() {
		v.Apply(e)
	}
	want := g.View()

	if !reflect.DeepEqual(v.Stats, want.Stats) {
		t.Errorf("stats: view %+v, game %+v", v.Stats, want.Stats)
	}
	if !reflect.DeepEqual(v.Documents, want.Documents) {
		t.Error("documents diverged")
	}
	for _, f := range archive.Folders {
		if len(v.Folder(f)) != len(want.Folder(f)) {
			t.Errorf("folder %s: view %d, game %d", f, len(v.Folder(f)), len(want.Folder(f)))
		}
	}
	if !reflect.DeepEqual(v.Tiles, want.Tiles) {
		t.Error("tiles diverged")
	}
}

// firstRand always draws index 0, so every refill repeats the first symbol.
type firstRand struct{}

func (firstRand) Intn(int) int      { return 0 }
func (firstRand) Float64() float64 { return 0.99 }

func TestCascadeIsBounded(t *testing.T) {
	g, _ := newTestGame(t, Options{Rand: firstRand{}})
	setLayout(t, g,
		"rrrr",
		"rrrr",
		"rrrr",
		"rrrr",
	)

	if n := g.Cascade(); n != grid.MaxCascadePasses {
		t.Errorf("Cascade() = %d passes, expected %d", n, grid.MaxCascadePasses)
	}
	if !g.Board().IsStable() {
		t.Error("board left unstable after the pass limit")
	}
}

func TestShortSymbolTables(t *testing.T) {
	tests := []struct {
		name string
		syms []symbols.Symbol
	}{
		{"single symbol", symbols.DefaultSymbols()[:1]},
		{"blank ids", []symbols.Symbol{{Glyph: 'a'}, {Glyph: 'b'}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := newTestGame(t, Options{Symbols: tc.syms})
			if got := len(g.Catalog().Unlocked()); got < symbols.MinSymbols {
				t.Fatalf("unlocked symbols = %d", got)
			}
			g.Cascade()
			if !g.Board().IsStable() {
				t.Error("board not stable")
			}
		})
	}
}

func TestZeroViewAppliesMove(t *testing.T) {
	var v View
	v.Apply(DocumentMoved{ID: "doc_0000", From: archive.Inbox, To: archive.Archived})

	if got := v.Folders[archive.Archived]; !reflect.DeepEqual(got, []string{"doc_0000"}) {
		t.Errorf("archived = %v", got)
	}
}
