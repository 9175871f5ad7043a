package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/persist"
)

func quietConfig() core.RuntimeConfig {
	return core.RuntimeConfig{
		GridSize:     8,
		TickInterval: time.Hour,
		SettleDelay:  0,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startRunner(t *testing.T, g *Game, gw persist.Gateway) *Runner {
	t.Helper()
	r := NewRunner(g, gw, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	t.Cleanup(r.Stop)
	return r
}

func TestRunnerSwapTriggersCascade(t *testing.T) {
	g, _ := newTestGame(t, Options{Config: quietConfig()})
	setLayout(t, g,
		"rgrb",
		"gryy",
		"bybg",
		"ybgr",
	)
	r := startRunner(t, g, nil)
	ctx := context.Background()

	r.Do(ctx, SelectTile{Index: 1})
	r.Do(ctx, SelectTile{Index: 5})

	waitFor(t, "cascade to score", func() bool {
		v, err := r.View(ctx)
		return err == nil && v.Stats.TotalMatches >= 3
	})

	v, _ := r.View(ctx)
	if v.Selected != -1 {
		t.Errorf("selection not cleared after swap: %d", v.Selected)
	}
}

func TestRunnerSaveAndLoad(t *testing.T) {
	g, _ := newTestGame(t, Options{Config: quietConfig()})
	g.CatchUp(20)
	mem := persist.NewMemory()
	r := startRunner(t, g, mem)
	ctx := context.Background()

	if rep := r.Do(ctx, SaveNow{}); rep.Err != nil {
		t.Fatalf("SaveNow = %v", rep.Err)
	}
	if mem.Saves() != 1 {
		t.Fatalf("gateway saves = %d", mem.Saves())
	}

	if rep := r.Do(ctx, ResetAll{}); rep.Err != nil {
		t.Fatalf("ResetAll = %v", rep.Err)
	}
	if _, _, err := mem.Load(ctx); !errors.Is(err, persist.ErrNoSave) {
		t.Errorf("reset did not clear the gateway: %v", err)
	}
	if rep := r.Do(ctx, LoadNow{}); !errors.Is(rep.Err, persist.ErrNoSave) {
		t.Errorf("LoadNow after reset = %v", rep.Err)
	}
}

// slowFirstGateway delays its first Save so a later save can overtake it.
type slowFirstGateway struct {
	*persist.Memory
	calls atomic.Int32
}

func (g *slowFirstGateway) Save(ctx context.Context, data []byte, at time.Time) error {
	if g.calls.Add(1) == 1 {
		time.Sleep(300 * time.Millisecond)
	}
	return g.Memory.Save(ctx, data, at)
}

func TestRunnerSavesLandInOrder(t *testing.T) {
	g, clock := newTestGame(t, Options{Config: quietConfig()})
	gw := &slowFirstGateway{Memory: persist.NewMemory()}
	r := startRunner(t, g, gw)
	ctx := context.Background()

	r.Send(SaveNow{})
	waitFor(t, "first save to start", func() bool { return gw.calls.Load() >= 1 })
	clock.Advance(10 * time.Minute)
	if rep := r.Do(ctx, SaveNow{}); rep.Err != nil {
		t.Fatalf("SaveNow = %v", rep.Err)
	}
	r.saves.Wait()

	_, at, err := gw.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := epoch.Add(10 * time.Minute); !at.Equal(want) {
		t.Errorf("stored marker = %v, expected %v", at, want)
	}
}

func TestRunnerResetRetiresPendingSave(t *testing.T) {
	g, _ := newTestGame(t, Options{Config: quietConfig()})
	gw := &slowFirstGateway{Memory: persist.NewMemory()}
	r := startRunner(t, g, gw)
	ctx := context.Background()

	r.Send(SaveNow{})
	waitFor(t, "save to start", func() bool { return gw.calls.Load() >= 1 })
	if rep := r.Do(ctx, ResetAll{}); rep.Err != nil {
		t.Fatalf("ResetAll = %v", rep.Err)
	}
	r.saves.Wait()

	if _, _, err := gw.Load(ctx); !errors.Is(err, persist.ErrNoSave) {
		t.Errorf("pending save survived reset: %v", err)
	}
}

func TestRunnerStartCatchesUp(t *testing.T) {
	src, clock := newTestGame(t, Options{Config: quietConfig()})
	data, err := src.Export()
	if err != nil {
		t.Fatal(err)
	}

	mem := persist.NewMemory()
	mem.Save(context.Background(), data, clock.Now())
	clock.Advance(10*time.Minute + 20*time.Second)

	g, _ := newTestGame(t, Options{Config: quietConfig(), Clock: clock})
	r := startRunner(t, g, mem)

	v, err := r.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Documents) != 5 || v.Stats.TotalDocuments != 5 {
		t.Errorf("idle catch-up produced %d documents, expected 5", len(v.Documents))
	}
}

func TestRunnerStartWithCorruptSave(t *testing.T) {
	mem := persist.NewMemory()
	mem.Save(context.Background(), []byte(`{"stats":{}}`), epoch)

	g, _ := newTestGame(t, Options{Config: quietConfig()})
	r := startRunner(t, g, mem)

	v, err := r.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Documents) != 0 {
		t.Error("corrupt save should start fresh")
	}
}

func TestRunnerImportExport(t *testing.T) {
	g, _ := newTestGame(t, Options{Config: quietConfig()})
	g.CatchUp(8)
	mem := persist.NewMemory()
	r := startRunner(t, g, mem)
	ctx := context.Background()

	exp := r.Do(ctx, ExportSnapshot{})
	if exp.Err != nil || len(exp.Data) == 0 {
		t.Fatalf("ExportSnapshot = %v", exp.Err)
	}

	rep := r.Do(ctx, ImportSnapshot{Data: []byte(`{"decoders":[]}`)})
	if !errors.Is(rep.Err, persist.ErrMalformedSave) {
		t.Errorf("malformed import = %v", rep.Err)
	}
	v, _ := r.View(ctx)
	if len(v.Documents) != 4 {
		t.Errorf("failed import changed documents: %d", len(v.Documents))
	}

	if rep := r.Do(ctx, ImportSnapshot{Data: exp.Data}); rep.Err != nil {
		t.Errorf("valid import = %v", rep.Err)
	}
	waitFor(t, "import to be persisted", func() bool { return mem.Saves() >= 1 })
}

func TestRunnerSubscribe(t *testing.T) {
	g, _ := newTestGame(t, Options{Config: quietConfig()})
	r := startRunner(t, g, nil)

	sub := r.Subscribe(16)
	defer sub.Close()

	select {
	case e := <-sub.Events():
		if _, ok := e.(StateReplaced); !ok {
			t.Fatalf("first event = %T, expected StateReplaced", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial event")
	}

	r.Send(SelectTile{Index: 0})
	select {
	case e := <-sub.Events():
		gc, ok := e.(GridChanged)
		if !ok || gc.Selected != 0 {
			t.Errorf("event = %#v, expected GridChanged with selection", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no GridChanged")
	}
}

func TestRunnerStopSavesAndRejectsCommands(t *testing.T) {
	g, _ := newTestGame(t, Options{Config: quietConfig()})
	mem := persist.NewMemory()
	r := NewRunner(g, mem, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	sub := r.Subscribe(4)

	r.Stop()
	r.Stop()

	if _, _, err := mem.Load(context.Background()); err != nil {
		t.Errorf("no final save: %v", err)
	}
	if rep := r.Do(context.Background(), SaveNow{}); !errors.Is(rep.Err, ErrStopped) {
		t.Errorf("Do after Stop = %v", rep.Err)
	}
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Error("subscription not closed on stop")
	}
}

func TestSubscriptionDropsOldest(t *testing.T) {
	sub := newSubscription(2)
	sub.send(LogEmitted{Entry: LogEntry{Text: "1"}})
	sub.send(LogEmitted{Entry: LogEntry{Text: "2"}})
	sub.send(LogEmitted{Entry: LogEntry{Text: "3"}})

	first := (<-sub.Events()).(LogEmitted)
	second := (<-sub.Events()).(LogEmitted)
	if first.Entry.Text != "2" || second.Entry.Text != "3" {
		t.Errorf("got %s %s, expected 2 3", first.Entry.Text, second.Entry.Text)
	}

	sub.Close()
	sub.Close()
	sub.send(LogEmitted{})
	select {
	case <-sub.Events():
		t.Error("closed subscription received an event")
	default:
	}
}
