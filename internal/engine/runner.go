package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/grid"
	"github.com/vovakirdan/signal-archive/internal/persist"
)

// ErrStopped is returned for commands sent after the Runner stopped.
var ErrStopped = errors.New("engine: runner stopped")

type envelope struct {
	cmd   Command
	reply chan Reply
}

type saveJob struct {
	seq  uint64
	data []byte
	at   time.Time
	auto bool
}

// Runner owns one Game and processes every mutation of it on a single
// goroutine. Player commands, progression ticks, delayed cascade steps and
// save completions all arrive through one buffered channel.
type Runner struct {
	game    *Game
	gateway persist.Gateway
	clock   core.Clock
	cfg     core.RuntimeConfig
	logger  *log.Logger

	inbox   chan envelope
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	subsMu sync.Mutex
	subs   map[*Subscription]struct{}

	resolving bool
	lastTick  time.Time
	saves     sync.WaitGroup

	// issued is touched only by the loop. written is the newest job that
	// reached the gateway; writeMu orders writes and clears against it.
	issued  uint64
	writeMu sync.Mutex
	written uint64
}

// NewRunner wraps a game. A nil gateway disables saving; a nil logger
// discards process logs.
func NewRunner(game *Game, gateway persist.Gateway, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		game:    game,
		gateway: gateway,
		clock:   game.opts.Clock,
		cfg:     game.opts.Config,
		logger:  logger,
		inbox:   make(chan envelope, 256),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		subs:    make(map[*Subscription]struct{}),
	}
}

// Start loads the stored save, applies idle catch-up and starts the loop.
// A missing save starts a fresh game; a corrupt one is reported and replaced
// by a fresh game on the next save.
func (r *Runner) Start(ctx context.Context) error {
	if r.gateway != nil {
		data, savedAt, err := r.gateway.Load(ctx)
		switch {
		case errors.Is(err, persist.ErrNoSave):
			r.logger.Info("no save found, starting fresh")
		case err != nil:
			return err
		default:
			if err := r.game.Load(data); err != nil {
				r.logger.Warn("stored save rejected", "err", err)
			} else {
				minutes := persist.IdleMinutes(savedAt, r.clock.Now())
				n := r.game.CatchUp(minutes)
				r.logger.Info("save loaded", "idle_minutes", minutes, "idle_documents", n)
			}
		}
	}
	r.game.Drain()

	go r.run()
	return nil
}

// Stop ends the loop, finishes any pending cascade and writes a final save.
// Safe to call multiple times.
func (r *Runner) Stop() {
	r.once.Do(func() {
		close(r.done)
	})
	<-r.stopped
	r.saves.Wait()
}

// Send posts a command without waiting for its result.
func (r *Runner) Send(cmd Command) {
	r.post(envelope{cmd: cmd})
}

// Do posts a command and waits for its reply.
func (r *Runner) Do(ctx context.Context, cmd Command) Reply {
	reply := make(chan Reply, 1)
	if !r.post(envelope{cmd: cmd, reply: reply}) {
		return Reply{Err: ErrStopped}
	}
	select {
	case rep := <-reply:
		return rep
	case <-ctx.Done():
		return Reply{Err: ctx.Err()}
	case <-r.stopped:
		select {
		case rep := <-reply:
			return rep
		default:
			return Reply{Err: ErrStopped}
		}
	}
}

// View returns a copy of the current state.
func (r *Runner) View(ctx context.Context) (View, error) {
	rep := r.Do(ctx, viewRequest{})
	if rep.Err != nil {
		return View{}, rep.Err
	}
	return *rep.View, nil
}

// Subscribe registers a new event subscriber. Its first event is a
// StateReplaced carrying the full view.
func (r *Runner) Subscribe(bufferSize int) *Subscription {
	sub := newSubscription(bufferSize)
	if !r.post(envelope{cmd: subscribe{sub: sub}}) {
		sub.Close()
	}
	return sub
}

func (r *Runner) post(env envelope) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- env:
		return true
	case <-r.done:
		return false
	}
}

func (r *Runner) run() {
	defer close(r.stopped)

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	var autosave <-chan time.Time
	if r.cfg.AutosaveInterval > 0 {
		t := time.NewTicker(r.cfg.AutosaveInterval)
		defer t.Stop()
		autosave = t.C
	}

	r.lastTick = r.clock.Now()

	for {
		select {
		case env := <-r.inbox:
			r.handle(env)
		case <-ticker.C:
			r.tick()
		case <-autosave:
			r.save(true, nil)
		case <-r.done:
			r.shutdown()
			return
		}
		r.flush()
	}
}

func (r *Runner) tick() {
	now := r.clock.Now()
	elapsed := now.Sub(r.lastTick)
	r.lastTick = now
	r.game.Tick(elapsed)
}

func (r *Runner) handle(env envelope) {
	var rep Reply
	switch c := env.cmd.(type) {
	case SelectTile:
		move := r.game.Select(c.Index)
		switch move.Outcome {
		case grid.SelectionIgnored:
			r.logger.Debug("selection ignored", "index", c.Index)
		case grid.SelectionSwapped:
			r.scheduleResolve()
		}

	case resolveStep:
		if r.game.ResolveStep() {
			r.scheduleResolveAgain()
		} else {
			r.resolving = false
		}

	case MoveDocument:
		rep.Err = r.game.Move(c.ID, c.Folder)

	case SaveNow:
		// The reply is sent when the write completes.
		r.save(false, env.reply)
		return

	case saveDone:
		r.finishSave(c)

	case LoadNow:
		rep.Err = r.load()

	case ResetAll:
		rep.Err = r.reset()

	case ExportSnapshot:
		rep.Data, rep.Err = r.game.Export()
		if rep.Err == nil {
			r.game.log(LevelSuccess, "SAVE EXPORTED")
		}

	case ImportSnapshot:
		rep.Err = r.game.Import(c.Data)
		if rep.Err == nil {
			r.save(false, nil)
		}

	case viewRequest:
		v := r.game.View()
		rep.View = &v

	case subscribe:
		r.subsMu.Lock()
		r.subs[c.sub] = struct{}{}
		r.subsMu.Unlock()
		c.sub.send(StateReplaced{View: r.game.View()})
	}

	if env.reply != nil {
		env.reply <- rep
	}
}

// scheduleResolve starts a cascade after the settle delay unless one is
// already running; a running cascade picks up the new runs on its next step.
func (r *Runner) scheduleResolve() {
	if r.resolving {
		return
	}
	r.resolving = true
	r.scheduleResolveAgain()
}

func (r *Runner) scheduleResolveAgain() {
	time.AfterFunc(r.cfg.SettleDelay, func() {
		r.post(envelope{cmd: resolveStep{}})
	})
}

// save snapshots the game on the loop and writes it on another goroutine.
// Completion comes back as a saveDone command.
func (r *Runner) save(auto bool, reply chan Reply) {
	if r.gateway == nil {
		if reply != nil {
			reply <- Reply{}
		}
		return
	}

	now := r.clock.Now()
	r.game.MarkSaved(now)
	data, err := r.game.Export()
	if err != nil {
		r.logger.Error("encode failed", "err", err)
		if reply != nil {
			reply <- Reply{Err: err}
		}
		return
	}

	r.issued++
	job := saveJob{seq: r.issued, data: data, at: now, auto: auto}
	r.saves.Add(1)
	go func() {
		defer r.saves.Done()
		err := r.write(job)
		if !r.post(envelope{cmd: saveDone{snap: job, err: err, reply: reply}}) && reply != nil {
			reply <- Reply{Err: err}
		}
	}()
}

// write hands a job to the gateway unless a newer job already landed.
// A superseded job reports success: the newer snapshot contains its state.
func (r *Runner) write(job saveJob) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if job.seq <= r.written {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.gateway.Save(ctx, job.data, job.at); err != nil {
		return err
	}
	r.written = job.seq
	return nil
}

func (r *Runner) finishSave(d saveDone) {
	switch {
	case d.err != nil:
		r.logger.Error("save failed", "err", d.err)
		r.game.log(LevelError, "SAVE FAILED")
	case d.snap.auto:
		r.logger.Debug("autosaved", "bytes", len(d.snap.data))
		r.game.log(LevelInfo, "AUTO-SAVED")
	default:
		r.logger.Info("saved", "bytes", len(d.snap.data))
		r.game.log(LevelSuccess, "GAME SAVED")
	}
	if d.reply != nil {
		d.reply <- Reply{Err: d.err}
	}
}

func (r *Runner) load() error {
	if r.gateway == nil {
		return persist.ErrNoSave
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data, _, err := r.gateway.Load(ctx)
	if err != nil {
		if errors.Is(err, persist.ErrNoSave) {
			r.game.log(LevelWarning, "NO SAVE FOUND")
		} else {
			r.game.log(LevelError, "LOAD FAILED")
		}
		return err
	}
	return r.game.Load(data)
}

// clear wipes the gateway and retires every save issued before it, so an
// in-flight write cannot bring the old progress back.
func (r *Runner) clear() error {
	r.issued++
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.gateway.Clear(ctx); err != nil {
		return err
	}
	r.written = r.issued
	return nil
}

func (r *Runner) reset() error {
	if r.gateway != nil {
		if err := r.clear(); err != nil {
			r.logger.Error("clear failed", "err", err)
			r.game.log(LevelError, "RESET FAILED")
			return err
		}
	}
	r.resolving = false
	r.game.Reset()
	r.logger.Info("progress reset")
	return nil
}

// shutdown runs the pending cascade to completion and writes a final save
// synchronously.
func (r *Runner) shutdown() {
	r.game.Cascade()
	r.resolving = false

	if r.gateway != nil {
		// In-flight writes finish first so they cannot overwrite the final save.
		r.saves.Wait()
		now := r.clock.Now()
		r.game.MarkSaved(now)
		if data, err := r.game.Export(); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := r.gateway.Save(ctx, data, now); err != nil {
				r.logger.Error("final save failed", "err", err)
			}
			cancel()
		}
	}
	r.flush()
	r.drainInbox()

	r.subsMu.Lock()
	for sub := range r.subs {
		sub.Close()
	}
	r.subs = nil
	r.subsMu.Unlock()
}

// drainInbox answers commands that were queued before the loop stopped.
func (r *Runner) drainInbox() {
	for {
		select {
		case env := <-r.inbox:
			switch c := env.cmd.(type) {
			case subscribe:
				c.sub.Close()
			case saveDone:
				if c.reply != nil {
					c.reply <- Reply{Err: c.err}
				}
			default:
				if env.reply != nil {
					env.reply <- Reply{Err: ErrStopped}
				}
			}
		default:
			return
		}
	}
}

// flush publishes the game's pending events to every live subscriber.
func (r *Runner) flush() {
	events := r.game.Drain()
	if len(events) == 0 {
		return
	}

	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for sub := range r.subs {
		if sub.closed() {
			delete(r.subs, sub)
			continue
		}
		for _, e := range events {
			sub.send(e)
		}
	}
}
