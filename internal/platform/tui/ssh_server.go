package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/signal-archive/internal/engine"
	"github.com/vovakirdan/signal-archive/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.signal-archive/host_key.
	HostKeyPath string

	// DBPath is the path to the save database.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Game configures every session's game. Rand and Clock must be nil so
	// each session gets its own.
	Game engine.Options
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		DBPath:      "~/.signal-archive/archive.db",
		IdleTimeout: 30 * time.Minute,
	}
}

// SSHServer wraps a Wish SSH server. Every connection plays its own game,
// saved in the slot named after the SSH user.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger
	games  sync.WaitGroup
	slots  *slotClaims
}

// slotClaims tracks the slots with a running game so one slot never has two
// runners saving over each other.
type slotClaims struct {
	mu   sync.Mutex
	busy map[string]bool
}

func newSlotClaims() *slotClaims {
	return &slotClaims{busy: make(map[string]bool)}
}

// claim marks slot busy. It returns false if it already was.
func (c *slotClaims) claim(slot string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[slot] {
		return false
	}
	c.busy[slot] = true
	return true
}

func (c *slotClaims) release(slot string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, slot)
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "signal-ssh",
	})

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("could not open save database", "error", err)
		// Continue without persistence
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		logger: logger,
		slots:  newSlotClaims(),
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".signal-archive", "host_key")
	}

	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler starts a game session for each SSH connection. The session is
// closed, and its final save written, when the connection ends.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	if _, _, ok := sshSession.Pty(); !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	slot := SlotName(sshSession.User())
	if !s.slots.claim(slot) {
		s.logger.Warn("slot already in use", "slot", slot, "remote", sshSession.RemoteAddr().String())
		wish.Fatalln(sshSession, "slot "+slot+" is already playing in another session")
		return nil, nil
	}
	sess, err := StartSession(sshSession.Context(), s.store, slot, s.config.Game, s.logger)
	if err != nil {
		s.slots.release(slot)
		s.logger.Error("could not start game", "user", sshSession.User(), "error", err)
		return nil, nil
	}

	s.games.Add(1)
	go func() {
		defer s.games.Done()
		<-sshSession.Context().Done()
		sess.Close()
		s.slots.release(slot)
		s.logger.Info("game closed", "slot", slot)
	}()

	model := NewModel(sess.Runner, Options{Slot: slot})
	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// SlotName maps an SSH user to a save slot. Anonymous users share "guest".
func SlotName(user string) string {
	if user == "" {
		return "guest"
	}
	return user
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server. Open sessions write their final
// saves before the store closes.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.games.Wait()

	if s.store != nil {
		s.store.Close()
	}
	return err
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
