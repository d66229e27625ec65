// Package session wires the player components together.
package session

import (
	"context"
	"io"
	"math/rand"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/deckbox/internal/app/library"
	"github.com/osa030/deckbox/internal/app/notification"
	"github.com/osa030/deckbox/internal/app/playback"
	"github.com/osa030/deckbox/internal/infra/config"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotStarted     = errors.New("session is not running")
)

// Manager owns the controller, the library service and the notification
// fan-out for the lifetime of the server.
type Manager struct {
	mu sync.Mutex

	// Configuration
	config *config.Config

	// Components
	playback     *playback.Controller
	library      *library.Service
	notification *notification.Manager
	repo         library.Repository

	// Lifecycle
	started bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager creates a new session manager driving adapter with tracks
// from repo.
func NewManager(cfg *config.Config, adapter playback.Adapter, repo library.Repository) (*Manager, error) {
	insertAt, err := library.ParseInsertPosition(cfg.Playback.InsertPosition)
	if err != nil {
		return nil, errors.Wrap(err, "invalid playback config")
	}

	var picker playback.Picker
	if cfg.Playback.ShuffleSeed != 0 {
		picker = rand.New(rand.NewSource(cfg.Playback.ShuffleSeed))
	}

	controller := playback.NewController(adapter, playback.Config{
		InitialVolume:    cfg.Playback.DefaultVolume,
		RestartThreshold: cfg.Playback.RestartThreshold(),
		Rand:             picker,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		config:       cfg,
		playback:     controller,
		library:      library.NewService(repo, controller, insertAt),
		notification: notification.NewManager(notification.DefaultSendTimeout),
		repo:         repo,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}, nil
}

// Start loads the library and starts the background loops. A library that
// fails to load leaves the player empty; Reload can retry later.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	select {
	case <-m.done:
		return ErrNotStarted
	default:
	}
	m.started = true

	if err := m.library.Load(ctx); err != nil {
		zlog.Error().Err(err).Msg("session: failed to load library, starting with an empty queue")
	}

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		if err := m.playback.Run(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error().Err(err).Msg("session: playback loop stopped")
		}
	}()
	go func() {
		defer m.wg.Done()
		m.notification.Run(m.ctx, m.playback.Events())
	}()

	if w, ok := m.repo.(library.Watcher); ok {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := w.Watch(m.ctx, m.onCatalogChanged); err != nil {
				zlog.Error().Err(err).Msg("session: catalog watcher stopped")
			}
		}()
	}

	zlog.Info().Msgf("session: started: tracks=%d volume=%d",
		m.playback.Snapshot().Queue.Len(), m.config.Playback.DefaultVolume)
	return nil
}

func (m *Manager) onCatalogChanged() {
	zlog.Info().Msg("session: catalog changed, reloading")
	if _, err := m.Reload(m.ctx); err != nil {
		zlog.Error().Err(err).Msg("session: reload failed")
	}
}

// Reload re-reads the repository into the queue and returns its length.
func (m *Manager) Reload(ctx context.Context) (int, error) {
	if err := m.library.Load(ctx); err != nil {
		return 0, err
	}
	return m.playback.Snapshot().Queue.Len(), nil
}

// Playback returns the playback controller.
func (m *Manager) Playback() *playback.Controller {
	return m.playback
}

// Library returns the library service.
func (m *Manager) Library() *library.Service {
	return m.library
}

// Notifications returns the notification manager.
func (m *Manager) Notifications() *notification.Manager {
	return m.notification
}

// Done returns a channel that is closed when the session is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops the background loops and releases the device and the
// repository. It is safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	select {
	case <-m.done:
		m.mu.Unlock()
		return
	default:
	}
	close(m.done)
	m.mu.Unlock()

	m.cancel()
	m.playback.Close()
	m.wg.Wait()
	m.notification.Close()

	if c, ok := m.repo.(io.Closer); ok {
		if err := c.Close(); err != nil {
			zlog.Warn().Err(err).Msg("session: failed to close repository")
		}
	}
	zlog.Info().Msg("session: closed")
}
