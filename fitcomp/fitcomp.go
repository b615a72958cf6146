package fitcomp

import (
	"context"
	"sort"
	"sync"
	"time"

	"fitcompkit/core"
	"fitcompkit/engine"
	"fitcompkit/identity"
	"fitcompkit/integrations/webhook"
	"fitcompkit/realtime"
)

// Option configures the tracker service builder.
type Option func(*config)

type config struct {
	storage  engine.Storage
	mode     engine.DispatchMode
	hub      *realtime.Hub
	resolver identity.Resolver
	mult     *core.Multipliers
	svcOpts  []engine.ServiceOption
	webhooks []string
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithResolver sets the display-name resolver for status reports.
func WithResolver(r identity.Resolver) Option { return func(c *config) { c.resolver = r } }

// WithMultipliers overrides the default scoring multipliers.
func WithMultipliers(m core.Multipliers) Option { return func(c *config) { c.mult = &m } }

// WithClock overrides the service clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.svcOpts = append(c.svcOpts, engine.WithClock(now)) }
}

// WithWebhooks posts every engine event to the given endpoints.
func WithWebhooks(endpoints ...string) Option {
	return func(c *config) { c.webhooks = append(c.webhooks, endpoints...) }
}

// WithServiceOptions forwards extra options to the underlying service.
func WithServiceOptions(opts ...engine.ServiceOption) Option {
	return func(c *config) { c.svcOpts = append(c.svcOpts, opts...) }
}

var allEvents = []core.EventType{
	core.EventStatsLogged,
	core.EventStatsEdited,
	core.EventCompetitionCreated,
	core.EventParticipantJoined,
}

// New builds a configured TrackerService. If not provided, defaults are used:
//   - storage: in-memory
//   - multipliers: DefaultMultipliers
//   - dispatch: async
func New(opts ...Option) *engine.TrackerService {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		// implementors should pass explicit storage in prod
		cfg.storage = &memStore{}
	}

	svcOpts := cfg.svcOpts
	if cfg.resolver != nil {
		svcOpts = append(svcOpts, engine.WithResolver(cfg.resolver))
	}
	if cfg.mult != nil {
		svcOpts = append(svcOpts, engine.WithMultipliers(*cfg.mult))
	}

	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewTrackerService(cfg.storage, bus, svcOpts...)
	if cfg.hub != nil {
		// Bridge all primary events to realtime
		for _, typ := range allEvents {
			bus.Subscribe(typ, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		}
	}
	if len(cfg.webhooks) > 0 {
		sink := webhook.New(cfg.webhooks)
		for _, typ := range allEvents {
			bus.Subscribe(typ, func(_ context.Context, e core.Event) { sink.OnEvent(e) })
		}
	}
	return svc
}

// minimal memory impl mirroring adapters/memory, local to keep New() usable
// without further imports.
type memStore struct {
	mu           sync.RWMutex
	histories    map[core.UserID]core.History
	competitions map[string]core.Competition
}

func (s *memStore) UserHistory(_ context.Context, user core.UserID) (core.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.histories[user]; ok {
		return h.Clone(), nil
	}
	return core.History{}, nil
}

func (s *memStore) PutUserHistory(_ context.Context, user core.UserID, h core.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.histories == nil {
		s.histories = map[core.UserID]core.History{}
	}
	s.histories[user] = h.Clone()
	return nil
}

func (s *memStore) Competition(_ context.Context, name string) (core.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.competitions[name]; ok {
		return c.Clone(), nil
	}
	return core.Competition{}, core.ErrNotFound
}

func (s *memStore) PutCompetition(_ context.Context, c core.Competition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.competitions == nil {
		s.competitions = map[string]core.Competition{}
	}
	s.competitions[c.Name] = c.Clone()
	return nil
}

func (s *memStore) CompetitionNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.competitions))
	for name := range s.competitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
