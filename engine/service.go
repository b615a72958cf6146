package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"fitcompkit/core"
	"fitcompkit/identity"
	"fitcompkit/leaderboard"
)

// TrackerService wires storage, the event bus, identity resolution and the
// scoring configuration into the command-facing API. Every method is a
// short-lived synchronous computation; the only shared mutable state is the
// storage documents behind the Storage port.
type TrackerService struct {
	storage  Storage
	bus      *EventBus
	resolver identity.Resolver
	mult     core.Multipliers
	now      func() time.Time

	mu     sync.Mutex
	boards map[string]leaderboard.Board
}

// ServiceOption customizes a TrackerService.
type ServiceOption func(*TrackerService)

// WithResolver sets the display-name resolver. Without one, synthetic
// fallback names are used everywhere.
func WithResolver(r identity.Resolver) ServiceOption {
	return func(s *TrackerService) { s.resolver = r }
}

// WithMultipliers overrides the default scoring multipliers.
func WithMultipliers(m core.Multipliers) ServiceOption {
	return func(s *TrackerService) { s.mult = m }
}

// WithClock overrides the time source, fixing what "today" means in tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *TrackerService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTrackerService(storage Storage, bus *EventBus, opts ...ServiceOption) *TrackerService {
	if storage == nil || bus == nil {
		panic("NewTrackerService requires non-nil storage and bus")
	}
	s := &TrackerService{
		storage: storage,
		bus:     bus,
		mult:    core.DefaultMultipliers(),
		now:     time.Now,
		boards:  map[string]leaderboard.Board{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe convenience method.
func (s *TrackerService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *TrackerService) Publish(ctx context.Context, ev core.Event) {
	s.bus.Publish(ctx, ev)
}

func (s *TrackerService) Multipliers() core.Multipliers { return s.mult }

func (s *TrackerService) today() core.Date { return core.DateOf(s.now()) }

// LogToday records the user's measurement under today's date. A day can be
// logged once; edits go through EditToday.
func (s *TrackerService) LogToday(ctx context.Context, user core.UserID, m core.Measurement) (core.Date, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return "", err
	}
	if err := m.Validate(); err != nil {
		return "", err
	}
	history, err := s.storage.UserHistory(ctx, user)
	if err != nil {
		return "", err
	}
	day := s.today()
	if _, ok := history[day]; ok {
		return "", core.ErrAlreadyLogged
	}
	history[day] = m
	if err := s.storage.PutUserHistory(ctx, user, history); err != nil {
		return "", err
	}
	s.bus.Publish(ctx, core.NewStatsLogged(user, day, m))
	return day, nil
}

// EditToday merges a partial update over today's already-logged measurement
// and returns the updated record.
func (s *TrackerService) EditToday(ctx context.Context, user core.UserID, patch core.MeasurementPatch) (core.Measurement, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return core.Measurement{}, err
	}
	history, err := s.storage.UserHistory(ctx, user)
	if err != nil {
		return core.Measurement{}, err
	}
	day := s.today()
	current, ok := history[day]
	if !ok {
		return core.Measurement{}, core.ErrNotLoggedYet
	}
	if patch.IsZero() {
		return current, nil
	}
	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return core.Measurement{}, err
	}
	history[day] = updated
	if err := s.storage.PutUserHistory(ctx, user, history); err != nil {
		return core.Measurement{}, err
	}
	s.bus.Publish(ctx, core.NewStatsEdited(user, day, updated))
	return updated, nil
}

// PersonalProgress returns the user's full daily log in chronological order
// for personal progress charts.
func (s *TrackerService) PersonalProgress(ctx context.Context, user core.UserID) ([]core.DailyRecord, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	history, err := s.storage.UserHistory(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, core.ErrNotLoggedYet
	}
	return history.Records(), nil
}

// CreateCompetition starts a competition named name ending on endDate, with
// the creator as first participant at the given baseline.
func (s *TrackerService) CreateCompetition(ctx context.Context, name string, endDate string, creator core.UserID, baseline core.Measurement) (core.Competition, error) {
	creator, err := core.NormalizeUserID(creator)
	if err != nil {
		return core.Competition{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Competition{}, errors.New("competition name is required")
	}
	if _, err := s.storage.Competition(ctx, name); err == nil {
		return core.Competition{}, core.ErrDuplicateName
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Competition{}, err
	}
	comp, err := core.NewCompetition(name, endDate, creator, baseline, s.today())
	if err != nil {
		return core.Competition{}, err
	}
	if err := s.storage.PutCompetition(ctx, comp); err != nil {
		return core.Competition{}, err
	}
	s.bus.Publish(ctx, core.NewCompetitionCreated(comp.Name, creator, comp.EndDate))
	return comp, nil
}

// JoinCompetition adds the user to competition name with their baseline.
func (s *TrackerService) JoinCompetition(ctx context.Context, name string, user core.UserID, baseline core.Measurement) (core.Competition, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return core.Competition{}, err
	}
	comp, err := s.storage.Competition(ctx, name)
	if err != nil {
		return core.Competition{}, err
	}
	if err := comp.Join(user, baseline, s.today()); err != nil {
		return core.Competition{}, err
	}
	if err := s.storage.PutCompetition(ctx, comp); err != nil {
		return core.Competition{}, err
	}
	s.bus.Publish(ctx, core.NewParticipantJoined(comp.Name, user))
	return comp, nil
}

// StatusReport is a competition's aggregated progress joined with display
// names and per-participant baseline-to-latest summaries.
type StatusReport struct {
	Result    core.AggregateResult   `json:"result"`
	Names     map[core.UserID]string `json:"names"`
	Summaries []core.ChangeSummary   `json:"summaries"`
}

// HasData reports whether any participant has scored days.
func (r StatusReport) HasData() bool { return r.Result.HasData() }

// CompetitionStatus aggregates progress for every participant, resolves
// display names and refreshes the competition's live board.
func (s *TrackerService) CompetitionStatus(ctx context.Context, name string) (StatusReport, error) {
	comp, err := s.storage.Competition(ctx, name)
	if err != nil {
		return StatusReport{}, err
	}

	histories := make(map[core.UserID]core.History, len(comp.Participants))
	for _, p := range comp.Participants {
		h, err := s.storage.UserHistory(ctx, p.UserID)
		if err != nil {
			return StatusReport{}, err
		}
		histories[p.UserID] = h
	}

	result, err := core.Aggregate(comp, histories, s.today(), s.mult)
	if err != nil {
		return StatusReport{}, err
	}

	report := StatusReport{
		Result: result,
		Names:  make(map[core.UserID]string, len(comp.Participants)),
	}
	for _, p := range comp.Participants {
		report.Names[p.UserID] = identity.Resolve(ctx, s.resolver, p.UserID)
		series := result.PerUser[p.UserID]
		last, ok := series.Last()
		if !ok {
			continue
		}
		sum, err := core.Summarize(p.UserID, last.Date, p.Baseline, histories[p.UserID][last.Date], s.mult)
		if err != nil {
			return StatusReport{}, err
		}
		report.Summaries = append(report.Summaries, sum)
	}

	leaderboard.FromStandings(s.board(comp.Name), result.Standings)
	return report, nil
}

// TopN returns the competition's live board, computing it first if this
// process has not aggregated the competition yet.
func (s *TrackerService) TopN(ctx context.Context, name string, n int) ([]leaderboard.Entry, error) {
	s.mu.Lock()
	b, ok := s.boards[name]
	s.mu.Unlock()
	if !ok || b.Len() == 0 {
		if _, err := s.CompetitionStatus(ctx, name); err != nil {
			return nil, err
		}
		b = s.board(name)
	}
	return b.TopN(n), nil
}

func (s *TrackerService) board(name string) leaderboard.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[name]
	if !ok {
		b = leaderboard.NewSkipList()
		s.boards[name] = b
	}
	return b
}

// CompetitionSummary is one row of the competition listing.
type CompetitionSummary struct {
	Name             string    `json:"name"`
	ParticipantCount int       `json:"participant_count"`
	StartDate        core.Date `json:"start_date"`
	EndDate          core.Date `json:"end_date"`
	Active           bool      `json:"active"`
}

// ListCompetitions lists every known competition with its participant count
// and whether it is still running.
func (s *TrackerService) ListCompetitions(ctx context.Context) ([]CompetitionSummary, error) {
	names, err := s.storage.CompetitionNames(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	out := make([]CompetitionSummary, 0, len(names))
	for _, name := range names {
		comp, err := s.storage.Competition(ctx, name)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, CompetitionSummary{
			Name:             comp.Name,
			ParticipantCount: len(comp.Participants),
			StartDate:        comp.StartDate,
			EndDate:          comp.EndDate,
			Active:           comp.StatusAt(today) != core.StatusEnded,
		})
	}
	return out, nil
}

func (s *TrackerService) Close() { s.bus.Close() }
