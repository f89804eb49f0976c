package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"backend-corevia/internal/activity"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrForbidden       = errors.New("session belongs to another user")
)

// WeightSource supplies the athlete's body weight at session start.
type WeightSource interface {
	WeightKg(ctx context.Context, userID string) (float64, error)
}

// RecordStore persists finished activities.
type RecordStore interface {
	SaveRecord(ctx context.Context, userID string, rec activity.Record) (string, error)
}

type Broadcaster interface {
	Broadcast(sessionID string, payload []byte)
}

// TickerFunc returns a tick channel and a function that stops it.
type TickerFunc func() (<-chan time.Time, func())

type Service struct {
	weights       WeightSource
	store         RecordStore
	hub           Broadcaster
	defaultWeight float64
	newTicker     TickerFunc
	now           func() time.Time
	idleTimeout   time.Duration

	mu       sync.RWMutex
	sessions map[string]*liveSession

	quit      chan struct{}
	closeOnce sync.Once
}

type liveSession struct {
	id       string
	userID   string
	runner   *activity.Runner
	provider *clientProvider
	cancel   context.CancelFunc
	stopTick func()
	// lastSeen is the unix nano time of the owner's latest request.
	lastSeen atomic.Int64
}

// clientProvider tracks whether the mobile client should stream fixes.
type clientProvider struct {
	active atomic.Bool
}

func (p *clientProvider) RequestStart() { p.active.Store(true) }
func (p *clientProvider) RequestStop()  { p.active.Store(false) }

type Option func(*Service)

func WithDefaultWeight(kg float64) Option {
	return func(s *Service) {
		if kg > 0 {
			s.defaultWeight = kg
		}
	}
}

// WithTickInterval sets how often the duration clock fires. Each tick adds
// one second regardless of the interval.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.newTicker = intervalTicker(d)
		}
	}
}

func WithTicker(fn TickerFunc) Option {
	return func(s *Service) {
		if fn != nil {
			s.newTicker = fn
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIdleTimeout stops sessions whose owner has sent nothing for d. Finished
// records that are long enough are still stored. Zero disables the reaper.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

func NewService(weights WeightSource, store RecordStore, hub Broadcaster, opts ...Option) *Service {
	s := &Service{
		weights:       weights,
		store:         store,
		hub:           hub,
		defaultWeight: activity.DefaultWeightKg,
		newTicker:     intervalTicker(time.Second),
		now:           time.Now,
		sessions:      map[string]*liveSession{},
		quit:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTimeout > 0 {
		go s.reapLoop(reapInterval(s.idleTimeout))
	}
	return s
}

func reapInterval(idle time.Duration) time.Duration {
	if idle < time.Minute {
		return idle
	}
	return time.Minute
}

func intervalTicker(d time.Duration) TickerFunc {
	return func() (<-chan time.Time, func()) {
		t := time.NewTicker(d)
		return t.C, t.Stop
	}
}

// StartSession creates a live session for userID and starts it.
func (s *Service) StartSession(ctx context.Context, userID, activityType string) (View, error) {
	weight := s.lookupWeight(ctx, userID)

	ls := &liveSession{
		id:       uuid.NewString(),
		userID:   userID,
		provider: &clientProvider{},
	}
	ls.touch(s.now())
	session := activity.NewSession(
		activity.WithClock(s.now),
		activity.WithDefaultWeight(s.defaultWeight),
	)
	ticks, stopTick := s.newTicker()
	ls.stopTick = stopTick
	ls.runner = activity.NewRunner(session, ticks,
		activity.WithProvider(ls.provider),
		activity.WithNotify(func(snap activity.Snapshot) { s.publish(ls, snap) }),
	)

	runCtx, cancel := context.WithCancel(context.Background())
	ls.cancel = cancel
	go ls.runner.Run(runCtx)

	if err := ls.runner.Start(ctx, activityType, weight); err != nil {
		ls.close()
		return View{}, fmt.Errorf("start session: %w", err)
	}

	s.mu.Lock()
	s.sessions[ls.id] = ls
	s.mu.Unlock()

	log.Printf("tracking: session %s started for user %s", ls.id, userID)
	return s.view(ctx, ls)
}

func (s *Service) lookupWeight(ctx context.Context, userID string) float64 {
	if s.weights == nil {
		return 0
	}
	kg, err := s.weights.WeightKg(ctx, userID)
	if err != nil {
		log.Printf("tracking: weight for user %s unavailable, using default: %v", userID, err)
		return 0
	}
	return kg
}

// AddFix feeds one location fix to the session. A zero timestamp means "now".
func (s *Service) AddFix(ctx context.Context, userID, sessionID string, fix activity.LocationFix) (View, error) {
	ls, err := s.lookup(userID, sessionID)
	if err != nil {
		return View{}, err
	}
	if fix.Timestamp.IsZero() {
		fix.Timestamp = s.now()
	}
	if err := ls.runner.PushFix(ctx, fix); err != nil {
		return View{}, err
	}
	return s.view(ctx, ls)
}

// UpdateSteps feeds the step counter's running total since the last resume.
func (s *Service) UpdateSteps(ctx context.Context, userID, sessionID string, total int) (View, error) {
	ls, err := s.lookup(userID, sessionID)
	if err != nil {
		return View{}, err
	}
	if err := ls.runner.PushSteps(ctx, total); err != nil {
		return View{}, err
	}
	return s.view(ctx, ls)
}

func (s *Service) Pause(ctx context.Context, userID, sessionID string) (View, error) {
	ls, err := s.lookup(userID, sessionID)
	if err != nil {
		return View{}, err
	}
	if err := ls.runner.Pause(ctx); err != nil {
		return View{}, err
	}
	return s.view(ctx, ls)
}

func (s *Service) Resume(ctx context.Context, userID, sessionID string) (View, error) {
	ls, err := s.lookup(userID, sessionID)
	if err != nil {
		return View{}, err
	}
	if err := ls.runner.Resume(ctx); err != nil {
		return View{}, err
	}
	return s.view(ctx, ls)
}

// Stop finalizes the session, removes it from the registry and persists the
// record when it is long enough to keep.
func (s *Service) Stop(ctx context.Context, userID, sessionID string) (StopResult, error) {
	ls, err := s.lookup(userID, sessionID)
	if err != nil {
		return StopResult{}, err
	}
	rec, keep, err := ls.runner.Stop(ctx)
	if err != nil {
		return StopResult{}, err
	}
	view, err := s.view(ctx, ls)
	if err != nil {
		return StopResult{}, err
	}

	s.mu.Lock()
	delete(s.sessions, ls.id)
	s.mu.Unlock()
	ls.close()

	result := StopResult{View: view}
	if !keep || s.store == nil {
		log.Printf("tracking: session %s stopped after %ds, not stored", ls.id, rec.DurationSec)
		return result, nil
	}
	routeID, err := s.store.SaveRecord(ctx, userID, rec)
	if err != nil {
		return result, fmt.Errorf("save session %s: %w", ls.id, err)
	}
	result.Persisted = true
	result.RouteID = routeID
	log.Printf("tracking: session %s stored as route %s", ls.id, routeID)
	return result, nil
}

func (s *Service) Get(ctx context.Context, userID, sessionID string) (View, error) {
	ls, err := s.lookup(userID, sessionID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, ls)
}

// Active returns how many sessions are live.
func (s *Service) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CanWatch reports whether userID may follow the live stream of sessionID.
// Only the owner may watch a session running on this instance.
func (s *Service) CanWatch(userID, sessionID string) error {
	_, err := s.find(userID, sessionID)
	return err
}

func (s *Service) reapLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-t.C:
			s.reapIdle(context.Background())
		}
	}
}

// reapIdle stops every session idle for longer than the idle timeout and
// returns how many it stopped.
func (s *Service) reapIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.idleTimeout).UnixNano()

	s.mu.Lock()
	var idle []*liveSession
	for id, ls := range s.sessions {
		if ls.lastSeen.Load() < cutoff {
			idle = append(idle, ls)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, ls := range idle {
		s.expire(ctx, ls)
	}
	return len(idle)
}

func (s *Service) expire(ctx context.Context, ls *liveSession) {
	rec, keep, err := ls.runner.Stop(ctx)
	ls.close()
	if err != nil {
		log.Printf("tracking: stop idle session %s: %v", ls.id, err)
		return
	}
	if !keep || s.store == nil {
		log.Printf("tracking: idle session %s stopped after %ds, not stored", ls.id, rec.DurationSec)
		return
	}
	routeID, err := s.store.SaveRecord(ctx, ls.userID, rec)
	if err != nil {
		log.Printf("tracking: save idle session %s: %v", ls.id, err)
		return
	}
	log.Printf("tracking: idle session %s stored as route %s", ls.id, routeID)
}

// Close stops every live session without persisting it.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.quit) })

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = map[string]*liveSession{}
	s.mu.Unlock()

	for _, ls := range sessions {
		ls.close()
	}
}

// lookup resolves an owner request and marks the session as seen.
func (s *Service) lookup(userID, sessionID string) (*liveSession, error) {
	ls, err := s.find(userID, sessionID)
	if err != nil {
		return nil, err
	}
	ls.touch(s.now())
	return ls, nil
}

func (s *Service) find(userID, sessionID string) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if ls.userID != userID {
		return nil, ErrForbidden
	}
	return ls, nil
}

func (s *Service) view(ctx context.Context, ls *liveSession) (View, error) {
	snap, err := ls.runner.Snapshot(ctx)
	if err != nil {
		return View{}, err
	}
	return ls.viewOf(snap), nil
}

func (s *Service) publish(ls *liveSession, snap activity.Snapshot) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(ls.viewOf(snap))
	if err != nil {
		log.Printf("tracking: encode snapshot for %s: %v", ls.id, err)
		return
	}
	s.hub.Broadcast(ls.id, payload)
}

func (ls *liveSession) viewOf(snap activity.Snapshot) View {
	return View{
		SessionID:         ls.id,
		UserID:            ls.userID,
		LocationRequested: ls.provider.active.Load(),
		Snapshot:          snap,
	}
}

func (ls *liveSession) touch(t time.Time) {
	ls.lastSeen.Store(t.UnixNano())
}

func (ls *liveSession) close() {
	ls.cancel()
	<-ls.runner.Done()
	ls.stopTick()
}
