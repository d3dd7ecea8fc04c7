package notifier

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"localnotify/internal/notification"
	"localnotify/internal/platform"
	logx "localnotify/pkg/logx"
)

// Service is safe for concurrent use. It caches nothing about the platform:
// every query is a round trip.
type Service struct {
	mu sync.Mutex

	log  logx.Logger
	plat platform.Platform

	cfg       Config
	limiter   *rate.Limiter
	ids       notification.IDGenerator
	customIDs bool
	builder   *notification.Builder
	clock     func() time.Time
	hooks     Hooks

	initMu sync.Mutex
	subs   *Subscriptions

	hmu     sync.Mutex
	history []HistoryItem
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.clock = now }
}

// WithIDGenerator replaces the random generator derived from Config.MaxRandomID.
func WithIDGenerator(g notification.IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

func WithHooks(h Hooks) Option {
	return func(s *Service) { s.hooks = h }
}

func New(cfg Config, plat platform.Platform, log logx.Logger, opts ...Option) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:  log.With(logx.String("comp", "notifier")),
		plat: plat,
	}
	for _, o := range opts {
		o(s)
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	s.customIDs = s.ids != nil
	s.applyLocked(cfg)
	if !s.customIDs {
		s.ids = notification.NewRandomIDs(s.cfg.MaxRandomID, 0)
	}
	return s
}

// Apply swaps the configuration at runtime.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prevMax := s.cfg.MaxRandomID
	s.applyLocked(cfg)
	if !s.customIDs && prevMax != s.cfg.MaxRandomID {
		s.ids = notification.NewRandomIDs(s.cfg.MaxRandomID, 0)
	}
}

func (s *Service) applyLocked(cfg Config) {
	switch cfg.IDPolicy {
	case IDPolicyRandom, IDPolicyChecked:
	default:
		cfg.IDPolicy = IDPolicyRandom
	}
	if cfg.MaxRandomID <= 0 {
		cfg.MaxRandomID = notification.DefaultMaxRandomID
	}
	if cfg.IDAttempts <= 0 {
		cfg.IDAttempts = 20
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if strings.TrimSpace(cfg.ActionTypeID) == "" {
		cfg.ActionTypeID = notification.DefaultActionTypeID
	}

	s.limiter = nil
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(math.Ceil(cfg.RatePerSec))
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}

	s.cfg = cfg
	loc := cfg.Location
	clock := s.clock
	s.builder = notification.NewBuilder(
		notification.WithClock(func() time.Time { return clock().In(loc) }),
		notification.WithDefaultActionType(cfg.ActionTypeID),
	)
}

func (s *Service) snapshot() (Config, *rate.Limiter, notification.IDGenerator, *notification.Builder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.limiter, s.ids, s.builder
}

// Now returns the current time in the configured location.
func (s *Service) Now() time.Time {
	_, _, _, b := s.snapshot()
	return b.Now()
}

func (s *Service) RequestPermissions(ctx context.Context) (notification.PermissionStatus, error) {
	st, err := s.plat.RequestPermissions(ctx)
	if err != nil {
		return st, fmt.Errorf("request permissions: %w", err)
	}
	return st, nil
}

func (s *Service) CheckPermissions(ctx context.Context) (notification.PermissionStatus, error) {
	st, err := s.plat.CheckPermissions(ctx)
	if err != nil {
		return st, fmt.Errorf("check permissions: %w", err)
	}
	return st, nil
}

// NextID allocates an id under the configured policy.
func (s *Service) NextID(ctx context.Context) (int, error) {
	cfg, _, gen, _ := s.snapshot()
	if cfg.IDPolicy != IDPolicyChecked {
		return gen.NextID(), nil
	}
	pending, err := s.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	used := make(map[int]struct{}, len(pending))
	for _, r := range pending {
		used[r.ID] = struct{}{}
	}
	for range cfg.IDAttempts {
		id := gen.NextID()
		if _, taken := used[id]; !taken {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w after %d attempts (%d pending)", ErrIDExhausted, cfg.IDAttempts, len(pending))
}

// Build turns opts into a submission, allocating an id when opts has none.
func (s *Service) Build(ctx context.Context, opts notification.Options) (notification.Submission, error) {
	if opts.ID == nil {
		// Validate before touching the platform for an id.
		if err := notification.ValidateStruct(opts); err != nil {
			return notification.Submission{}, err
		}
		id, err := s.NextID(ctx)
		if err != nil {
			return notification.Submission{}, err
		}
		opts.ID = notification.Int(id)
	}
	_, _, _, b := s.snapshot()
	return b.Build(opts)
}

// Send builds and submits in one call and returns the submitted request.
func (s *Service) Send(ctx context.Context, opts notification.Options) (notification.Request, error) {
	sub, err := s.Build(ctx, opts)
	if err != nil {
		return notification.Request{}, err
	}
	if err := s.Submit(ctx, sub); err != nil {
		return sub.Request, err
	}
	return sub.Request, nil
}

// SubmitRequest schedules a prebuilt request with no bundled action types.
func (s *Service) SubmitRequest(ctx context.Context, req notification.Request) error {
	return s.Submit(ctx, notification.Submission{Request: req})
}

// Submit registers the bundled action types, then schedules the request.
func (s *Service) Submit(ctx context.Context, sub notification.Submission) error {
	req := sub.Request
	if err := req.Validate(); err != nil {
		return err
	}
	_, limiter, _, _ := s.snapshot()
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("submit notification %d: %w", req.ID, err)
		}
	}

	var registered []string
	if len(sub.ActionTypes) > 0 {
		if err := s.plat.RegisterActionTypes(ctx, sub.ActionTypes); err != nil {
			s.record(req, err)
			return fmt.Errorf("register action types for notification %d: %w", req.ID, err)
		}
		for _, t := range sub.ActionTypes {
			registered = append(registered, t.ID)
		}
	}

	if err := s.plat.Schedule(ctx, []notification.Request{req}); err != nil {
		s.record(req, err)
		if len(registered) > 0 {
			s.log.Warn("action types registered but schedule failed",
				logx.Int("id", req.ID), logx.Strings("action_types", registered), logx.Err(err))
			return &notification.PartialRegistrationError{RequestID: req.ID, ActionTypeIDs: registered, Err: err}
		}
		return fmt.Errorf("schedule notification %d: %w", req.ID, err)
	}

	s.record(req, nil)
	s.log.Debug("notification scheduled",
		logx.Int("id", req.ID),
		logx.String("title", req.Title),
		logx.Time("at", req.Schedule.At),
		logx.Bool("repeats", req.Schedule.Repeats),
	)
	return nil
}

// ListPending asks the platform for its pending set, in platform order.
func (s *Service) ListPending(ctx context.Context) ([]notification.Request, error) {
	res, err := s.plat.GetPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return res.Notifications, nil
}

// Cancel removes one pending notification. An unknown id is not an error.
func (s *Service) Cancel(ctx context.Context, id int) error {
	if err := s.plat.Cancel(ctx, []platform.Target{{ID: id}}); err != nil {
		return fmt.Errorf("cancel notification %d: %w", id, err)
	}
	s.log.Debug("notification cancelled", logx.Int("id", id))
	return nil
}

// CancelAll sends an empty target list, which the platform treats as "all".
func (s *Service) CancelAll(ctx context.Context) error {
	if err := s.plat.Cancel(ctx, []platform.Target{}); err != nil {
		return fmt.Errorf("cancel all: %w", err)
	}
	s.log.Debug("all notifications cancelled")
	return nil
}

// AddListener subscribes h directly on the platform.
func (s *Service) AddListener(ctx context.Context, name platform.EventName, h platform.Handler) (platform.Subscription, error) {
	sub, err := s.plat.AddListener(ctx, name, h)
	if err != nil {
		return nil, fmt.Errorf("add %s listener: %w", name, err)
	}
	return sub, nil
}

// Snapshot returns recently submitted requests, oldest first.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) record(req notification.Request, err error) {
	item := HistoryItem{At: s.clock(), ID: req.ID, Title: req.Title}
	if err != nil {
		item.Error = err.Error()
	}
	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > 300 {
		s.history = s.history[len(s.history)-300:]
	}
	s.hmu.Unlock()
}
