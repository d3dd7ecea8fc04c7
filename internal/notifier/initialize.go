package notifier

import (
	"context"
	"fmt"
	"sync"

	"localnotify/internal/notification"
	"localnotify/internal/platform"
	logx "localnotify/pkg/logx"
)

// Subscriptions owns the listeners installed by Initialize. Close is idempotent.
type Subscriptions struct {
	// Permission is the status reported when Initialize requested permission.
	Permission notification.PermissionStatus

	delivered platform.Subscription
	action    platform.Subscription
	once      sync.Once
	release   func(*Subscriptions)
}

func (s *Subscriptions) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.delivered.Remove()
		s.action.Remove()
		if s.release != nil {
			s.release(s)
		}
	})
}

// Initialize requests permission and subscribes the delivered and
// actionPerformed listeners. A denied permission returns
// notification.ErrPermissionDenied and installs nothing.
func (s *Service) Initialize(ctx context.Context) (*Subscriptions, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.subs != nil {
		return nil, ErrAlreadyInitialized
	}

	st, err := s.RequestPermissions(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("notification permission", logx.String("display", string(st.Display)))
	if st.Display == notification.PermissionDenied {
		return nil, fmt.Errorf("initialize: %w (display=%s)", notification.ErrPermissionDenied, st.Display)
	}

	delivered, err := s.AddListener(ctx, platform.EventDelivered, s.onDelivered)
	if err != nil {
		return nil, err
	}
	action, err := s.AddListener(ctx, platform.EventActionPerformed, s.onAction)
	if err != nil {
		delivered.Remove()
		return nil, err
	}

	subs := &Subscriptions{
		Permission: st,
		delivered:  delivered,
		action:     action,
		release: func(sub *Subscriptions) {
			s.initMu.Lock()
			if s.subs == sub {
				s.subs = nil
			}
			s.initMu.Unlock()
		},
	}
	s.subs = subs
	return subs, nil
}

func (s *Service) onDelivered(ctx context.Context, ev platform.Event) {
	if ev.Delivered == nil {
		return
	}
	s.log.Info("notification received", logx.Int("id", ev.Delivered.ID), logx.String("title", ev.Delivered.Title))
	if s.hooks.OnDelivered != nil {
		s.hooks.OnDelivered(ctx, *ev.Delivered)
	}
}

func (s *Service) onAction(ctx context.Context, ev platform.Event) {
	if ev.Action == nil {
		return
	}
	s.log.Info("notification action performed",
		logx.Int("id", ev.Action.Notification.ID),
		logx.String("action", ev.Action.ActionID),
	)
	if s.hooks.OnAction != nil {
		s.hooks.OnAction(ctx, *ev.Action)
	}
}
