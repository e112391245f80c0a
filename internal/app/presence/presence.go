// Package presence reports region changes to the server: the current
// location when sharing is on, and a check-in on entering a check-in event.
package presence

import (
	"context"
	"sync"

	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/domain/region"
	"github.com/okian/labsync/internal/session"
	"github.com/okian/labsync/pkg/logger"
)

const defaultBuffer = 32

// Reporter is the server side of presence.
type Reporter interface {
	ShareLocation(ctx context.Context, location string) error
	CheckIn(ctx context.Context) error
}

// Settings supplies the sharing preference.
type Settings interface {
	Settings(ctx context.Context) (session.Settings, error)
}

// Tracker is the part of the region tracker presence listens to.
type Tracker interface {
	ListenAll(fn region.Listener) func()
	CurrentLocation() (region.Region, bool)
}

type update struct {
	transition region.Transition
	location   string
}

// Publisher forwards tracker transitions to the server on its own goroutine
// so the region worker never waits on the network.
type Publisher struct {
	tracker     Tracker
	reporter    Reporter
	settings    Settings
	autoCheckin bool
	buffer      int
	logger      logger.Logger

	updates chan update
	cancel  func()
	done    chan struct{}
	once    sync.Once

	// last shared location; only touched by the run goroutine
	shared    string
	hasShared bool
}

// New builds a Publisher. Nothing is reported until Start.
func New(tracker Tracker, reporter Reporter, settings Settings, opts ...Option) *Publisher {
	p := &Publisher{
		tracker:  tracker,
		reporter: reporter,
		settings: settings,
		buffer:   defaultBuffer,
		logger:   logger.Get().Named("presence"),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.updates = make(chan update, p.buffer)
	return p
}

// Start subscribes to the tracker and runs until ctx is done or Stop.
func (p *Publisher) Start(ctx context.Context) {
	unlisten := p.tracker.ListenAll(p.observe)
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = func() {
		unlisten()
		cancel()
	}
	go p.run(ctx)
}

// Stop unsubscribes and waits for the pending report to finish.
func (p *Publisher) Stop() {
	p.once.Do(func() {
		if p.cancel == nil {
			close(p.done)
			return
		}
		p.cancel()
		<-p.done
	})
}

// observe runs inside the tracker's emission; it only snapshots and hands off.
func (p *Publisher) observe(t region.Transition) {
	u := update{transition: t}
	if r, ok := p.tracker.CurrentLocation(); ok {
		u.location = r.Name
	}
	select {
	case p.updates <- u:
	default:
		p.logger.Warn(context.Background(), "presence update dropped",
			logger.String("region", t.Region.Name),
			logger.String("change", t.Change.String()),
		)
	}
}

func (p *Publisher) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-p.updates:
			p.report(ctx, u)
		}
	}
}

func (p *Publisher) report(ctx context.Context, u update) {
	t := u.transition
	if p.autoCheckin && t.Region == region.CheckInEvent && t.Change == region.ChangeEntering {
		if err := p.reporter.CheckIn(ctx); err != nil {
			p.logFailure(ctx, "auto check-in failed", err)
		} else {
			p.logger.Info(ctx, "checked in", logger.String("region", t.Region.Name))
		}
	}

	cfg, err := p.settings.Settings(ctx)
	if err != nil {
		p.logFailure(ctx, "read sharing preference", err)
		return
	}
	if !cfg.SharingDefault || (p.hasShared && p.shared == u.location) {
		return
	}
	if err := p.reporter.ShareLocation(ctx, u.location); err != nil {
		p.logFailure(ctx, "share location failed", err)
		return
	}
	p.shared, p.hasShared = u.location, true
	p.logger.Debug(ctx, "location shared", logger.String("location", u.location))
}

func (p *Publisher) logFailure(ctx context.Context, msg string, err error) {
	fields := []logger.Field{logger.Error(err), logger.String("kind", string(apierr.KindOf(err)))}
	if apierr.IsFatal(err) {
		p.logger.Error(ctx, msg, fields...)
		return
	}
	p.logger.Warn(ctx, msg, fields...)
}
