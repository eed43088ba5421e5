package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"visitd/internal/badges"
	"visitd/internal/detection"
	"visitd/internal/merge"
	"visitd/internal/models"
	"visitd/internal/notify"
	"visitd/internal/providers"
	"visitd/internal/tracker"
)

type VisitServiceInterface interface {
	SubmitSample(ctx context.Context, sample models.Sample) (SampleResult, error)
	ApplyManualEdit(ctx context.Context, region string, visited bool) (models.RegionVisit, error)
	MarkBadgesViewed(ctx context.Context, ids []string) ([]string, error)
	UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error)
	Reconcile(ctx context.Context, remote models.RemoteState) (models.State, error)
	Restore(ctx context.Context, st models.State) error
	Records() models.RecordSet
	Events() models.EventLog
	Badges() models.BadgeSet
	Settings() models.Settings
	LocalState() models.State
	Stop()
}

// SampleResult describes what one location sample did.
type SampleResult struct {
	Accepted   bool                `json:"accepted"`
	Reason     string              `json:"reason,omitempty"`
	Detection  detection.Detection `json:"detection"`
	Visit      *models.RegionVisit `json:"visit,omitempty"`
	FirstVisit bool                `json:"firstVisit"`
	Notified   bool                `json:"notified"`
	NewBadges  []string            `json:"newBadges,omitempty"`
}

type job struct {
	fn   func()
	done chan struct{}
}

// VisitService sequences every mutation of the visit history on one worker
// goroutine. Filtering and detection run on the caller's goroutine; the
// notification sink is called after the job finishes.
type VisitService struct {
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	detector  detection.StateDetectorInterface
	tracker   tracker.VisitTrackerInterface
	evaluator badges.EvaluatorInterface
	gate      notify.GateInterface
	notifier  notify.Notifier
	now       func() time.Time

	// mu is held for writing for the in-memory part of every job, so
	// readers see the tracker, badges and settings from the same point.
	mu       sync.RWMutex
	badges   models.BadgeSet
	settings models.Settings

	jobs     chan job
	quit     chan struct{}
	finished chan struct{}
	stopped  atomic.Bool
	stopOnce sync.Once
}

func NewVisitService(
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
	detector detection.StateDetectorInterface,
	visits tracker.VisitTrackerInterface,
	evaluator badges.EvaluatorInterface,
	gate notify.GateInterface,
	notifier notify.Notifier,
) VisitServiceInterface {
	s := &VisitService{
		logger:    logger,
		metrics:   metrics,
		detector:  detector,
		tracker:   visits,
		evaluator: evaluator,
		gate:      gate,
		notifier:  notifier,
		now:       time.Now,
		badges:    models.BadgeSet{},
		settings:  models.DefaultSettings(),
		jobs:      make(chan job),
		quit:      make(chan struct{}),
		finished:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *VisitService) run() {
	defer close(s.finished)
	for {
		select {
		case j := <-s.jobs:
			j.fn()
			close(j.done)
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the worker and waits for it. If ctx ends after the job was
// accepted, the job still completes; only the wait is abandoned.
func (s *VisitService) do(ctx context.Context, fn func()) error {
	if s.stopped.Load() {
		return ErrServiceStopped
	}
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.quit:
		return ErrServiceStopped
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *VisitService) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.quit)
		<-s.finished
	})
}

func (s *VisitService) SubmitSample(ctx context.Context, sample models.Sample) (SampleResult, error) {
	settings := s.Settings()
	filter := detection.NewLocationFilter(settings)
	if reason := filter.Reason(sample); reason != detection.ReasonNone {
		s.metrics.IncSamples(string(reason))
		s.logger.Debugf(providers.TypeDetect, "Sample at %.5f,%.5f dropped: %s", sample.Latitude, sample.Longitude, reason)
		return SampleResult{Reason: string(reason)}, nil
	}
	s.metrics.IncSamples("accepted")

	det := s.detector.Detect(sample)
	s.metrics.IncDetections(string(det.Method))
	res := SampleResult{Accepted: true, Detection: det}
	if det.Relocated {
		s.logger.Infof(providers.TypeDetect, "Relocation detected at %.5f,%.5f", sample.Latitude, sample.Longitude)
	}
	if !det.Known() {
		return res, nil
	}

	var (
		applyErr error
		ec       notify.EventContext
	)
	err := s.do(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		rv, first, err := s.tracker.ApplyDetectedVisit(det.Region, sample.Timestamp)
		if err != nil {
			applyErr = err
			return
		}
		res.Visit = &rv
		res.FirstVisit = first
		res.NewBadges = s.reevaluate(sample.Timestamp)

		if s.settings.NotifyOnNewRegion && (!s.settings.NotifyOnlyFirstVisit || first) &&
			s.gate.ShouldNotify(det.Region, sample.Timestamp) {
			res.Notified = true
			ec = notify.NewEventContext(det.Region, sample.Timestamp)
			ec.FirstVisit = first
			ec.Method = string(det.Method)
			ec.NewBadges = res.NewBadges
			ec.RegionCount = len(s.tracker.Snapshot().EverVisited())
		}
	})
	if err != nil {
		return res, err
	}
	if applyErr != nil {
		s.logger.Errorf(providers.TypeDetect, "Detected visit rejected: %s", applyErr)
		return res, applyErr
	}

	s.logger.Debugf(providers.TypeDetect, "Sample resolved to %s via %s", det.Region, det.Method)
	if res.Notified {
		s.metrics.IncNotifications()
		if err := s.notifier.Notify(ctx, det.Region, ec); err != nil {
			s.logger.Warnf(providers.TypeApp, "Notification for %s failed: %s", det.Region, err)
		}
	}
	return res, nil
}

// reevaluate must be called with mu held.
func (s *VisitService) reevaluate(at time.Time) []string {
	next, newly := s.evaluator.Evaluate(s.tracker.Snapshot(), s.tracker.Events(), s.badges, at)
	s.badges = next
	for _, id := range newly {
		s.logger.Infof(providers.TypeApp, "Badge earned: %s", id)
	}
	s.metrics.SetBadgesEarned(next.EarnedCount())
	s.metrics.SetRegionsVisited(len(s.tracker.Snapshot().EverVisited()))
	return newly
}

func (s *VisitService) ApplyManualEdit(ctx context.Context, region string, visited bool) (models.RegionVisit, error) {
	var (
		rv       models.RegionVisit
		applyErr error
	)
	err := s.do(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		now := s.now()
		rv, applyErr = s.tracker.ApplyManualEdit(region, visited, now)
		if applyErr != nil {
			return
		}
		s.reevaluate(now)
	})
	if err != nil {
		return models.RegionVisit{}, err
	}
	if applyErr != nil {
		s.logger.Warnf(providers.TypeApp, "Manual edit rejected: %s", applyErr)
		return models.RegionVisit{}, applyErr
	}
	return rv, nil
}

// MarkBadgesViewed flags the given badges as seen on this device and returns
// the ids that exist.
func (s *VisitService) MarkBadgesViewed(ctx context.Context, ids []string) ([]string, error) {
	var marked []string
	err := s.do(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, id := range ids {
			b, ok := s.badges[id]
			if !ok {
				continue
			}
			b.Viewed = true
			s.badges[id] = b
			marked = append(marked, id)
		}
	})
	return marked, err
}

// UpdateSettings replaces the local settings. LastUpdated is stamped here so
// a local change always wins over the settings it replaces.
func (s *VisitService) UpdateSettings(ctx context.Context, in models.Settings) (models.Settings, error) {
	var out models.Settings
	err := s.do(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		now := models.NormalizeTime(s.now())
		if !now.After(s.settings.LastUpdated) {
			now = s.settings.LastUpdated.Add(time.Millisecond)
		}
		in.LastUpdated = now
		s.settings = merge.Settings(s.settings, in)
		out = s.settings
	})
	return out, err
}

// Reconcile merges fetched remote documents into the local state and returns
// the merged state to push back. Absent remote documents leave the local
// ones as they are.
func (s *VisitService) Reconcile(ctx context.Context, remote models.RemoteState) (models.State, error) {
	var out models.State
	err := s.do(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if remote.Records != nil {
			s.tracker.Replace(merge.Records(s.tracker.Snapshot(), *remote.Records))
		}
		if remote.Events != nil {
			s.tracker.ReplaceEvents(merge.Events(s.tracker.Events(), remote.Events))
		}
		if remote.Badges != nil {
			s.badges = merge.Badges(s.badges, remote.Badges, false)
		}
		if remote.Settings != nil {
			s.settings = merge.Settings(s.settings, *remote.Settings)
		}
		s.reevaluate(s.now())
		out = s.stateLocked()
	})
	return out, err
}

// Restore loads a persisted snapshot, replacing everything in memory.
func (s *VisitService) Restore(ctx context.Context, st models.State) error {
	return s.do(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.tracker.Replace(st.Records)
		s.tracker.ReplaceEvents(st.Events)
		s.badges = st.Badges.Clone()
		s.settings = merge.Settings(st.Settings, st.Settings)
		s.reevaluate(s.now())
	})
}

func (s *VisitService) Records() models.RecordSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Snapshot()
}

func (s *VisitService) Events() models.EventLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Events()
}

func (s *VisitService) Badges() models.BadgeSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.badges.Clone()
}

func (s *VisitService) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *VisitService) LocalState() models.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *VisitService) stateLocked() models.State {
	return models.State{
		Records:  s.tracker.Snapshot(),
		Events:   s.tracker.Events(),
		Badges:   s.badges.Clone(),
		Settings: s.settings,
	}
}
