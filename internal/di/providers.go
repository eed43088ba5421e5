package di

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"visitd/internal/badges"
	"visitd/internal/boundary"
	"visitd/internal/controllers"
	"visitd/internal/detection"
	"visitd/internal/notify"
	"visitd/internal/persistence"
	"visitd/internal/persistence/interfaces"
	"visitd/internal/providers"
	"visitd/internal/remote"
	"visitd/internal/services"
	"visitd/internal/structures"
	"visitd/internal/tracker"
)

func provideLocator(conf *structures.Config, logger providers.Logger, cache providers.CacheProviderInterface) (boundary.Locator, error) {
	entries, skipped, err := boundary.LoadFile(conf.Boundary.Path, conf.Boundary.Format, conf.Boundary.NameField)
	if err != nil {
		return nil, eris.Wrap(err, "load boundaries")
	}
	if len(skipped) > 0 {
		logger.Warnf(providers.TypeApp, "Skipped %d boundary features: %v", len(skipped), skipped)
	}
	logger.Infof(providers.TypeApp, "Loaded %d region boundaries from %s", len(entries), conf.Boundary.Path)

	index := boundary.NewIndex(entries)
	if !conf.Cache.Enabled {
		return index, nil
	}
	return boundary.NewCachedLocator(index, cache), nil
}

func provideDetector(locator boundary.Locator, conf *structures.Config) detection.StateDetectorInterface {
	dc := detection.DefaultConfig()
	if len(conf.Detector.SearchRadiiKm) > 0 {
		dc.SearchRadiiKm = conf.Detector.SearchRadiiKm
	}
	if conf.Detector.RecentDistanceKm > 0 {
		dc.RecentDistanceKm = conf.Detector.RecentDistanceKm
	}
	if conf.Detector.RecentWindow > 0 {
		dc.RecentWindow = conf.Detector.RecentWindow
	}
	if conf.Detector.RelocationKm > 0 {
		dc.RelocationKm = conf.Detector.RelocationKm
	}
	return detection.NewStateDetector(locator, dc)
}

// provideArchive returns nil when persistence.archiveDir is unset.
func provideArchive(conf *structures.Config, logger providers.Logger) (*persistence.EventArchive, error) {
	if conf.Persistence.ArchiveDir == "" {
		return nil, nil
	}
	compressor, err := persistence.NewZstdCompressor()
	if err != nil {
		return nil, err
	}
	return persistence.NewEventArchive(conf.Persistence.ArchiveDir, conf.Persistence.ArchiveTTL, compressor, logger), nil
}

// The three views below keep a disabled archive a nil interface rather than
// an interface holding a nil pointer.

func provideTrackerArchiver(a *persistence.EventArchive) tracker.Archiver {
	if a == nil {
		return nil
	}
	return a
}

func provideSchedulerArchive(a *persistence.EventArchive) interfaces.ArchiveInterface {
	if a == nil {
		return nil
	}
	return a
}

func provideArchiveReader(a *persistence.EventArchive) controllers.EventArchiveInterface {
	if a == nil {
		return nil
	}
	return a
}

func provideTracker(conf *structures.Config, archive tracker.Archiver) tracker.VisitTrackerInterface {
	return tracker.NewVisitTracker(tracker.Retention{
		MaxAge:     conf.EventLog.Retention,
		MaxEntries: conf.EventLog.MaxEntries,
		Archive:    archive,
	})
}

func provideEvaluator(conf *structures.Config) (badges.EvaluatorInterface, error) {
	var loc *time.Location
	if conf.Badges.TimeZone != "" {
		l, err := time.LoadLocation(conf.Badges.TimeZone)
		if err != nil {
			return nil, eris.Wrapf(err, "badges: time zone %q", conf.Badges.TimeZone)
		}
		loc = l
	}
	return badges.NewEvaluator(badges.DefaultCatalog(), loc), nil
}

func provideGate(conf *structures.Config) notify.GateInterface {
	return notify.NewGate(conf.Notification.Debounce)
}

func provideNotifier(conf *structures.Config, logger providers.Logger) notify.Notifier {
	sinks := notify.Multi{notify.NewLogNotifier(logger)}
	if conf.Notification.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(conf.Notification.WebhookURL, conf.Notification.WebhookTimeout))
	}
	return sinks
}

func provideRemoteStore(conf *structures.Config, logger providers.Logger) (remote.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Sync.Timeout+time.Second)
	defer cancel()
	store, err := remote.NewStore(ctx, conf.Sync)
	if err != nil {
		return nil, eris.Wrap(err, "open remote store")
	}
	if store == nil {
		logger.Infof(providers.TypeSync, "Sync disabled: no remote store configured")
	}
	return store, nil
}

func provideStateHolder(visits services.VisitServiceInterface) interfaces.StateHolderInterface {
	return visits
}
