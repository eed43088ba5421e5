package persistence

import (
	"context"
	"sync"

	"github.com/roylee0704/gron"

	"visitd/internal/persistence/interfaces"
	"visitd/internal/providers"
	"visitd/internal/services"
	"visitd/internal/structures"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	sync        services.SyncServiceInterface
	fileManager *FileManager
	archive     interfaces.ArchiveInterface
	cron        *gron.Cron
	opsMu       sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	interval := s.config.Persistence.SaveInterval

	s.cron.AddFunc(gron.Every(interval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
			return
		}
		s.logger.Debugf(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
		s.flushArchive()
	})

	if s.sync != nil && s.sync.Enabled() && s.config.Sync.Interval > 0 {
		s.cron.AddFunc(gron.Every(s.config.Sync.Interval), func() {
			s.logger.Debugf(providers.TypeSync, "Scheduled sync...")
			// Failures are logged and recorded in the sync status.
			_, _ = s.sync.Sync(s.ctx)
		})
	}

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	if s.archive != nil {
		if err := s.archive.RestoreIndex(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Archive index restore failed: %s", err)
		}
	}
	return s.fileManager.LoadFromFile(s.ctx, s.config.Persistence.FilePath)
}

func (s *Scheduler) flushArchive() {
	if s.archive == nil {
		return
	}
	if err := s.archive.Flush(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Archive flush failed: %s", err)
	}
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting state to file...")
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	s.flushArchive()
	return nil
}

// NewScheduler builds the save and sync jobs. archive may be nil.
func NewScheduler(config *structures.Config, logger providers.Logger, syncService services.SyncServiceInterface, fileManager *FileManager, archive interfaces.ArchiveInterface) interfaces.SchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:      config,
		logger:      logger,
		sync:        syncService,
		fileManager: fileManager,
		archive:     archive,
		ctx:         ctx,
		cancel:      cancel,
	}
}
