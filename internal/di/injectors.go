//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"visitd/internal"
	"visitd/internal/controllers"
	"visitd/internal/persistence"
	"visitd/internal/providers"
	"visitd/internal/services"
	"visitd/internal/structures"
)

var coreSet = wire.NewSet(
	providers.NewConfigProvider,
	providers.NewLogProvider,
	providers.NewMetricsProvider,
	providers.NewInstrumentedCacheProvider,

	provideLocator,
	provideDetector,
	provideArchive,
	provideTrackerArchiver,
	provideSchedulerArchive,
	provideTracker,
	provideEvaluator,
	provideGate,
	provideNotifier,
	provideRemoteStore,
	services.NewVisitService,
	services.NewSyncService,

	provideStateHolder,
	persistence.NewZstdCompressor,
	persistence.NewFileManager,
	persistence.NewScheduler,
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		coreSet,
		provideArchiveReader,
		controllers.NewApiController,
		controllers.NewSyncController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}

func InitReplayer(cfg *structures.CliFlags) (*internal.Replayer, error) {

	wire.Build(
		coreSet,
		internal.NewReplayer,
	)

	return nil, nil
}
