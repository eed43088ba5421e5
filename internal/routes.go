package internal

import (
	"net/http"

	"visitd/internal/controllers"
	"visitd/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController, syncController *controllers.SyncController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/samples", http.HandlerFunc(apiController.ReceiveSamples))
	routers.Get("/regions", http.HandlerFunc(apiController.GetRegions))
	routers.Post("/regions/edit", http.HandlerFunc(apiController.EditRegion))
	routers.Get("/regions/locate", http.HandlerFunc(apiController.Locate))
	routers.Get("/events", http.HandlerFunc(apiController.GetEvents))
	routers.Get("/events/archive", http.HandlerFunc(apiController.GetArchivedEvents))
	routers.Get("/badges", http.HandlerFunc(apiController.GetBadges))
	routers.Post("/badges/viewed", http.HandlerFunc(apiController.MarkBadgesViewed))
	routers.Get("/settings", http.HandlerFunc(apiController.GetSettings))
	routers.Post("/settings", http.HandlerFunc(apiController.UpdateSettings))
	routers.Post("/sync", http.HandlerFunc(syncController.Sync))
	routers.Get("/sync/status", http.HandlerFunc(syncController.Status))
	return routers
}
