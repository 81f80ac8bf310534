package router

import (
	"github.com/labstack/echo/v4"

	authCtrl "krushi/pkg/auth/controller"
	catalogCtrl "krushi/pkg/catalog/controller"
	"krushi/pkg/middleware"
	sessionCtrl "krushi/pkg/session/controller"
)

func New(
	e *echo.Echo,
	auth authCtrl.AuthController,
	healthCtrl interface{ Health(echo.Context) error },
	catalog catalogCtrl.CatalogController,
	sessions sessionCtrl.SessionController,
	requireUID bool,
) *echo.Echo {
	e.GET("/health", healthCtrl.Health)

	api := e.Group("")
	if requireUID {
		api.Use(middleware.RequireUID(true))
	} else {
		api.Use(middleware.DevLogin())
		api.GET("/devlogin", auth.DevLogin)
	}
	api.GET("/whoami", auth.WhoAmI)

	api.GET("/catalog/districts", catalog.Districts)
	api.GET("/catalog/districts/:name/blocks", catalog.Blocks)
	api.GET("/catalog/items/:kind", catalog.Items)

	s := api.Group("/sessions")
	s.POST("", sessions.Create)
	s.GET("/:id", sessions.Get)
	s.PATCH("/:id", sessions.Patch)
	s.DELETE("/:id", sessions.Delete)

	s.POST("/:id/pests/toggle", sessions.TogglePest)
	s.POST("/:id/pests/none", sessions.NoPests)
	s.PUT("/:id/soil-health/:field", sessions.SetSoilHealth)
	s.POST("/:id/fertilizers", sessions.AddFertilizer)
	s.PATCH("/:id/fertilizers/:fid", sessions.UpdateFertilizer)
	s.DELETE("/:id/fertilizers/:fid", sessions.RemoveFertilizer)
	s.POST("/:id/location/detect", sessions.DetectLocation)

	s.POST("/:id/next", sessions.Next)
	s.POST("/:id/previous", sessions.Previous)
	s.POST("/:id/reset", sessions.Reset)
	s.GET("/:id/issues", sessions.Issues)
	s.GET("/:id/notices", sessions.Notices)
	return e
}
