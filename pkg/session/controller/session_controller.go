package controller

import "github.com/labstack/echo/v4"

type SessionController interface {
	Create(c echo.Context) error
	Get(c echo.Context) error
	Patch(c echo.Context) error
	Delete(c echo.Context) error

	TogglePest(c echo.Context) error
	NoPests(c echo.Context) error
	SetSoilHealth(c echo.Context) error
	AddFertilizer(c echo.Context) error
	UpdateFertilizer(c echo.Context) error
	RemoveFertilizer(c echo.Context) error
	DetectLocation(c echo.Context) error

	Next(c echo.Context) error
	Previous(c echo.Context) error
	Reset(c echo.Context) error
	Issues(c echo.Context) error
	Notices(c echo.Context) error
}
