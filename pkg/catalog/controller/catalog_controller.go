package controller

import "github.com/labstack/echo/v4"

type CatalogController interface {
	Districts(c echo.Context) error
	Blocks(c echo.Context) error
	Items(c echo.Context) error
}
