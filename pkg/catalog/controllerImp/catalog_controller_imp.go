package controllerImp

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"krushi/pkg/catalog"
	"krushi/pkg/catalog/controller"
	"krushi/pkg/catalog/service"
)

type catalogCtrl struct{ s service.CatalogService }

func NewCatalogController(s service.CatalogService) controller.CatalogController {
	return &catalogCtrl{s: s}
}

func (h *catalogCtrl) Districts(c echo.Context) error {
	out, err := h.s.Districts()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *catalogCtrl) Blocks(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid district"})
	}
	out, err := h.s.BlocksOf(name)
	if errors.Is(err, catalog.ErrUnknownDistrict) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *catalogCtrl) Items(c echo.Context) error {
	out, err := h.s.Items(c.Param("kind"))
	if errors.Is(err, catalog.ErrUnknownKind) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}
