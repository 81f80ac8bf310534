package controllerImp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"krushi/entities"
	"krushi/pkg/catalog"
	"krushi/pkg/derive"
	"krushi/pkg/fertilizer"
	"krushi/pkg/geo"
	"krushi/pkg/notice"
	"krushi/pkg/session/controller"
	"krushi/pkg/session/service"
	"krushi/pkg/wizard"
)

type sessionCtrl struct{ s service.SessionService }

func NewSessionController(s service.SessionService) controller.SessionController {
	return &sessionCtrl{s: s}
}

func uidOf(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}

func (h *sessionCtrl) lookup(c echo.Context) (*wizard.Controller, error) {
	return h.s.Get(c.Param("id"), uidOf(c))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrSubmitted):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrStepIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrUnknownStep),
		errors.Is(err, wizard.ErrBlockNotInDistrict),
		errors.Is(err, wizard.ErrInvalidSeason),
		errors.Is(err, wizard.ErrNoSoilHealthCard),
		errors.Is(err, fertilizer.ErrUnknownField),
		errors.Is(err, fertilizer.ErrInvalidDate),
		errors.Is(err, derive.ErrUnknownSoilField),
		errors.Is(err, catalog.ErrUnknownDistrict):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(c echo.Context, err error) error {
	return c.JSON(statusOf(err), echo.Map{"error": err.Error()})
}

func (h *sessionCtrl) Create(c echo.Context) error {
	w, err := h.s.Create(uidOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, w.Snapshot())
}

func (h *sessionCtrl) Get(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, w.Snapshot())
}

func (h *sessionCtrl) Delete(c echo.Context) error {
	if err := h.s.Delete(c.Param("id"), uidOf(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *sessionCtrl) Patch(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	p, err := wizard.DecodePatch(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := w.Apply(p); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, w.Snapshot())
}

func (h *sessionCtrl) TogglePest(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	var in struct {
		Pest string `json:"pest"`
	}
	if err := c.Bind(&in); err != nil || in.Pest == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pest is required"})
	}
	pests, err := w.TogglePest(in.Pest)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pests": pests})
}

func (h *sessionCtrl) NoPests(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	var in struct {
		Checked bool `json:"checked"`
	}
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	pests, err := w.SetNoPests(in.Checked)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pests": pests})
}

func (h *sessionCtrl) SetSoilHealth(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	var in struct {
		Value string `json:"value"`
	}
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if err := w.SetSoilHealthValue(c.Param("field"), in.Value); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, w.Record().SoilHealthData)
}

func (h *sessionCtrl) AddFertilizer(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := w.AddFertilizer()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "fertilizers": w.Record().Fertilizers})
}

func fertilizerID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("fid"), 10, 64)
}

// UpdateFertilizer takes {"type": .., "quantity": .., "date": ..}; every
// column is checked before any is applied.
func (h *sessionCtrl) UpdateFertilizer(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := fertilizerID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fertilizer id"})
	}
	var in map[string]string
	if err := json.NewDecoder(c.Request().Body).Decode(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	fields := make([]string, 0, len(in))
	for f := range in {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	changes := make([]fertilizer.Change, 0, len(fields))
	for _, f := range fields {
		ch, err := fertilizer.ParseChange(f, in[f])
		if err != nil {
			return fail(c, err)
		}
		changes = append(changes, ch)
	}
	if err := w.UpdateFertilizer(id, changes...); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"fertilizers": w.Record().Fertilizers})
}

func (h *sessionCtrl) RemoveFertilizer(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := fertilizerID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fertilizer id"})
	}
	if err := w.RemoveFertilizer(id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"fertilizers": w.Record().Fertilizers})
}

// detectReq carries a position the client device already resolved. An
// empty body asks the server-side locator instead.
type detectReq struct {
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	Error     geo.FailureKind `json:"error"`
}

type detectResp struct {
	OK          bool                  `json:"ok"`
	Coordinates *entities.Coordinates `json:"coordinates,omitempty"`
	Failure     geo.FailureKind       `json:"failure,omitempty"`
	Notice      notice.Notice         `json:"notice"`
	Session     wizard.View           `json:"session"`
}

func (h *sessionCtrl) DetectLocation(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	var in detectReq
	if err := json.NewDecoder(c.Request().Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}

	ctx := c.Request().Context()
	var ch <-chan geo.Outcome
	switch {
	case in.Latitude != nil && in.Longitude != nil:
		ch = w.DetectLocationWith(ctx, geo.Reported(&entities.Coordinates{Latitude: *in.Latitude, Longitude: *in.Longitude}, ""))
	case in.Error != "":
		ch = w.DetectLocationWith(ctx, geo.Reported(nil, in.Error))
	default:
		ch = w.DetectLocation(ctx)
	}

	select {
	case o := <-ch:
		return c.JSON(http.StatusOK, detectResp{
			OK:          o.OK(),
			Coordinates: o.Coordinates,
			Failure:     o.FailureKind(),
			Notice:      o.Notice(),
			Session:     w.Snapshot(),
		})
	case <-ctx.Done():
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "location lookup still pending"})
	}
}

func (h *sessionCtrl) Next(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	st, err := w.Next(c.Request().Context())
	if errors.Is(err, wizard.ErrStepIncomplete) {
		issues, _ := w.Inspect(st.CurrentStep)
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error(), "state": st, "issues": issues})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, w.Snapshot())
}

func (h *sessionCtrl) Previous(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	if _, err := w.Previous(); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, w.Snapshot())
}

func (h *sessionCtrl) Reset(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	w.Reset()
	return c.JSON(http.StatusOK, w.Snapshot())
}

// Issues reports inline field messages for ?step=, defaulting to the
// current step.
func (h *sessionCtrl) Issues(c echo.Context) error {
	w, err := h.lookup(c)
	if err != nil {
		return fail(c, err)
	}
	step := w.State().CurrentStep
	if v := c.QueryParam("step"); v != "" {
		if step, err = strconv.Atoi(v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid step"})
		}
	}
	issues, err := w.Inspect(step)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"step": step, "valid": w.IsStepValid(step), "issues": issues})
}

func (h *sessionCtrl) Notices(c echo.Context) error {
	out, err := h.s.Notices(c.Param("id"), uidOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
