package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var appStart = time.Now()

// Sessions reports how many survey sessions are live.
type Sessions interface {
	Count() int
}

type HealthCtrl struct {
	db       *gorm.DB
	sessions Sessions
}

func NewHealthCtrl(db *gorm.DB, s Sessions) *HealthCtrl { return &HealthCtrl{db: db, sessions: s} }

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	dbOK := true
	dbErr := ""
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil {
			dbOK = false
			dbErr = "db.DB(): " + err.Error()
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbOK = false
			dbErr = "ping: " + err.Error()
		}
	} else {
		dbOK = false
		dbErr = "gorm db is nil"
	}

	status := http.StatusOK
	if !dbOK {
		status = http.StatusServiceUnavailable
	}

	type sub struct {
		OK  bool   `json:"ok"`
		Err string `json:"err,omitempty"`
	}

	live := 0
	if h.sessions != nil {
		live = h.sessions.Count()
	}

	resp := map[string]any{
		"status":     map[string]any{"ok": dbOK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks": map[string]any{
			"catalog_db": sub{OK: dbOK, Err: dbErr},
		},
		"sessions": live,
		"time":     time.Now().Format(time.RFC3339),
	}
	return c.JSON(status, resp)
}
