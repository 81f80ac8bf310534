package service

import (
	"errors"

	"krushi/pkg/notice"
	"krushi/pkg/wizard"
)

var ErrNotFound = errors.New("session not found")

// SessionService keeps live survey wizards in memory, one per session id.
// A session is visible only to the uid that created it.
type SessionService interface {
	Create(uid string) (*wizard.Controller, error)
	Get(id, uid string) (*wizard.Controller, error)
	Delete(id, uid string) error
	// Notices drains the transient messages queued for the session.
	Notices(id, uid string) ([]notice.Notice, error)
	Count() int
}
