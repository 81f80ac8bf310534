package serviceImp

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"krushi/pkg/fertilizer"
	"krushi/pkg/geo"
	"krushi/pkg/logger"
	"krushi/pkg/notice"
	"krushi/pkg/renderer"
	"krushi/pkg/session/service"
	"krushi/pkg/validation"
	"krushi/pkg/wizard"
)

// Deps are shared by every wizard the service creates.
type Deps struct {
	Renderer  renderer.Renderer
	Locator   geo.Locator
	Blocks    wizard.Blocks
	Rules     validation.FieldRules
	Validator validation.Validator
	Log       *logger.Logger
	// TTL evicts sessions idle for longer; zero keeps them until deleted.
	TTL time.Duration
	Now func() time.Time
}

type entry struct {
	w       *wizard.Controller
	notices *notice.Queue
	owner   string
	touched time.Time
}

type sessionSvc struct {
	mu    sync.Mutex
	items map[string]*entry
	deps  Deps
	ids   *fertilizer.IDSource
}

func NewSessionService(d Deps) service.SessionService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &sessionSvc{items: map[string]*entry{}, deps: d, ids: fertilizer.NewIDSource(d.Now)}
}

func (s *sessionSvc) Create(uid string) (*wizard.Controller, error) {
	id := uuid.NewString()
	q := notice.NewQueue(20)
	w := wizard.New(wizard.Options{
		ID:        id,
		Renderer:  s.deps.Renderer,
		Notices:   q,
		Locator:   s.deps.Locator,
		Blocks:    s.deps.Blocks,
		Rules:     s.deps.Rules,
		Validator: s.deps.Validator,
		IDs:       s.ids,
		Log:       s.deps.Log,
	})

	s.mu.Lock()
	s.evictLocked()
	s.items[id] = &entry{w: w, notices: q, owner: uid, touched: s.deps.Now()}
	n := len(s.items)
	s.mu.Unlock()

	s.deps.Log.Info("session created", "session", id, "uid", uid, "live", n)
	return w, nil
}

func (s *sessionSvc) lookup(id, uid string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	e, ok := s.items[id]
	if !ok || e.owner != uid {
		return nil, service.ErrNotFound
	}
	e.touched = s.deps.Now()
	return e, nil
}

func (s *sessionSvc) Get(id, uid string) (*wizard.Controller, error) {
	e, err := s.lookup(id, uid)
	if err != nil {
		return nil, err
	}
	return e.w, nil
}

func (s *sessionSvc) Delete(id, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok || e.owner != uid {
		return service.ErrNotFound
	}
	delete(s.items, id)
	s.deps.Log.Debug("session deleted", "session", id)
	return nil
}

func (s *sessionSvc) Notices(id, uid string) ([]notice.Notice, error) {
	e, err := s.lookup(id, uid)
	if err != nil {
		return nil, err
	}
	return e.notices.Drain(), nil
}

func (s *sessionSvc) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	return len(s.items)
}

func (s *sessionSvc) evictLocked() {
	if s.deps.TTL <= 0 {
		return
	}
	cutoff := s.deps.Now().Add(-s.deps.TTL)
	for id, e := range s.items {
		if e.touched.Before(cutoff) {
			delete(s.items, id)
			s.deps.Log.Debug("session expired", "session", id)
		}
	}
}
