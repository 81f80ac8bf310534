// Package wizard drives the four-step farm survey: it owns the FarmRecord
// and the step state, applies edits through the derivation rules, gates
// navigation on step validity and hands the finished record to a renderer.
package wizard

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"krushi/entities"
	"krushi/pkg/fertilizer"
	"krushi/pkg/geo"
	"krushi/pkg/logger"
	"krushi/pkg/notice"
	"krushi/pkg/renderer"
	"krushi/pkg/validation"
)

var (
	ErrStepIncomplete     = errors.New("please complete required fields")
	ErrSubmitted          = errors.New("survey already submitted")
	ErrUnknownStep        = errors.New("unknown step")
	ErrBlockNotInDistrict = errors.New("block does not belong to the selected district")
	ErrInvalidSeason      = errors.New("season must be kharif, rabi or zaid")
	ErrNoSoilHealthCard   = errors.New("soil health card is not enabled")
)

// Blocks resolves the block list of a district.
type Blocks interface {
	BlocksOf(district string) ([]string, error)
}

type Options struct {
	ID        string
	Renderer  renderer.Renderer
	Notices   notice.Sink
	Locator   geo.Locator
	Blocks    Blocks // nil skips block membership checks
	Rules     validation.FieldRules
	Validator validation.Validator
	IDs       *fertilizer.IDSource
	Log       *logger.Logger
}

type State struct {
	CurrentStep    int   `json:"currentStep"`
	CompletedSteps []int `json:"completedSteps"`
	Submitted      bool  `json:"submitted"`
}

type Controller struct {
	mu        sync.Mutex
	rec       entities.FarmRecord
	step      int
	completed map[int]bool
	submitted bool
	gen       uint64 // bumped by Reset; stale probe results are dropped
	locating  int

	id       string
	render   renderer.Renderer
	notices  notice.Sink
	locator  geo.Locator
	blocks   Blocks
	rules    validation.FieldRules
	validate validation.Validator
	fert     *fertilizer.Editor
	probes   singleflight.Group
	log      *logger.Logger
}

func New(o Options) *Controller {
	c := &Controller{
		id:       o.ID,
		render:   o.Renderer,
		notices:  o.Notices,
		locator:  o.Locator,
		blocks:   o.Blocks,
		rules:    o.Rules,
		validate: o.Validator,
		fert:     fertilizer.NewEditor(o.IDs),
		log:      o.Log,
	}
	if c.notices == nil {
		c.notices = notice.Discard
	}
	if c.rules == nil {
		c.rules = validation.DefaultFieldRules()
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	c.log = c.log.With("session", o.ID)
	if c.render == nil {
		c.render = renderer.NewLog(c.log)
	}
	c.resetLocked()
	return c
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) resetLocked() {
	c.rec = entities.FarmRecord{Fertilizers: []entities.FertilizerRecord{}, Pests: []string{}}
	c.step = StepLocation
	c.completed = map[int]bool{}
	c.submitted = false
	c.gen++
}

func (c *Controller) stateLocked() State {
	done := make([]int, 0, len(c.completed))
	for s := range c.completed {
		done = append(done, s)
	}
	sort.Ints(done)
	return State{CurrentStep: c.step, CompletedSteps: done, Submitted: c.submitted}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Record returns a copy of the current record.
func (c *Controller) Record() entities.FarmRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec.Clone()
}

type View struct {
	ID       string              `json:"id"`
	Record   entities.FarmRecord `json:"record"`
	State    State               `json:"state"`
	Progress []StepProgress      `json:"progress"`
	Locating bool                `json:"locating"`
	CanNext  bool                `json:"canNext"`
}

// Snapshot returns a consistent copy of record, state and progress.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		ID:       c.id,
		Record:   c.rec.Clone(),
		State:    c.stateLocked(),
		Progress: c.progressLocked(),
		Locating: c.locating > 0,
		CanNext:  !c.submitted && stepValid(c.rec, c.step),
	}
}

// IsStepValid evaluates the gate for step against the current record.
func (c *Controller) IsStepValid(step int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return stepValid(c.rec, step)
}

// Next advances past the current step when it is valid. From the last step
// it submits: the wizard becomes read-only and a frozen copy of the record
// goes to the renderer. An invalid step changes nothing and returns
// ErrStepIncomplete.
func (c *Controller) Next(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.submitted {
		st := c.stateLocked()
		c.mu.Unlock()
		return st, ErrSubmitted
	}
	if !stepValid(c.rec, c.step) {
		st := c.stateLocked()
		c.mu.Unlock()
		c.log.Info("navigation refused", "step", st.CurrentStep)
		c.notices.Notify(notice.Notice{
			Level:   notice.Warning,
			Title:   "Please complete required fields",
			Message: "Fill in all required information before proceeding.",
		})
		return st, ErrStepIncomplete
	}
	c.completed[c.step] = true
	if c.step < TotalSteps {
		c.step++
		st := c.stateLocked()
		c.mu.Unlock()
		c.log.Debug("step advanced", "step", st.CurrentStep)
		return st, nil
	}
	c.submitted = true
	frozen := c.rec.Clone()
	st := c.stateLocked()
	c.mu.Unlock()

	c.log.Info("survey submitted", "district", frozen.District, "crop", frozen.Crop)
	if err := c.render.Render(ctx, c.id, frozen); err != nil {
		c.log.Error("renderer failed", "error", err)
		c.notices.Notify(notice.Notice{
			Level:   notice.Warning,
			Title:   "Recommendations unavailable",
			Message: "Your answers were submitted but recommendations could not be prepared.",
		})
		return st, nil
	}
	c.notices.Notify(notice.Notice{
		Level:   notice.Info,
		Title:   "Analysis Complete!",
		Message: "Your personalized agricultural recommendations are ready.",
	})
	return st, nil
}

// Previous moves back one step. Completion marks and record data are kept.
func (c *Controller) Previous() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return c.stateLocked(), ErrSubmitted
	}
	if c.step > StepLocation {
		c.step--
	}
	return c.stateLocked(), nil
}

// Reset discards the record and returns to the first step. Probes still in
// flight will not write into the new record.
func (c *Controller) Reset() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.log.Debug("wizard reset")
	return c.stateLocked()
}
