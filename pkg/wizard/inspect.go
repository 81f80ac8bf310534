package wizard

import "fmt"

// FieldIssue is an inline message for one field of a step.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Inspect runs the field rules of step against the record. Issues are
// advisory; navigation is gated by IsStepValid only.
func (c *Controller) Inspect(step int) ([]FieldIssue, error) {
	if !validStep(step) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	c.mu.Lock()
	rec := c.rec.Clone()
	c.mu.Unlock()

	issues := []FieldIssue{}
	for _, name := range stepFields[step] {
		spec, ok := c.rules[name]
		if !ok {
			continue
		}
		if res := spec.Check(c.validate, fieldValue(rec, name)); !res.Valid {
			issues = append(issues, FieldIssue{Field: name, Message: res.Message})
		}
	}
	return issues, nil
}

type StepStatus string

const (
	StatusCompleted StepStatus = "completed"
	StatusCurrent   StepStatus = "current"
	StatusPending   StepStatus = "pending"
)

type StepProgress struct {
	Number int        `json:"number"`
	Label  string     `json:"label"`
	Status StepStatus `json:"status"`
}

func (c *Controller) Progress() []StepProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked()
}

// A completed mark wins over current, so revisiting a finished step still
// shows it as done.
func (c *Controller) progressLocked() []StepProgress {
	out := make([]StepProgress, 0, TotalSteps)
	for n := 1; n <= TotalSteps; n++ {
		st := StatusPending
		switch {
		case c.completed[n]:
			st = StatusCompleted
		case n == c.step:
			st = StatusCurrent
		}
		out = append(out, StepProgress{Number: n, Label: stepLabels[n], Status: st})
	}
	return out
}
