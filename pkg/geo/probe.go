package geo

import (
	"context"
	"errors"
	"fmt"

	"krushi/entities"
	"krushi/pkg/notice"
)

type FailureKind string

const (
	Denied      FailureKind = "denied"
	Unsupported FailureKind = "unsupported"
)

// Failure is a capability failure: the position could not be obtained.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("geolocation %s: %v", f.Kind, f.Err)
	}
	return "geolocation " + string(f.Kind)
}

func (f *Failure) Unwrap() error { return f.Err }

// Locator is the device position capability.
type Locator interface {
	Locate(ctx context.Context) (entities.Coordinates, error)
}

type LocatorFunc func(ctx context.Context) (entities.Coordinates, error)

func (f LocatorFunc) Locate(ctx context.Context) (entities.Coordinates, error) { return f(ctx) }

// Outcome is the single terminal result of a probe. Exactly one of
// Coordinates and Failure is set.
type Outcome struct {
	Coordinates *entities.Coordinates `json:"coordinates,omitempty"`
	Failure     *Failure              `json:"-"`
}

func (o Outcome) OK() bool { return o.Coordinates != nil }

// FailureKind is empty on success.
func (o Outcome) FailureKind() FailureKind {
	if o.Failure == nil {
		return ""
	}
	return o.Failure.Kind
}

// Notice is the transient message shown for the outcome.
func (o Outcome) Notice() notice.Notice {
	if o.OK() {
		return notice.Notice{
			Level:   notice.Info,
			Title:   "Location detected",
			Message: fmt.Sprintf("GPS coordinates: %.4f, %.4f", o.Coordinates.Latitude, o.Coordinates.Longitude),
		}
	}
	title := "Location access denied"
	if o.FailureKind() == Unsupported {
		title = "GPS not supported"
	}
	return notice.Notice{Level: notice.Warning, Title: title, Message: "Please select your district manually."}
}

type Probe struct{ loc Locator }

// NewProbe wraps loc. A nil locator always reports Unsupported.
func NewProbe(loc Locator) *Probe { return &Probe{loc: loc} }

// Detect issues one position lookup. The returned channel yields exactly one
// Outcome and is then closed. Cancelling ctx after the call does not abort
// the lookup; there is no retry.
func (p *Probe) Detect(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(out)
		out <- p.locate(ctx)
	}()
	return out
}

func (p *Probe) locate(ctx context.Context) Outcome {
	if p.loc == nil {
		return Outcome{Failure: &Failure{Kind: Unsupported}}
	}
	c, err := p.loc.Locate(ctx)
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			return Outcome{Failure: f}
		}
		// position unavailable and timeouts read as denied to the user
		return Outcome{Failure: &Failure{Kind: Denied, Err: err}}
	}
	return Outcome{Coordinates: &c}
}

// Fixed always resolves to c.
func Fixed(c entities.Coordinates) Locator {
	return LocatorFunc(func(context.Context) (entities.Coordinates, error) { return c, nil })
}

// Failing always fails with kind.
func Failing(kind FailureKind) Locator {
	return LocatorFunc(func(context.Context) (entities.Coordinates, error) {
		return entities.Coordinates{}, &Failure{Kind: kind}
	})
}

// Reported turns a position or failure reported by the client device into a
// Locator. A nil position with an empty kind is treated as Denied.
func Reported(pos *entities.Coordinates, kind FailureKind) Locator {
	if pos != nil {
		return Fixed(*pos)
	}
	if kind != Unsupported {
		kind = Denied
	}
	return Failing(kind)
}
