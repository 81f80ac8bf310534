package wizard

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"krushi/pkg/geo"
)

// DetectLocation probes the configured locator. While such a probe is
// pending, further calls join it and receive the same outcome.
func (c *Controller) DetectLocation(ctx context.Context) <-chan geo.Outcome {
	return c.detect(ctx, c.locator, true)
}

// DetectLocationWith probes loc, typically a position the client device
// already resolved. It never joins a pending probe; outcomes are merged in
// the order they arrive.
func (c *Controller) DetectLocationWith(ctx context.Context, loc geo.Locator) <-chan geo.Outcome {
	return c.detect(ctx, loc, false)
}

// detect runs one probe and merges a successful position into the record.
// The returned channel yields one Outcome and is closed. Results arriving
// after Reset or submission are not applied.
func (c *Controller) detect(ctx context.Context, loc geo.Locator, shared bool) <-chan geo.Outcome {
	c.mu.Lock()
	gen := c.gen
	c.locating++
	c.mu.Unlock()

	run := func() geo.Outcome {
		o := <-geo.NewProbe(loc).Detect(ctx)
		c.applyOutcome(gen, o)
		return o
	}

	var res <-chan singleflight.Result
	if shared {
		res = c.probes.DoChan("locator:"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
			return run(), nil
		})
	}

	out := make(chan geo.Outcome, 1)
	go func() {
		defer close(out)
		var o geo.Outcome
		if res != nil {
			o = (<-res).Val.(geo.Outcome)
		} else {
			o = run()
		}
		c.mu.Lock()
		c.locating--
		c.mu.Unlock()
		out <- o
	}()
	return out
}

func (c *Controller) applyOutcome(gen uint64, o geo.Outcome) {
	c.mu.Lock()
	if gen != c.gen || c.submitted {
		c.mu.Unlock()
		c.log.Debug("stale location result dropped")
		return
	}
	if o.OK() {
		pos := *o.Coordinates
		c.rec.GPSCoordinates = &pos
		c.rec.GPSDetected = true
	}
	c.mu.Unlock()

	if o.OK() {
		c.log.Info("location detected")
	} else {
		c.log.Warn("location unavailable", "reason", o.FailureKind())
	}
	c.notices.Notify(o.Notice())
}
