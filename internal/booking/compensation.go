package booking

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/danpilch/railpal/internal/api/railway"
)

// ReleaseFunc gives one reserved ticket back to the API.
type ReleaseFunc func(ctx context.Context, ticketID railway.ID) error

// ReleaseOutcome is the result of releasing one ticket. Err is nil on success.
type ReleaseOutcome struct {
	TicketID railway.ID
	Err      error
}

// RollbackReport lists one outcome per reserved ticket, in reservation order.
type RollbackReport []ReleaseOutcome

// Failed returns the outcomes whose release did not succeed.
func (r RollbackReport) Failed() RollbackReport {
	var out RollbackReport
	for _, o := range r {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Compensator tracks the tickets reserved during a run and releases them on
// abort. Record and Rollback must not be called concurrently.
type Compensator struct {
	release  ReleaseFunc
	logger   logrus.FieldLogger
	reserved []railway.ID
	done     bool
}

func NewCompensator(release ReleaseFunc, logger logrus.FieldLogger) *Compensator {
	return &Compensator{release: release, logger: logger}
}

// Record adds a ticket the API confirmed as reserved.
func (c *Compensator) Record(ticketID railway.ID) {
	c.reserved = append(c.reserved, ticketID)
}

// Reserved returns a copy of the recorded tickets.
func (c *Compensator) Reserved() []railway.ID {
	return append([]railway.ID(nil), c.reserved...)
}

func (c *Compensator) Len() int {
	return len(c.reserved)
}

// Rollback releases every recorded ticket concurrently and waits for all of
// them. Individual failures are reported, never returned. Rollback runs at
// most once; later calls and calls with nothing recorded issue no requests.
func (c *Compensator) Rollback(ctx context.Context) RollbackReport {
	if c.done || len(c.reserved) == 0 {
		return nil
	}
	c.done = true

	report := make(RollbackReport, len(c.reserved))
	var g errgroup.Group
	for i, id := range c.reserved {
		g.Go(func() error {
			report[i] = ReleaseOutcome{TicketID: id, Err: c.release(ctx, id)}
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range report {
		if o.Err != nil {
			c.logger.WithFields(logrus.Fields{
				"ticket_id": o.TicketID.String(),
				"error":     o.Err,
			}).Error("failed to release seat")
			continue
		}
		c.logger.WithField("ticket_id", o.TicketID.String()).Info("seat released")
	}
	return report
}
