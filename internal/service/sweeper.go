package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/logging"
)

type overdueMarker interface {
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}

// Sweeper runs the nightly overdue pass: loans whose due date has passed
// flip to overdue, as do unpaid installments. Dates are evaluated in the
// Bangkok business day, so the sweep schedule should also run in that zone.
type Sweeper struct {
	loans        overdueMarker
	installments overdueMarker
	clock        clock.Clock
	cron         *cron.Cron
}

func NewSweeper(loans, installments overdueMarker, clk clock.Clock) *Sweeper {
	return &Sweeper{
		loans:        loans,
		installments: installments,
		clock:        clk,
		cron:         cron.New(cron.WithLocation(clock.Bangkok)),
	}
}

// Start schedules the sweep under the given cron expression and begins the
// runner. The returned stop function halts the scheduler and waits for any
// in-flight sweep.
func (s *Sweeper) Start(ctx context.Context, spec string) (func(), error) {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.Sweep(ctx); err != nil {
			logging.FromContext(ctx).Error("overdue sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("Start: schedule %q: %w", spec, err)
	}

	s.cron.Start()
	return func() {
		<-s.cron.Stop().Done()
	}, nil
}

// Sweep marks overdue loans and installments as of today. Safe to run
// repeatedly; rows already overdue are not touched again.
func (s *Sweeper) Sweep(ctx context.Context) error {
	log := logging.FromContext(ctx)
	today := clock.Today(s.clock)

	loans, err := s.loans.MarkOverdue(ctx, today)
	if err != nil {
		return fmt.Errorf("Sweep: loans: %w", err)
	}
	installments, err := s.installments.MarkOverdue(ctx, today)
	if err != nil {
		return fmt.Errorf("Sweep: installments: %w", err)
	}

	log.Info("overdue sweep complete",
		"date", today.Format("2006-01-02"),
		"loans_marked", loans,
		"installments_marked", installments,
	)
	return nil
}
