package scheduler

import (
	"context"
	"time"

	"github.com/rzbill/canvass/internal/repo"
	surveysvc "github.com/rzbill/canvass/internal/services/surveys"
	"github.com/rzbill/canvass/pkg/log"
)

// Sweeper periodically closes surveys that passed their due date.
type Sweeper struct {
	repo     *repo.Repository
	surveys  *surveysvc.Service
	interval time.Duration
	logger   log.Logger

	// now is swapped in tests to control the deadline comparison.
	now func() time.Time
}

func NewSweeper(r *repo.Repository, surveys *surveysvc.Service, interval time.Duration, logger log.Logger) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Sweeper{
		repo:     r,
		surveys:  surveys,
		interval: interval,
		logger:   logger.With(log.Component("sweeper")),
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("deadline sweeper started", log.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("deadline sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep closes every open survey whose due date is in the past. A failure
// on one survey does not stop the rest of the pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	due, err := s.repo.ListOpenSurveysPastDue(s.now())
	if err != nil {
		s.logger.Error("listing due surveys failed", log.Err(err))
		return
	}
	for _, sv := range due {
		if err := s.surveys.CloseDue(ctx, sv.ID); err != nil {
			s.logger.Warn("closing due survey failed",
				log.Str("survey_id", sv.ID), log.Err(err))
			continue
		}
		s.logger.Info("survey closed by deadline",
			log.Str("survey_id", sv.ID), log.Time("due", sv.DueDate))
	}
}
