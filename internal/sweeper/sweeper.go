// internal/sweeper/sweeper.go
//
// Periodic expired-grant cleanup.
//
// Context
// -------
// Grant reads already filter on expires_at, so the table stays correct
// without the sweeper; its job is only to keep the table from accumulating
// dead rows.  A cron schedule from config (e.g. "@hourly") drives one
// DELETE per run.  Runs are independent and read-modify nothing else, so
// overlap with in-flight access checks is harmless.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package sweeper

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskgrid/taskgrid/internal/acl"
	"github.com/taskgrid/taskgrid/internal/metrics"
)

// Sweeper owns the cron schedule for grant cleanup.
type Sweeper struct {
	db   *sqlx.DB
	cron *cron.Cron
}

// New builds a Sweeper on the given cron spec.  The spec comes from config
// and was validated at load time; a bad spec here is fatal.
func New(db *sqlx.DB, spec string) (*Sweeper, error) {
	s := &Sweeper{db: db, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins scheduling.  Returns immediately.
func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts scheduling and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// sweep deletes every grant whose expiry has passed.
func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	metrics.GrantSweepsTotal.Inc()

	n, err := acl.DeleteExpiredGrants(ctx, s.db)
	if err != nil {
		zap.L().Error("grant sweep", zap.Error(err))
		return
	}
	if n > 0 {
		metrics.GrantSweepDeletedTotal.Add(float64(n))
		zap.L().Info("grant sweep", zap.Int64("deleted", n))
	}
}
