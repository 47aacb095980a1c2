// Package scheduler is the trigger driver: it fires the recurring
// transaction batch hourly and the token cleanup daily. Each entry point is
// guarded by its own distributed lock, so any number of process instances can
// run the same schedule and at most one executes a given job class per tick.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fintrack/backend/internal/lock"
	"github.com/fintrack/backend/internal/repository"
	"github.com/fintrack/backend/internal/services"
)

const (
	recurringLockName = "scheduler:recurring"
	cleanupLockName   = "scheduler:token-cleanup"

	// Lock TTLs bound how long a crashed holder blocks the next tick. Both
	// are well under the shortest trigger period.
	recurringLockTTL = 10 * time.Minute
	cleanupLockTTL   = 10 * time.Minute
)

type Driver struct {
	gate      *lock.Gate
	recurring *services.RecurringService
	tokenRepo *repository.TokenRepository
	cron      *cron.Cron
}

func NewDriver(gate *lock.Gate, recurring *services.RecurringService, tokenRepo *repository.TokenRepository) *Driver {
	return &Driver{
		gate:      gate,
		recurring: recurring,
		tokenRepo: tokenRepo,
		cron:      cron.New(),
	}
}

// Start registers the periodic jobs and begins firing them. The external
// trigger cadence is best-effort; correctness does not depend on it, only
// liveness.
func (d *Driver) Start() error {
	if _, err := d.cron.AddFunc("0 * * * *", d.RunDueRecurringTransactions); err != nil {
		return err
	}
	if _, err := d.cron.AddFunc("30 3 * * *", d.RunTokenCleanup); err != nil {
		return err
	}
	d.cron.Start()
	log.Println("[SCHEDULER] Jobs started: recurring transactions (hourly), token cleanup (daily)")
	return nil
}

// Stop halts the trigger loop and waits for a running job to finish.
func (d *Driver) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	log.Println("[SCHEDULER] Stopped")
}

// RunDueRecurringTransactions executes one lock-guarded batch tick. A failed
// acquire means another instance holds the tick (or the lock store is down);
// either way the tick is skipped, never run unguarded.
func (d *Driver) RunDueRecurringTransactions() {
	ctx := context.Background()
	if !d.gate.Acquire(ctx, recurringLockName, recurringLockTTL) {
		log.Printf("[SCHEDULER] Skipping recurring tick, lock %s not acquired", recurringLockName)
		return
	}
	defer d.gate.Release(ctx, recurringLockName)

	results, err := d.recurring.ProcessDue(time.Now())
	if err != nil {
		log.Printf("[SCHEDULER] Recurring batch failed: %v", err)
		return
	}

	if len(results) > 0 {
		var succeeded, failed int
		for _, r := range results {
			switch r.Status {
			case services.StatusSuccess:
				succeeded++
			case services.StatusFailed:
				failed++
			}
		}
		log.Printf("[SCHEDULER] Processed %d recurring transactions. Success: %d, Failed: %d",
			len(results), succeeded, failed)
	}
}

// RunTokenCleanup purges expired and revoked refresh tokens under its own
// lock.
func (d *Driver) RunTokenCleanup() {
	ctx := context.Background()
	if !d.gate.Acquire(ctx, cleanupLockName, cleanupLockTTL) {
		log.Printf("[SCHEDULER] Skipping token cleanup, lock %s not acquired", cleanupLockName)
		return
	}
	defer d.gate.Release(ctx, cleanupLockName)

	purged, err := d.tokenRepo.DeleteExpired(time.Now())
	if err != nil {
		log.Printf("[SCHEDULER] Token cleanup failed: %v", err)
		return
	}
	log.Printf("[SCHEDULER] Token cleanup removed %d tokens", purged)
}
