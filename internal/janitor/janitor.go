// Package janitor garbage-collects expired rows from the durable stores on
// a cron schedule. Correctness never depends on it: expired sessions and
// cache entries already read as missing.
package janitor

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger removes expired rows from one store.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Janitor runs the purge sweep on a schedule.
type Janitor struct {
	cron    *cron.Cron
	purgers map[string]Purger
}

// Start creates and starts a janitor. schedule uses cron syntax, e.g.
// "@every 10m".
func Start(schedule string, purgers map[string]Purger) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(),
		purgers: purgers,
	}

	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, err
	}

	j.cron.Start()
	return j, nil
}

// Stop gracefully stops the janitor
func (j *Janitor) Stop() {
	j.cron.Stop()
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for name, purger := range j.purgers {
		purged, err := purger.PurgeExpired(ctx)
		if err != nil {
			log.Printf("[JANITOR]: Failed to purge %s: %v", name, err)
			continue
		}
		if purged > 0 {
			log.Printf("[JANITOR]: Purged %d expired rows from %s", purged, name)
		}
	}
}
