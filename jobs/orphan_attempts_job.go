package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type OrphanCounter interface {
	OrphanedAttempts(ctx context.Context) (int64, error)
}

const orphanReportTimeout = 30 * time.Second

// ReportOrphanedAttempts logs how many attempts point at deleted quizzes. The
// attempts themselves are left alone.
func ReportOrphanedAttempts(stats OrphanCounter) func() {
	return func() {
		log.Println("Running job: ReportOrphanedAttempts...")

		ctx, cancel := context.WithTimeout(context.Background(), orphanReportTimeout)
		defer cancel()

		count, err := stats.OrphanedAttempts(ctx)
		if err != nil {
			log.Printf("Error counting orphaned attempts: %v", err)
			return
		}
		if count == 0 {
			log.Println("No orphaned attempts found.")
			return
		}
		log.Printf("Found %d attempt(s) referencing deleted quizzes.", count)
	}
}

// ScheduleOrphanReport registers the report on c. An empty schedule disables it.
func ScheduleOrphanReport(c *cron.Cron, schedule string, stats OrphanCounter) error {
	if schedule == "" {
		log.Println("Orphaned attempt report disabled.")
		return nil
	}
	if _, err := c.AddFunc(schedule, ReportOrphanedAttempts(stats)); err != nil {
		return fmt.Errorf("schedule orphaned attempt report %q: %w", schedule, err)
	}
	log.Printf("✅ Orphaned attempt report scheduled (%s).", schedule)
	return nil
}
