// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	contactstore "github.com/dalemusser/strataimpact/internal/app/store/contacts"
	"github.com/dalemusser/strataimpact/internal/app/system/metrics"
	"go.uber.org/zap"
)

const (
	ContactPurgeJobName = "contact-purge"
	AuditPurgeJobName   = "audit-purge"
)

// ContactPurgeJob deletes archived contact messages older than retention.
func ContactPurgeJob(contacts *contactstore.Store, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     ContactPurgeJobName,
		Interval: 6 * time.Hour,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			n, err := contacts.PurgeArchived(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				metrics.PurgedMessages.Add(float64(n))
				logger.Info("purged archived contact messages",
					zap.Int64("deleted", n), zap.Duration("retention", retention))
			}
			return nil
		},
	}
}

// AuditPurgeJob deletes audit events older than retention.
func AuditPurgeJob(events *audit.Store, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     AuditPurgeJobName,
		Interval: 24 * time.Hour,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			n, err := events.PurgeBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged old audit events", zap.Int64("deleted", n))
			}
			return nil
		},
	}
}
