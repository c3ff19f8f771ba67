// File: internal/jobs/cleanup.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"apt_briefing_backend/internal/alert"
	"apt_briefing_backend/internal/auth"
	"apt_briefing_backend/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupJob prunes expired refresh tokens, access token revocations and
// aged-out alert dispatch records on a cron schedule.
type CleanupJob struct {
	authService   auth.Service
	alertService  alert.Service
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewCleanupJob creates a new CleanupJob.
func NewCleanupJob(
	authService auth.Service,
	alertService alert.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *CleanupJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &CleanupJob{
		authService:   authService,
		alertService:  alertService,
		logger:        logger.Named("CleanupJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *CleanupJob) SetupAndStart() error {
	jobSpec := j.cfg.AuthTokenCleanupSchedule
	if jobSpec == "" {
		j.logger.Warn("Cleanup schedule not defined (AUTH_TOKEN_CLEANUP_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule cleanup job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Cleanup job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *CleanupJob) runJob() {
	j.logger.Info("Starting cleanup run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tokensRemoved, err := j.authService.CleanupExpiredTokens(ctx)
	if err != nil {
		j.logger.Error("Token cleanup failed", zap.Error(err))
	}

	recordsRemoved, err := j.alertService.PruneDispatchLog(ctx)
	if err != nil {
		j.logger.Error("Dispatch log cleanup failed", zap.Error(err))
	}

	j.logger.Info("Cleanup run completed",
		zap.Int64("tokens_removed", tokensRemoved),
		zap.Int64("dispatch_records_removed", recordsRemoved))
}

// Stop gracefully stops the cron scheduler.
func (j *CleanupJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping cleanup scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Cleanup scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Cleanup scheduler stop timed out.")
		}
	}
}

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
