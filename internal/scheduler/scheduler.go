package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/repository"
	"github.com/spec-kit/support-bot/internal/service"
)

// BackupRunner produces an off-process snapshot of the datastore.
type BackupRunner interface {
	Snapshot(ctx context.Context) error
}

// Scheduler runs the periodic jobs: the open-ticket aging scan, the
// long-term reminder, and the backup trigger. Escalation sends are
// suppressed outside the configured active hours; the backup is not.
type Scheduler struct {
	cfg      config.ScheduleConfig
	cron     *cron.Cron
	tickets  repository.TicketRepository
	notifier *service.NotificationService
	backup   BackupRunner
	logger   *zap.Logger
	now      func() time.Time
}

// New builds the scheduler; backup may be nil.
func New(cfg config.ScheduleConfig, tickets repository.TicketRepository, notifier *service.NotificationService, backup BackupRunner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		tickets:  tickets,
		notifier: notifier,
		backup:   backup,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start registers the jobs and begins the timers.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.AgingSpec, s.runAgingScan); err != nil {
		return fmt.Errorf("aging job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, s.runLongTermReminder); err != nil {
		return fmt.Errorf("reminder job: %w", err)
	}
	if s.backup != nil {
		if _, err := s.cron.AddFunc(s.cfg.BackupSpec, s.runBackup); err != nil {
			return fmt.Errorf("backup job: %w", err)
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("aging", s.cfg.AgingSpec),
		zap.String("reminder", s.cfg.ReminderSpec),
		zap.String("backup", s.cfg.BackupSpec),
	)
	return nil
}

// Stop halts the timers and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runAgingScan() {
	now := s.now()
	if !s.cfg.InActiveWindow(now) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := now.Add(-s.cfg.AgingAfter)
	stale, err := s.tickets.ListOpenOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("aging scan failed", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}
	s.notifier.Notify(ctx, renderAging(stale, s.cfg.AgingAfter))
}

func (s *Scheduler) runLongTermReminder() {
	now := s.now()
	if !s.cfg.InActiveWindow(now) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending, err := s.tickets.ListByStatus(ctx, domain.TicketStatusLongTerm)
	if err != nil {
		s.logger.Error("long-term reminder failed", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}
	s.notifier.Notify(ctx, renderLongTermReminder(pending))
}

func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.backup.Snapshot(ctx); err != nil {
		s.logger.Error("backup failed", zap.Error(err))
		return
	}
	s.logger.Info("backup completed")
}

func renderAging(stale []domain.Ticket, after time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d open tickets older than %s:\n", len(stale), after)
	for _, t := range stale {
		fmt.Fprintf(&b, "#%d (%s, building %s room %s) since %s\n",
			t.ID, t.Problem, t.Corpus, t.Room, t.CreatedAt.Format("02.01.2006 15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderLongTermReminder(pending []domain.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d long-term tickets still pending:\n", len(pending))
	for _, t := range pending {
		fmt.Fprintf(&b, "#%d (%s)", t.ID, t.Problem)
		if t.SolvedAt != nil {
			fmt.Fprintf(&b, " since %s", t.SolvedAt.Format("02.01.2006"))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
