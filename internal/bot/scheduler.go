package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/groupmebot/internal/bot/tasks"
	"github.com/edgard/groupmebot/internal/config"
	"github.com/edgard/groupmebot/internal/logger"
	"github.com/edgard/groupmebot/internal/metrics"
)

// Scheduler runs the registered tasks on their configured cron schedules.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	clock     clockwork.Clock
	mu        sync.Mutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler in the configured time zone. Jobs run in
// singleton mode, so a slow run delays the next one instead of overlapping.
func NewScheduler(log *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc, clock clockwork.Clock) (*Scheduler, error) {
	if log == nil {
		log = logger.Discard()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s, err := gocron.NewScheduler(
		gocron.WithLogger(log.With("component", "gocron")),
		gocron.WithLocation(cfg.Location()),
		gocron.WithClock(clock),
		gocron.WithGlobalJobOptions(gocron.WithSingletonMode(gocron.LimitModeReschedule)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		logger:    log.With("component", "scheduler"),
		cfg:       cfg,
		taskMap:   taskMap,
		clock:     clock,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start schedules every enabled task and starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.cfg.Tasks) == 0 {
		s.logger.Warn("No scheduler tasks configured")
	}

	names := make([]string, 0, len(s.cfg.Tasks))
	for name := range s.cfg.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	scheduled := 0
	for _, name := range names {
		taskCfg := s.cfg.Tasks[name]
		if !taskCfg.Enabled {
			s.logger.Info("Skipping disabled task", "task_name", name)
			continue
		}

		taskFunc, exists := s.taskMap[name]
		if !exists {
			s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", name)
			continue
		}

		if taskCfg.Schedule == "" {
			s.logger.Warn("Scheduled task enabled but has empty schedule, skipping", "task_name", name)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(taskCfg.Schedule, false),
			gocron.NewTask(s.run, name, taskFunc),
			gocron.WithName(name),
		)
		if err != nil {
			s.logger.Error("Failed to schedule task", "task_name", name, "schedule", taskCfg.Schedule, "error", err)
			continue
		}

		s.logger.Info("Scheduled task", "task_name", name, "schedule", taskCfg.Schedule)
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled, "timezone", s.cfg.Timezone)

	return nil
}

// run wraps a task with logging and metrics. Task errors are logged and
// never stop the scheduler.
func (s *Scheduler) run(name string, task tasks.ScheduledTaskFunc) {
	start := s.clock.Now()
	s.logger.Debug("Running scheduled task", "task_name", name)

	err := task(s.ctx)
	duration := s.clock.Since(start)
	metrics.TaskDuration.WithLabelValues(name).Observe(duration.Seconds())

	if err != nil {
		metrics.TaskRuns.WithLabelValues(name, metrics.OutcomeFailure).Inc()
		s.logger.Error("Scheduled task failed", "task_name", name, "error", err, "duration", duration)
		return
	}
	metrics.TaskRuns.WithLabelValues(name, metrics.OutcomeSuccess).Inc()
	s.logger.Debug("Finished scheduled task", "task_name", name, "duration", duration)
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop")
		return nil
	}

	s.cancel()
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped")
	}

	s.running = false
	return err
}
