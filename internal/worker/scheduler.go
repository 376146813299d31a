package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/yosoku/stats-engine/internal/config"
	"github.com/yosoku/stats-engine/internal/logic"
	"github.com/yosoku/stats-engine/internal/models"
)

var jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stats_engine_scheduled_runs_total",
	Help: "Scheduled job runs by job and result",
}, []string{"job", "result"})

// ParseClock parses HH:MM.
func ParseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid clock %q, want HH:MM", s)
	}
	if hour, err = strconv.Atoi(h); err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	if minute, err = strconv.Atoi(m); err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// cron day-of-week numbers.
var weekdays = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3,
	"thursday": 4, "friday": 5, "saturday": 6,
}

// clockSpec turns a JST wall-clock time into a standard five-field cron spec.
// dom and dow are cron fields, "*" for any.
func clockSpec(clock, dom, dow string) (string, cron.Schedule, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return "", nil, err
	}
	spec := fmt.Sprintf("%d %d %s * %s", m, h, dom, dow)
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return "", nil, fmt.Errorf("parse %q: %w", spec, err)
	}
	return spec, sched, nil
}

// ScheduledJob is a named periodic job. Spec is a standard cron spec read in
// JST.
type ScheduledJob struct {
	Name string
	Spec string
	Run  func(ctx context.Context, now time.Time) error

	schedule cron.Schedule
}

// Next returns the first run time strictly after t, in JST.
func (j ScheduledJob) Next(t time.Time) time.Time {
	if j.schedule == nil {
		return time.Time{}
	}
	return j.schedule.Next(t.In(models.JST))
}

// Jobs builds the nightly, monthly and weekly jobs from the schedule.
func Jobs(sched config.Schedule, users logic.UserStatsService, ranking logic.RankingService) ([]ScheduledJob, error) {
	nightlySpec, nightly, err := clockSpec(sched.Nightly, "*", "*")
	if err != nil {
		return nil, fmt.Errorf("nightly: %w", err)
	}
	if sched.MonthlyDay < 1 || sched.MonthlyDay > 28 {
		return nil, fmt.Errorf("monthly: day %d out of range 1-28", sched.MonthlyDay)
	}
	monthlySpec, monthly, err := clockSpec(sched.Monthly, strconv.Itoa(sched.MonthlyDay), "*")
	if err != nil {
		return nil, fmt.Errorf("monthly: %w", err)
	}
	wd, ok := weekdays[strings.ToLower(sched.WeeklyDay)]
	if !ok {
		return nil, fmt.Errorf("weekly: unknown weekday %q", sched.WeeklyDay)
	}
	weeklySpec, weekly, err := clockSpec(sched.Weekly, "*", strconv.Itoa(wd))
	if err != nil {
		return nil, fmt.Errorf("weekly: %w", err)
	}

	return []ScheduledJob{
		{
			Name:     "nightly",
			Spec:     nightlySpec,
			schedule: nightly,
			Run: func(ctx context.Context, now time.Time) error {
				_, recomputeErr := users.RecomputeAllUsersDaily(ctx, now)
				_, boardsErr := ranking.RebuildWindowLeaderboards(ctx, now)
				return errors.Join(recomputeErr, boardsErr)
			},
		},
		{
			Name:     "monthly",
			Spec:     monthlySpec,
			schedule: monthly,
			Run: func(ctx context.Context, now time.Time) error {
				_, monthlyErr := ranking.RebuildMonthly(ctx, models.PreviousMonth(now))
				_, calendarErr := ranking.RebuildCalendar(ctx, logic.PeriodMonthly, now)
				return errors.Join(monthlyErr, calendarErr)
			},
		},
		{
			Name:     "weekly",
			Spec:     weeklySpec,
			schedule: weekly,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := ranking.RebuildCalendar(ctx, logic.PeriodWeekly, now)
				return err
			},
		},
	}, nil
}

// cronLogger routes cron's own logging through zap. Cron logs every wake-up at
// info, so those go to debug.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Scheduler runs each job on its cron spec in JST. Runs of one job never
// overlap; a run that outlasts the next tick skips it. Panics are recovered
// and logged.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.SugaredLogger
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler registers jobs on a JST cron.
func NewScheduler(jobs []ScheduledJob, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{logger: logger.Sugar(), now: time.Now, ctx: context.Background()}
	cl := cronLogger{l: s.logger}
	s.cron = cron.New(
		cron.WithLocation(models.JST),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.Spec, func() { _ = s.RunNow(s.ctx, job) }); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", job.Name, err)
		}
	}
	return s, nil
}

// Start begins firing jobs. Runs receive a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Debugw("Next run scheduled", "entry", e.ID, "at", e.Next)
	}
	s.logger.Infow("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops firing, cancels running jobs' context and waits for them to
// return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	<-done.Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow runs a job once and records the outcome.
func (s *Scheduler) RunNow(ctx context.Context, job ScheduledJob) error {
	start := time.Now()
	err := job.Run(ctx, s.now())
	if err != nil {
		jobRuns.WithLabelValues(job.Name, "error").Inc()
		s.logger.Errorw("Scheduled job failed", "job", job.Name, "duration", time.Since(start), "error", err)
		return err
	}
	jobRuns.WithLabelValues(job.Name, "ok").Inc()
	s.logger.Infow("Scheduled job finished", "job", job.Name, "duration", time.Since(start))
	return nil
}
