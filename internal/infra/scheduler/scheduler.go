package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"class_schedule_bot/internal/domain/schedule"
)

// personalReminderSpec checks per-chat reminder times every minute.
const personalReminderSpec = "* * * * *"

const jobTimeout = 5 * time.Minute

// Dispatcher sends the scheduled schedule messages. Implemented by app.ScheduleService.
type Dispatcher interface {
	SendTomorrowToAll(ctx context.Context) (int, error)
	SendPersonalReminders(ctx context.Context) (int, error)
}

type ScheduleScheduler struct {
	cronEngine *cron.Cron
	dispatcher Dispatcher
	logger     *logrus.Entry

	mu         sync.Mutex
	sendTime   schedule.Clock
	dailyID    cron.EntryID
	hasDaily   bool
	personalID cron.EntryID
}

func NewScheduleScheduler(dispatcher Dispatcher, location *time.Location, sendTime schedule.Clock, logger *logrus.Entry) *ScheduleScheduler {
	return &ScheduleScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger))),
		),
		dispatcher: dispatcher,
		logger:     logger,
		sendTime:   sendTime,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *ScheduleScheduler) Start() error {
	s.logger.Info("Starting schedule scheduler...")

	if err := s.Reschedule(s.SendTime()); err != nil {
		return err
	}

	id, err := s.cronEngine.AddFunc(personalReminderSpec, s.runPersonal)
	if err != nil {
		return fmt.Errorf("could not add personal reminder cron job: %w", err)
	}
	s.mu.Lock()
	s.personalID = id
	s.mu.Unlock()

	s.cronEngine.Start()
	s.logger.WithField("next_daily_run", s.NextDailyRun()).Info("Schedule scheduler started with jobs.")
	return nil
}

// Reschedule replaces the daily job so it fires at clock.
func (s *ScheduleScheduler) Reschedule(clock schedule.Clock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cronEngine.AddFunc(clock.CronSpec(), s.runDaily)
	if err != nil {
		return fmt.Errorf("could not add daily cron job for %s: %w", clock, err)
	}
	if s.hasDaily {
		s.cronEngine.Remove(s.dailyID)
	}
	s.dailyID = id
	s.hasDaily = true
	s.sendTime = clock

	s.logger.WithFields(logrus.Fields{
		"send_time": clock.String(),
		"cron_spec": clock.CronSpec(),
	}).Info("Daily schedule job scheduled")
	return nil
}

func (s *ScheduleScheduler) SendTime() schedule.Clock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendTime
}

// NextDailyRun returns the next fire time of the daily job, or zero if the engine is not running.
func (s *ScheduleScheduler) NextDailyRun() time.Time {
	s.mu.Lock()
	id, ok := s.dailyID, s.hasDaily
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cronEngine.Entry(id).Next
}

func (s *ScheduleScheduler) runDaily() {
	s.logger.Info("Cron job triggered for daily schedule delivery.")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	sent, err := s.dispatcher.SendTomorrowToAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error during daily schedule delivery")
		return
	}
	s.logger.WithField("sent", sent).Info("Daily schedule delivery done")
}

func (s *ScheduleScheduler) runPersonal() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	sent, err := s.dispatcher.SendPersonalReminders(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error during personal reminder delivery")
		return
	}
	if sent > 0 {
		s.logger.WithField("sent", sent).Info("Personal reminders delivered")
	}
}

func (s *ScheduleScheduler) Stop() {
	s.logger.Info("Stopping schedule scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Schedule scheduler gracefully stopped.")
}
