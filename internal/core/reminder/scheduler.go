package reminder

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/studymatehq/studymate-be/internal/core/auth"
	"github.com/studymatehq/studymate-be/internal/core/email"
	"github.com/studymatehq/studymate-be/internal/core/ratelimit"
	"github.com/studymatehq/studymate-be/internal/shared/utils"
)

// Scheduler runs the daily study reminder job and housekeeping tasks.
type Scheduler struct {
	cron     *cron.Cron
	users    *auth.Repository
	email    *email.Service
	limiter  *ratelimit.Limiter
	cronSpec string
}

func NewScheduler(users *auth.Repository, emailSvc *email.Service, limiter *ratelimit.Limiter, cronSpec string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		users:    users,
		email:    emailSvc,
		limiter:  limiter,
		cronSpec: cronSpec,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cronSpec, s.sendReminders); err != nil {
		return err
	}

	// Hourly cleanup of expired rate limit windows.
	if _, err := s.cron.AddFunc("0 * * * *", s.cleanupCounters); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("⏰ Reminder scheduler started (cron: %s)", s.cronSpec)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("⏰ Reminder scheduler stopped")
}

func (s *Scheduler) sendReminders() {
	users, err := s.users.ListReminderOptIns()
	if err != nil {
		utils.LogError("Failed to load reminder opt-ins", err, nil)
		return
	}

	sent := 0
	for _, user := range users {
		if err := s.email.SendStudyReminder(user.Email, user.Name); err != nil {
			utils.LogError("Failed to send study reminder", err, map[string]interface{}{
				"user_id": user.ID,
			})
			continue
		}
		sent++
	}

	utils.LogInfo("Study reminders sent", map[string]interface{}{
		"recipients": sent,
		"opted_in":   len(users),
	})
}

func (s *Scheduler) cleanupCounters() {
	if err := s.limiter.Cleanup(time.Now().Add(-24 * time.Hour)); err != nil {
		utils.LogError("Failed to clean up rate limit counters", err, nil)
	}
}
