package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
	"github.com/studyhub-tz/studyhub/internal/server/store"
)

// Scheduler fires study reminders. Once a minute it scans user accounts
// for enabled reminders whose time of day and weekday match the current
// minute and pushes a notification through the hub.
type Scheduler struct {
	store store.DocumentStore
	hub   *Hub
	log   logging.Logger

	now  func() time.Time
	tick time.Duration
}

func NewScheduler(st store.DocumentStore, hub *Hub, log logging.Logger) *Scheduler {
	return &Scheduler{
		store: st,
		hub:   hub,
		log:   log,
		now:   time.Now,
		tick:  time.Minute,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context) {
	docs, err := s.store.FetchAll(ctx, models.CollectionUsers, nil)
	if err != nil {
		s.log.Error(ctx, "scanning reminders", "error", err)
		return
	}

	now := s.now()
	clock := now.Format("15:04")
	weekday := isoWeekday(now)

	for _, doc := range docs {
		var u models.User
		if err := json.Unmarshal(doc, &u); err != nil {
			continue
		}
		for _, r := range u.StudyReminders {
			if !r.IsEnabled || r.Time != clock || !containsDay(r.Days, weekday) {
				continue
			}
			s.hub.SendToUser(u.ID, models.Notification{
				Type:   models.NotificationStudyReminder,
				Title:  r.Title,
				Body:   "Muda wa kujisomea! Time to study.",
				Data:   map[string]string{"reminderId": r.ID},
				SentAt: now.UnixMilli(),
			})
			s.log.Info(ctx, "study reminder sent", "user", u.ID, "reminder", r.ID)
		}
	}
}

// isoWeekday maps Sunday to 7 so days run Monday=1 .. Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
