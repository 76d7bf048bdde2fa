package models

// Notification is one push message delivered over the websocket channel.
// Type tells the client how to render it, Data carries ids the client can
// use to deep-link (e.g. a subjectId or achievementId).
type Notification struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
	SentAt int64             `json:"sentAt"`
}

// Notification types pushed by the server.
const (
	NotificationStudyReminder     = "study_reminder"
	NotificationAchievementUnlock = "achievement_unlocked"
	NotificationContentUpdate     = "content_updated"
)
