package common

// AccessTokenHeaderName is the HTTP header carrying the access token on
// requests to the remote store.
const AccessTokenHeaderName = "Authorization"

// Notification topics routed to the client's two local channels.
const (
	TopicStudyReminders = "study_reminders"
	TopicAchievements   = "achievements"
)

// TopicContentPrefix prefixes per-subject content topics, e.g.
// "content:math_o". Clients subscribe via the ws endpoint's topics
// query parameter.
const TopicContentPrefix = "content:"
