// Package models defines the StudyHub entities shared by the local cache
// and the remote document store. JSON field names match the remote
// documents, timestamps are Unix milliseconds. Every entity carries a
// caller-assigned string id that is stable across both stores.
package models

// Collection names in the remote document store, one per entity type.
const (
	CollectionSubjects          = "subjects"
	CollectionNotes             = "notes"
	CollectionQuizzes           = "quizzes"
	CollectionPastPapers        = "past_papers"
	CollectionUserProgress      = "user_progress"
	CollectionQuizAttempts      = "quiz_attempts"
	CollectionPastPaperAttempts = "past_paper_attempts"
	CollectionStudySessions     = "study_sessions"
	CollectionAchievements      = "achievements"
	CollectionUsers             = "users"
	CollectionRefreshTokens     = "refresh_tokens"
)

// EducationLevel distinguishes NECTA O-Level (Form 1-4) from A-Level (Form 5-6).
type EducationLevel string

const (
	OLevel EducationLevel = "O_LEVEL"
	ALevel EducationLevel = "A_LEVEL"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

type ExamType string

const (
	ExamNECTA  ExamType = "NECTA"
	ExamMock   ExamType = "MOCK"
	ExamSchool ExamType = "SCHOOL_EXAM"
)

type QuizType string

const (
	QuizPractice  QuizType = "PRACTICE"
	QuizMockExam  QuizType = "MOCK_EXAM"
	QuizTopicTest QuizType = "TOPIC_TEST"
	QuizQuick     QuizType = "QUICK_QUIZ"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionFillBlank      QuestionType = "FILL_BLANK"
	QuestionShortAnswer    QuestionType = "SHORT_ANSWER"
)

type StudyActivityType string

const (
	ActivityNoteReading       StudyActivityType = "NOTE_READING"
	ActivityQuizTaking        StudyActivityType = "QUIZ_TAKING"
	ActivityPastPaperPractice StudyActivityType = "PAST_PAPER_PRACTICE"
	ActivityVideoWatching     StudyActivityType = "VIDEO_WATCHING"
)

type AchievementType string

const (
	AchievementStudyStreak    AchievementType = "STUDY_STREAK"
	AchievementNotesRead      AchievementType = "NOTES_READ"
	AchievementQuizzesPassed  AchievementType = "QUIZZES_PASSED"
	AchievementPapersAttempts AchievementType = "PAST_PAPERS_ATTEMPTED"
	AchievementTimeStudied    AchievementType = "TIME_STUDIED"
)

// Subject is a NECTA O-Level or A-Level subject.
type Subject struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	NameSwahili     string         `json:"nameSwahili"`
	Level           EducationLevel `json:"level"`
	Description     string         `json:"description"`
	IconURL         string         `json:"iconUrl"`
	Color           string         `json:"color"`
	NotesCount      int            `json:"notesCount"`
	QuizzesCount    int            `json:"quizzesCount"`
	PastPapersCount int            `json:"pastPapersCount"`
	IsPopular       bool           `json:"isPopular"`
	Order           int            `json:"order"`
	UpdatedAt       int64          `json:"updatedAt"`
}

// Formula is a nested sub-record of Note, stored inside the note document.
type Formula struct {
	Title       string `json:"title"`
	Latex       string `json:"latex"`
	Description string `json:"description"`
}

// Diagram is a nested sub-record of Note.
type Diagram struct {
	Title       string `json:"title"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// Note is a study note for a subject. Topics, key points, formulas and
// diagrams live inside the serialized document and are not queryable
// columns in the local cache.
type Note struct {
	ID                string     `json:"id"`
	SubjectID         string     `json:"subjectId"`
	Title             string     `json:"title"`
	TitleSwahili      string     `json:"titleSwahili"`
	Content           string     `json:"content"`
	ContentSwahili    string     `json:"contentSwahili"`
	Summary           string     `json:"summary"`
	Topics            []string   `json:"topics"`
	KeyPoints         []string   `json:"keyPoints"`
	Formulas          []Formula  `json:"formulas"`
	Diagrams          []Diagram  `json:"diagrams"`
	IsPremium         bool       `json:"isPremium"`
	IsBookmarked      bool       `json:"isBookmarked"`
	ReadCount         int        `json:"readCount"`
	EstimatedReadTime int        `json:"estimatedReadTime"` // minutes
	Difficulty        Difficulty `json:"difficulty"`
	Order             int        `json:"order"`
	CreatedAt         int64      `json:"createdAt"`
	UpdatedAt         int64      `json:"updatedAt"`
}

// Question is a nested sub-record of Quiz.
type Question struct {
	ID            string       `json:"id"`
	QuestionText  string       `json:"questionText"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correctAnswer"`
	Explanation   string       `json:"explanation"`
	ImageURL      string       `json:"imageUrl"`
	Points        int          `json:"points"`
	Difficulty    Difficulty   `json:"difficulty"`
}

// Quiz is a practice quiz or mock test for a subject.
type Quiz struct {
	ID             string     `json:"id"`
	SubjectID      string     `json:"subjectId"`
	Title          string     `json:"title"`
	TitleSwahili   string     `json:"titleSwahili"`
	Description    string     `json:"description"`
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"totalQuestions"`
	Duration       int        `json:"duration"`     // minutes
	PassingScore   int        `json:"passingScore"` // percent
	Difficulty     Difficulty `json:"difficulty"`
	QuizType       QuizType   `json:"quizType"`
	Topics         []string   `json:"topics"`
	IsPremium      bool       `json:"isPremium"`
	AttemptCount   int        `json:"attemptCount"`
	AverageScore   float64    `json:"averageScore"`
	CreatedAt      int64      `json:"createdAt"`
	UpdatedAt      int64      `json:"updatedAt"`
}

// PaperQuestion is a nested sub-record of PastPaper.
type PaperQuestion struct {
	QuestionNumber string `json:"questionNumber"`
	QuestionText   string `json:"questionText"`
	Marks          int    `json:"marks"`
	Solution       string `json:"solution"`
	Explanation    string `json:"explanation"`
	ImageURL       string `json:"imageUrl"`
}

// PastPaper is a NECTA past examination paper. FileKey/SolutionsKey are
// object-storage keys resolved to presigned URLs by the server.
type PastPaper struct {
	ID            string          `json:"id"`
	SubjectID     string          `json:"subjectId"`
	Title         string          `json:"title"`
	Year          int             `json:"year"`
	ExamType      ExamType        `json:"examType"`
	Level         EducationLevel  `json:"level"`
	PaperNumber   int             `json:"paperNumber"`
	FileKey       string          `json:"fileKey"`
	SolutionsKey  string          `json:"solutionsKey"`
	HasSolutions  bool            `json:"hasSolutions"`
	Questions     []PaperQuestion `json:"questions"`
	Topics        []string        `json:"topics"`
	Duration      int             `json:"duration"` // minutes
	TotalMarks    int             `json:"totalMarks"`
	IsPremium     bool            `json:"isPremium"`
	DownloadCount int             `json:"downloadCount"`
	AttemptCount  int             `json:"attemptCount"`
	AverageScore  float64         `json:"averageScore"`
	IsBookmarked  bool            `json:"isBookmarked"`
	CreatedAt     int64           `json:"createdAt"`
	UpdatedAt     int64           `json:"updatedAt"`
}

// StudyReminder is a nested sub-record of User.
type StudyReminder struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Time      string `json:"time"` // HH:mm
	Days      []int  `json:"days"` // 1=Monday .. 7=Sunday
	IsEnabled bool   `json:"isEnabled"`
}

// User is a StudyHub account.
type User struct {
	ID                string          `json:"id"`
	Email             string          `json:"email"`
	DisplayName       string          `json:"displayName"`
	PasswordHash      string          `json:"passwordHash,omitempty"`
	PhoneNumber       string          `json:"phoneNumber"`
	EducationLevel    EducationLevel  `json:"educationLevel"`
	FormClass         int             `json:"formClass"` // Form 1..6
	PreferredLanguage string          `json:"preferredLanguage"`
	IsPremium         bool            `json:"isPremium"`
	StudyStreak       int             `json:"studyStreak"`
	TotalStudyTime    int64           `json:"totalStudyTime"` // milliseconds
	BookmarkedNotes   []string        `json:"bookmarkedNotes"`
	BookmarkedPapers  []string        `json:"bookmarkedPapers"`
	StudyReminders    []StudyReminder `json:"studyReminders"`
	CreatedAt         int64           `json:"createdAt"`
	LastLoginAt       int64           `json:"lastLoginAt"`
	UpdatedAt         int64           `json:"updatedAt"`
}

// UserProgress tracks per-subject performance for a user.
type UserProgress struct {
	ID               string   `json:"id"`
	UserID           string   `json:"userId"`
	SubjectID        string   `json:"subjectId"`
	NotesRead        int      `json:"notesRead"`
	QuizzesTaken     int      `json:"quizzesTaken"`
	QuizzesPassed    int      `json:"quizzesPassed"`
	AverageScore     float64  `json:"averageScore"`
	TotalStudyTime   int64    `json:"totalStudyTime"` // milliseconds
	LastStudyDate    int64    `json:"lastStudyDate"`
	StudyStreak      int      `json:"studyStreak"`
	LongestStreak    int      `json:"longestStreak"`
	StrongTopics     []string `json:"strongTopics"`
	WeakTopics       []string `json:"weakTopics"`
	Level            int      `json:"level"`
	ExperiencePoints int      `json:"experiencePoints"`
	UpdatedAt        int64    `json:"updatedAt"`
}

// QuizAttempt is one completed quiz run. Answers map question id to the
// chosen answer and ride inside the document.
type QuizAttempt struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	QuizID         string            `json:"quizId"`
	SubjectID      string            `json:"subjectId"`
	Score          float64           `json:"score"` // percent
	CorrectAnswers int               `json:"correctAnswers"`
	TotalQuestions int               `json:"totalQuestions"`
	TimeTaken      int64             `json:"timeTaken"` // milliseconds
	Answers        map[string]string `json:"answers"`
	IsPassed       bool              `json:"isPassed"`
	CompletedAt    int64             `json:"completedAt"`
}

// PastPaperAttempt is one completed past-paper practice run.
type PastPaperAttempt struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	PaperID     string  `json:"paperId"`
	SubjectID   string  `json:"subjectId"`
	Score       float64 `json:"score"` // marks obtained as percent of total
	TimeTaken   int64   `json:"timeTaken"`
	CompletedAt int64   `json:"completedAt"`
}

// StudySession is a tracked span of study activity.
type StudySession struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId"`
	SubjectID    string            `json:"subjectId"`
	ActivityType StudyActivityType `json:"activityType"`
	ContentID    string            `json:"contentId"`
	Duration     int64             `json:"duration"` // milliseconds
	StartTime    int64             `json:"startTime"`
	EndTime      int64             `json:"endTime"`
	IsCompleted  bool              `json:"isCompleted"`
}

// Achievement is a badge a user can unlock.
type Achievement struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	TitleSwahili string          `json:"titleSwahili"`
	Description  string          `json:"description"`
	IconURL      string          `json:"iconUrl"`
	Type         AchievementType `json:"type"`
	Threshold    int             `json:"threshold"`
	Progress     int             `json:"progress"`
	IsUnlocked   bool            `json:"isUnlocked"`
	UnlockedAt   int64           `json:"unlockedAt"`
}
