package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/studyhub-tz/studyhub/internal/models"
)

func (a *App) Progress(ctx context.Context) error {
	user, err := a.currentUser()
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		return err
	}

	records, err := firstSnapshot(ctx, func(ctx context.Context) (<-chan []models.UserProgress, error) {
		return a.progress.ProgressByUser(ctx, user.ID)
	})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No progress yet, read a note or take a quiz")
		return nil
	}

	for _, p := range records {
		fmt.Fprintf(a.out, "%-16s notes %-4d quizzes %d/%d avg %.0f%% streak %dd time %s\n",
			p.SubjectID, p.NotesRead, p.QuizzesPassed, p.QuizzesTaken, p.AverageScore,
			p.StudyStreak, (time.Duration(p.TotalStudyTime) * time.Millisecond).Round(time.Minute))
	}
	return nil
}

func (a *App) Sessions(ctx context.Context) error {
	user, err := a.currentUser()
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		return err
	}

	sessions, err := firstSnapshot(ctx, func(ctx context.Context) (<-chan []models.StudySession, error) {
		return a.sessions.SessionsByUser(ctx, user.ID)
	})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "No study sessions yet")
		return nil
	}

	for _, s := range sessions {
		state := "in progress"
		if s.IsCompleted {
			state = (time.Duration(s.Duration) * time.Millisecond).Round(time.Second).String()
		}
		fmt.Fprintf(a.out, "%s  %-14s %-16s %s\n",
			time.UnixMilli(s.StartTime).Format("2006-01-02 15:04"), s.ActivityType, s.SubjectID, state)
	}
	return nil
}

// announceUnlocks pushes the updated counters through the badge
// thresholds and prints anything newly earned. Study-time badges count
// minutes.
func (a *App) announceUnlocks(ctx context.Context, p *models.UserProgress) {
	checks := []struct {
		kind  models.AchievementType
		value int
	}{
		{models.AchievementStudyStreak, p.StudyStreak},
		{models.AchievementNotesRead, p.NotesRead},
		{models.AchievementQuizzesPassed, p.QuizzesPassed},
		{models.AchievementTimeStudied, int(p.TotalStudyTime / 60_000)},
	}
	for _, c := range checks {
		unlocked, err := a.achievements.CheckAndUnlock(ctx, c.kind, c.value)
		if err != nil {
			fmt.Fprintf(a.out, "warning: %v\n", err)
			continue
		}
		for _, b := range unlocked {
			fmt.Fprintf(a.out, "\n[achievement] %s: %s\n", b.Title, b.Description)
		}
	}
}

func (a *App) Achievements(ctx context.Context) error {
	badges, err := firstSnapshot(ctx, func(ctx context.Context) (<-chan []models.Achievement, error) {
		return a.achievements.Achievements(ctx)
	})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(badges) == 0 {
		fmt.Fprintln(a.out, "No achievements yet, run 'sync' first")
		return nil
	}

	for _, b := range badges {
		mark := " "
		if b.IsUnlocked {
			mark = "*"
		}
		fmt.Fprintf(a.out, "[%s] %-24s %d/%d  %s\n", mark, b.Title, b.Progress, b.Threshold, b.Description)
	}
	return nil
}
