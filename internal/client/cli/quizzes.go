package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/studyhub-tz/studyhub/internal/models"
)

func (a *App) Quizzes(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: quizzes <subjectId>")
		return nil
	}
	subjectID := args[0]

	quizzes, err := firstSnapshot(ctx, func(ctx context.Context) (<-chan []models.Quiz, error) {
		return a.quizzes.QuizzesBySubject(ctx, subjectID)
	})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(quizzes) == 0 {
		fmt.Fprintln(a.out, "No quizzes cached for this subject, run 'sync' while online")
		return nil
	}

	for _, q := range quizzes {
		fmt.Fprintf(a.out, "%-16s %-40s %d questions, pass %d%%, avg %.0f%%\n",
			q.ID, q.Title, q.TotalQuestions, q.PassingScore, q.AverageScore)
	}
	return nil
}

func (a *App) TakeQuiz(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: take <quizId>")
		return nil
	}
	user, err := a.currentUser()
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		return err
	}

	quiz, err := a.quizzes.QuizByID(ctx, args[0])
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(quiz.Questions) == 0 {
		fmt.Fprintln(a.out, "This quiz has no questions")
		return nil
	}

	fmt.Fprintf(a.out, "%s: %d questions, %d minutes\n", quiz.Title, len(quiz.Questions), quiz.Duration)
	started := time.Now()

	answers := make(map[string]string, len(quiz.Questions))
	correct := 0
	for i, q := range quiz.Questions {
		fmt.Fprintf(a.out, "\nQ%d. %s\n", i+1, q.QuestionText)
		for j, opt := range q.Options {
			fmt.Fprintf(a.out, "  %c) %s\n", 'a'+j, opt)
		}

		answer, err := GetSimpleText(a.reader, "Your answer", a.out)
		if err != nil {
			return err
		}
		answers[q.ID] = answer
		if strings.EqualFold(strings.TrimSpace(answer), q.CorrectAnswer) {
			correct++
		}
	}

	score := float64(correct) / float64(len(quiz.Questions)) * 100
	attempt := &models.QuizAttempt{
		UserID:         user.ID,
		QuizID:         quiz.ID,
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: len(quiz.Questions),
		TimeTaken:      time.Since(started).Milliseconds(),
		Answers:        answers,
		IsPassed:       score >= float64(quiz.PassingScore),
		CompletedAt:    time.Now().UnixMilli(),
	}

	if err := a.quizzes.RecordAttempt(ctx, attempt); err != nil {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	}
	p, err := a.progress.UpdateProgress(ctx, user.ID, quiz.SubjectID, func(p *models.UserProgress) {
		p.QuizzesTaken++
		if attempt.IsPassed {
			p.QuizzesPassed++
		}
	})
	if err != nil {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	}
	if p != nil {
		a.announceUnlocks(ctx, p)
	}

	verdict := "failed"
	if attempt.IsPassed {
		verdict = "passed"
	}
	fmt.Fprintf(a.out, "\nYou scored %.0f%% (%d/%d): %s\n", score, correct, len(quiz.Questions), verdict)
	return nil
}
