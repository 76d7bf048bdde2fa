package cli

import (
	"context"
	"fmt"
)

// Sync refreshes the whole cache: the subject catalogue first, then
// per-subject content, then the user's own records when logged in.
// Partial failures are reported but do not stop the remaining steps.
func (a *App) Sync(ctx context.Context) error {
	fmt.Fprintln(a.out, "Syncing...")

	if err := a.subjects.Sync(ctx); err != nil {
		fmt.Fprintf(a.out, "subjects: %v\n", err)
		return err
	}

	subjects, err := firstSnapshot(ctx, a.subjects.Subjects)
	if err != nil {
		return err
	}

	var failed int
	for _, s := range subjects {
		if err := a.notes.Sync(ctx, s.ID); err != nil {
			fmt.Fprintf(a.out, "notes %s: %v\n", s.ID, err)
			failed++
		}
		if err := a.quizzes.Sync(ctx, s.ID); err != nil {
			fmt.Fprintf(a.out, "quizzes %s: %v\n", s.ID, err)
			failed++
		}
		if err := a.papers.Sync(ctx, s.ID); err != nil {
			fmt.Fprintf(a.out, "papers %s: %v\n", s.ID, err)
			failed++
		}
	}

	if err := a.achievements.Sync(ctx); err != nil {
		fmt.Fprintf(a.out, "achievements: %v\n", err)
		failed++
	}

	if a.user != nil {
		if err := a.progress.Sync(ctx, a.user.ID); err != nil {
			fmt.Fprintf(a.out, "progress: %v\n", err)
			failed++
		}
		if err := a.quizzes.SyncAttempts(ctx, a.user.ID); err != nil {
			fmt.Fprintf(a.out, "quiz attempts: %v\n", err)
			failed++
		}
		if err := a.papers.SyncAttempts(ctx, a.user.ID); err != nil {
			fmt.Fprintf(a.out, "paper attempts: %v\n", err)
			failed++
		}
		if err := a.sessions.Sync(ctx, a.user.ID); err != nil {
			fmt.Fprintf(a.out, "sessions: %v\n", err)
			failed++
		}
	}

	if failed > 0 {
		fmt.Fprintf(a.out, "Sync finished with %d failed steps\n", failed)
	} else {
		fmt.Fprintln(a.out, "Sync complete")
	}
	return nil
}
