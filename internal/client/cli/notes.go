package cli

import (
	"context"
	"fmt"

	"github.com/studyhub-tz/studyhub/internal/models"
)

func (a *App) Notes(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: notes <subjectId>")
		return nil
	}
	subjectID := args[0]

	notes, err := firstSnapshot(ctx, func(ctx context.Context) (<-chan []models.Note, error) {
		return a.notes.NotesBySubject(ctx, subjectID)
	})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(notes) == 0 {
		fmt.Fprintln(a.out, "No notes cached for this subject, run 'sync' while online")
		return nil
	}

	for _, n := range notes {
		mark := " "
		if n.IsBookmarked {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %-16s %-40s %s, ~%d min\n", mark, n.ID, n.Title, n.Difficulty, n.EstimatedReadTime)
	}
	return nil
}

func (a *App) Read(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: read <noteId>")
		return nil
	}
	user, err := a.currentUser()
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		return err
	}

	note, err := a.notes.NoteByID(ctx, args[0])
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	sessionID, err := a.sessions.Start(ctx, user.ID, note.SubjectID, note.ID, models.ActivityNoteReading)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	fmt.Fprintf(a.out, "\n%s\n\n%s\n", note.Title, note.Content)
	for _, kp := range note.KeyPoints {
		fmt.Fprintf(a.out, "  - %s\n", kp)
	}

	if err := a.notes.IncrementReadCount(ctx, note.ID); err != nil {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	}
	if _, err := a.sessions.End(ctx, sessionID); err != nil {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	}
	p, err := a.progress.UpdateProgress(ctx, user.ID, note.SubjectID, func(p *models.UserProgress) {
		p.NotesRead++
	})
	if err != nil {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	}
	if p != nil {
		a.announceUnlocks(ctx, p)
	}
	return nil
}

func (a *App) Bookmark(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: bookmark <noteId>")
		return nil
	}
	if err := a.notes.ToggleBookmark(ctx, args[0]); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintln(a.out, "Bookmark toggled")
	return nil
}
