package cli

import (
	"context"
	"fmt"

	"github.com/studyhub-tz/studyhub/internal/filex"
	"github.com/studyhub-tz/studyhub/internal/models"
	"github.com/studyhub-tz/studyhub/internal/netx"
)

func (a *App) Papers(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: papers <subjectId>")
		return nil
	}
	subjectID := args[0]

	papers, err := firstSnapshot(ctx, func(ctx context.Context) (<-chan []models.PastPaper, error) {
		return a.papers.PapersBySubject(ctx, subjectID)
	})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(papers) == 0 {
		fmt.Fprintln(a.out, "No past papers cached for this subject, run 'sync' while online")
		return nil
	}

	for _, p := range papers {
		fmt.Fprintf(a.out, "%-16s %d %-12s %s\n", p.ID, p.Year, p.ExamType, p.Title)
	}
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: download <paperId>")
		return nil
	}
	paperID := args[0]

	paper, err := a.papers.PaperByID(ctx, paperID)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	url, err := a.papers.DownloadURL(ctx, paperID)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	data, err := netx.DownloadFromPresignedURL(url)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	dir, err := filex.EnsureSubDir(a.config.DownloadDir)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	path, err := filex.SaveFile(dir, paperID+".pdf", data)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	if err := a.papers.IncrementDownloadCount(ctx, paperID); err != nil {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	}

	fmt.Fprintf(a.out, "Saved %s to %s\n", paper.Title, path)
	return nil
}
