package cli

import (
	"context"
	"fmt"
)

// firstSnapshot drains the initial result of a live query and drops the
// subscription, for one-shot listing commands.
func firstSnapshot[T any](ctx context.Context, watch func(context.Context) (<-chan []T, error)) ([]T, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := watch(wctx)
	if err != nil {
		return nil, err
	}
	return <-ch, nil
}

func (a *App) Subjects(ctx context.Context) error {
	subjects, err := firstSnapshot(ctx, a.subjects.Subjects)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(subjects) == 0 {
		fmt.Fprintln(a.out, "No subjects cached yet, run 'sync' while online")
		return nil
	}

	for _, s := range subjects {
		fmt.Fprintf(a.out, "%-16s %-8s %s (%s)\n", s.ID, s.Level, s.Name, s.NameSwahili)
	}
	return nil
}
