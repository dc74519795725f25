package main

import (
	"context"
	"fmt"
	"io"

	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/internal/watcher"
	"bennypowers.dev/cpls/internal/workspace"
	"github.com/spf13/cobra"
)

func newIndexCmd(opts *options) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the workspace and print a summary",
		Long: `Index the workspace and print how many files and custom properties
were found. With --watch, keep re-indexing as files change until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, _, err := opts.index(ctx, cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printSummary(ctx, out, ws); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			w, err := watcher.New(watcher.Config{
				Paths:      []string{ws.Root()},
				FileFilter: ws.Matches,
				KnownPaths: ws.Store().Paths,
			}, watcher.HandlerFunc(func(events []workspace.Event) {
				for _, event := range events {
					log.Info("%s %s", event.Kind, event.Path)
				}
				if err := ws.HandleEvents(ctx, events); err != nil {
					log.Warn("Re-indexing: %v", err)
				}
				if err := printSummary(ctx, out, ws); err != nil {
					log.Warn("%v", err)
				}
			}))
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			if err := w.Start(); err != nil {
				_ = w.Stop()
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer w.Stop() //nolint:errcheck

			log.Info("Watching %s (%d directories)", ws.Root(), w.DirsWatched())
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-index on file changes until interrupted")
	return cmd
}

func printSummary(ctx context.Context, out io.Writer, ws *workspace.Coordinator) error {
	files, err := ws.Discover(ctx)
	if err != nil {
		return err
	}
	stats := ws.Store().Stats()
	fmt.Fprintf(out, "%s %d files: %d custom properties, %d definitions, %d references\n",
		headingColor.Sprint("Indexed"), len(files), len(ws.SuggestCompletions()), stats.Definitions, stats.References)
	return nil
}
