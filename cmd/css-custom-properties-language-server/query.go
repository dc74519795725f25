package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"bennypowers.dev/cpls/internal/completion"
	"bennypowers.dev/cpls/internal/index"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	headingColor = color.New(color.FgGreen, color.Bold)
	nameColor    = color.New(color.FgCyan, color.Bold)
	pathColor    = color.New(color.FgBlue)
	valueColor   = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

func newDefinitionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "definitions NAME",
		Short: "List where a custom property is declared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := opts.index(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			name := propertyName(args[0])
			printLocations(cmd.OutOrStdout(), ws.Root(), name, ws.FindDefinitions(name), true)
			return nil
		},
	}
}

func newReferencesCmd(opts *options) *cobra.Command {
	var withDeclarations bool

	cmd := &cobra.Command{
		Use:   "references NAME",
		Short: "List where a custom property is used",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := opts.index(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			name := propertyName(args[0])
			found := ws.FindUsages(name)
			if withDeclarations {
				found = ws.FindReferences(name)
			}
			printLocations(cmd.OutOrStdout(), ws.Root(), name, found, false)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withDeclarations, "include-declarations", false, "also list declarations, after the usages")
	return cmd
}

func newCompletionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "completions",
		Short: "List every custom property an editor would be offered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := opts.index(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			printCompletions(cmd.OutOrStdout(), ws.SuggestCompletions())
			return nil
		},
	}
}

// propertyName accepts names with or without the leading dashes
func propertyName(arg string) string {
	if strings.HasPrefix(arg, "--") {
		return arg
	}
	return "--" + strings.TrimLeft(arg, "-")
}

// printLocations writes one line per location as path:line:column, with
// 1-based line and column like compiler diagnostics
func printLocations(out io.Writer, root, name string, locs []index.Location, withValues bool) {
	if len(locs) == 0 {
		fmt.Fprintf(out, "%s %s\n", dimColor.Sprint("no results for"), nameColor.Sprint(name))
		return
	}
	for _, loc := range locs {
		start := loc.Occurrence.Range.Start
		position := fmt.Sprintf("%s:%d:%d", relative(root, loc.Path), start.Line+1, start.Character+1)
		fmt.Fprint(out, pathColor.Sprint(position))
		if withValues {
			fmt.Fprintf(out, " %s", valueColor.Sprint(loc.Value))
		}
		if selectors := loc.Occurrence.Selectors; len(selectors) > 0 {
			fmt.Fprintf(out, " %s", dimColor.Sprint(strings.Join(selectors, ", ")))
		}
		if media := loc.Occurrence.Media; media != "" {
			fmt.Fprintf(out, " %s", dimColor.Sprint("@media "+media))
		}
		fmt.Fprintln(out)
	}
}

func printCompletions(out io.Writer, entries []completion.Entry) {
	for _, entry := range entries {
		fmt.Fprintf(out, "%s %s %s\n",
			nameColor.Sprint(entry.Label),
			dimColor.Sprintf("(%s, %d in %d files)", entry.Kind, entry.DefinitionCount, entry.FileCount),
			valueColor.Sprint(strings.Join(entry.Values, ", ")))
	}
}

func relative(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}
