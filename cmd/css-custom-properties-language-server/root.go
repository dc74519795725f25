package main

import (
	"context"
	"fmt"
	"path/filepath"

	"bennypowers.dev/cpls/internal/config"
	"bennypowers.dev/cpls/internal/log"
	"bennypowers.dev/cpls/internal/version"
	"bennypowers.dev/cpls/internal/workspace"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every command
type options struct {
	root       string
	configFile string
	files      []string
	languages  []string
	logLevel   string

	fs afero.Fs
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithFs(afero.NewOsFs())
}

func newRootCmdWithFs(fs afero.Fs) *cobra.Command {
	opts := &options{fs: fs}

	cmd := &cobra.Command{
		Use:   "css-custom-properties-language-server",
		Short: "Language server for CSS custom properties",
		Long: `Indexes the custom properties declared and used across a workspace's
stylesheets and answers completion, definition and references requests.

Run without a command to serve the Language Server Protocol over stdio.`,
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.root, "root", ".", "workspace root")
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (.json, .yaml or .yml)")
	flags.StringSliceVar(&opts.files, "files", nil, "glob patterns selecting the stylesheets to index")
	flags.StringSliceVar(&opts.languages, "languages", nil, "editor language IDs to answer for")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(
		newServeCmd(opts),
		newIndexCmd(opts),
		newDefinitionsCmd(opts),
		newReferencesCmd(opts),
		newCompletionsCmd(opts),
	)
	return cmd
}

// absRoot resolves --root against the working directory
func (o *options) absRoot() (string, error) {
	root, err := filepath.Abs(o.root)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", o.root, err)
	}
	return root, nil
}

// load reads the configuration for root, with flags given on the command
// line taking precedence over every other source
func (o *options) load(cmd *cobra.Command, root string) (config.Config, error) {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("files") {
		overrides["files"] = o.files
	}
	if flags.Changed("languages") {
		overrides["languages"] = o.languages
	}
	if flags.Changed("log-level") {
		overrides["logLevel"] = o.logLevel
	}

	cfg, err := config.Load(config.LoadOptions{
		Fs:        o.fs,
		Root:      root,
		File:      o.configFile,
		Overrides: overrides,
	})
	if err != nil {
		return cfg, err
	}
	log.SetLevel(cfg.Level())
	return cfg, nil
}

// index loads the configuration and scans the workspace once
func (o *options) index(ctx context.Context, cmd *cobra.Command) (*workspace.Coordinator, config.Config, error) {
	root, err := o.absRoot()
	if err != nil {
		return nil, config.Config{}, err
	}
	cfg, err := o.load(cmd, root)
	if err != nil {
		return nil, cfg, err
	}
	if len(cfg.Files) == 0 {
		log.Warn("No file patterns configured; pass --files or set cssCustomProperties.files in package.json")
	}

	ws := workspace.New(o.fs, root)
	if err := ws.Bootstrap(ctx, cfg.Files); err != nil {
		return nil, cfg, err
	}
	return ws, cfg, nil
}
