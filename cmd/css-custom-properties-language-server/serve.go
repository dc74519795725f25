package main

import (
	"fmt"

	"bennypowers.dev/cpls/lsp"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the Language Server Protocol over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

// runServe starts the language server. Configuration read here is the base
// that the workspace's package.json and the client's settings refine.
func runServe(cmd *cobra.Command, opts *options) error {
	root, err := opts.absRoot()
	if err != nil {
		return err
	}
	cfg, err := opts.load(cmd, root)
	if err != nil {
		return err
	}

	server, err := lsp.NewServer(lsp.WithFs(opts.fs), lsp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create LSP server: %w", err)
	}
	server.SetRoot("", root)

	if err := server.RunStdio(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
