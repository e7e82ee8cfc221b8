// Package cli implements the issctl operator command line.
//
// issctl works against a local copy of the ephemeris: an OEM XML file
// named with --file, or the newest document in the fetch cache. Only the
// fetch command touches the network, so every other command behaves the
// same on a laptop and in an air-gapped ops environment.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sheikhmt/taha-iss-tracker/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	File     string // local OEM document, overrides the cache
	CacheDir string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the issctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "issctl",
		Short: "issctl - ISS ephemeris toolbox",
		Long: `Operator tooling for the ISS tracker: download the OEM ephemeris,
inspect cached documents, and resolve spacecraft positions offline.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.File, "file", "", "read the ephemeris from a local OEM XML file instead of the cache")
	cmd.PersistentFlags().StringVar(&opts.CacheDir, "cache-dir", config.Default().Ephemeris.CacheDir, "ephemeris cache directory")

	// Add subcommands
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewEpochsCommand(opts))
	cmd.AddCommand(NewLocateCommand(opts))
	cmd.AddCommand(NewNowCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newFormatter wires a formatter to the command's output streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}
