package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// inspectResult is the machine-readable document summary.
type inspectResult struct {
	Source     string            `json:"source"`
	LoadedAt   string            `json:"loaded_at"`
	EpochCount int               `json:"epoch_count"`
	EpochStart string            `json:"epoch_start,omitempty"`
	EpochEnd   string            `json:"epoch_end,omitempty"`
	Header     map[string]string `json:"header,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Comment    []string          `json:"comment,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the loaded ephemeris document",
		Long: `Print the provenance of the ephemeris: source, epoch coverage, and
the header and metadata blocks exactly as the producer wrote them.

Example:
  issctl inspect --file ISS.OEM_J2K_EPH.xml
  issctl inspect --cache-dir /tmp/oem --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ds, err := loadDataset(opts, formatter)
	if err != nil {
		return err
	}

	result := inspectResult{
		Source:     ds.Source,
		LoadedAt:   ds.LoadedAt.Format(time.RFC3339),
		EpochCount: ds.Len(),
		Header:     ds.Header,
		Metadata:   ds.Metadata,
		Comment:    ds.Comment,
	}
	if ds.Len() > 0 {
		result.EpochStart = ds.EpochRange.Min.Format(time.RFC3339)
		result.EpochEnd = ds.EpochRange.Max.Format(time.RFC3339)
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Source:   %s\n", result.Source)
	fmt.Fprintf(formatter.Writer, "Loaded:   %s\n", result.LoadedAt)
	if ds.Len() > 0 {
		fmt.Fprintf(formatter.Writer, "Epochs:   %d (%s to %s)\n", result.EpochCount, result.EpochStart, result.EpochEnd)
	} else {
		fmt.Fprintf(formatter.Writer, "Epochs:   0\n")
	}
	printSection(formatter, "Header", ds.Header)
	printSection(formatter, "Metadata", ds.Metadata)
	if len(ds.Comment) > 0 {
		fmt.Fprintf(formatter.Writer, "Comments:\n")
		for _, c := range ds.Comment {
			fmt.Fprintf(formatter.Writer, "  %s\n", c)
		}
	}
	return nil
}

// printSection renders a key-value block in sorted key order so the
// text output is stable across runs.
func printSection(f *OutputFormatter, label string, kv map[string]string) {
	if len(kv) == 0 {
		return
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(f.Writer, "%s:\n", label)
	for _, k := range keys {
		fmt.Fprintf(f.Writer, "  %s = %s\n", k, kv[k])
	}
}
