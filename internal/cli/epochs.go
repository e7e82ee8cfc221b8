package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

// EpochsOptions holds flags for the epochs command.
type EpochsOptions struct {
	*RootOptions
	Limit  int
	Offset int
}

// epochEntry mirrors the daemon's /epochs wire shape, plus the derived
// speed so operators can eyeball a listing without a calculator.
type epochEntry struct {
	Epoch       string     `json:"epoch"`
	Time        string     `json:"time"`
	PositionKm  [3]float64 `json:"position_km"`
	VelocityKmS [3]float64 `json:"velocity_km_s"`
	SpeedKmS    float64    `json:"speed_km_s"`
}

// epochsResult is one page of the epoch sequence.
type epochsResult struct {
	Total  int          `json:"total"`
	Offset int          `json:"offset"`
	Count  int          `json:"count"`
	Epochs []epochEntry `json:"epochs"`
}

// NewEpochsCommand creates the epochs command.
func NewEpochsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EpochsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "epochs",
		Short: "List state vectors in document order",
		Long: `List a window of the ephemeris state vectors in document order.

Example:
  issctl epochs --file ISS.OEM_J2K_EPH.xml --limit 20
  issctl epochs --offset 5740 --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEpochs(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "state vectors per page")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "state vectors to skip")

	return cmd
}

func runEpochs(opts *EpochsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ds, err := loadDataset(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	page, err := ds.Page(opts.Limit, opts.Offset)
	if err != nil {
		return fail(formatter, ExitCommandError, "bad_page", "invalid page window", err)
	}

	result := epochsResult{
		Total:  ds.Len(),
		Offset: opts.Offset,
		Count:  len(page),
		Epochs: make([]epochEntry, len(page)),
	}
	for i, sv := range page {
		result.Epochs[i] = epochEntry{
			Epoch:       sv.Epoch,
			Time:        sv.Time.Format(time.RFC3339),
			PositionKm:  [3]float64{sv.Position.X, sv.Position.Y, sv.Position.Z},
			VelocityKmS: [3]float64{sv.Velocity.X, sv.Velocity.Y, sv.Velocity.Z},
			SpeedKmS:    sv.Speed(),
		}
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%d state vectors, showing %d at offset %d\n\n", result.Total, result.Count, result.Offset)
	if result.Count == 0 {
		return nil
	}
	fmt.Fprintf(formatter.Writer, "%-26s  %-20s  %12s  %12s\n", "EPOCH", "UTC", "RADIUS KM", "SPEED KM/S")
	for _, e := range result.Epochs {
		radius := oem.Vector3{X: e.PositionKm[0], Y: e.PositionKm[1], Z: e.PositionKm[2]}.Norm()
		fmt.Fprintf(formatter.Writer, "%-26s  %-20s  %12.1f  %12.4f\n", e.Epoch, e.Time, radius, e.SpeedKmS)
	}
	return nil
}
