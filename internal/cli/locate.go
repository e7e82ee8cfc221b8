package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheikhmt/taha-iss-tracker/internal/geo"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

// LocateOptions holds flags for the locate command.
type LocateOptions struct {
	*RootOptions
	RadiusKm float64
}

// locateResult is the resolved ground position for one epoch.
type locateResult struct {
	Epoch       string  `json:"epoch"`
	Time        string  `json:"time"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AltitudeKm  float64 `json:"altitude_km"`
	Geolocation string  `json:"geolocation"`
	SpeedKmS    float64 `json:"speed_km_s"`
}

// NewLocateCommand creates the locate command.
func NewLocateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LocateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "locate <epoch>",
		Short: "Resolve the ground position for one epoch",
		Long: `Resolve the geodetic position and nearest-place label for a single
state vector, identified by its raw epoch string.

Example:
  issctl locate 2024-052T12:00:00.000Z --file ISS.OEM_J2K_EPH.xml
  issctl locate 2024-052T12:00:00.000Z --radius-km 500 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.RadiusKm, "radius-km", geo.DefaultRadiusKm, "reverse-geocoding search radius")

	return cmd
}

func runLocate(opts *LocateOptions, epoch string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ds, err := loadDataset(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	sv, err := ds.FindEpoch(epoch)
	if err != nil {
		if errors.Is(err, oem.ErrEpochNotFound) {
			return fail(formatter, ExitFailure, "epoch_not_found",
				fmt.Sprintf("no state vector with epoch %q", epoch), nil)
		}
		return fail(formatter, ExitFailure, "query_failed", "epoch lookup failed", err)
	}

	conv, err := newConverter(opts.RadiusKm, formatter)
	if err != nil {
		return err
	}

	loc, err := conv.Locate(sv.Position, sv.Time)
	if err != nil {
		return fail(formatter, ExitFailure, "conversion_failed", "cannot resolve a ground position", err)
	}

	result := locateResult{
		Epoch:       sv.Epoch,
		Time:        sv.Time.Format(time.RFC3339),
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		AltitudeKm:  loc.AltitudeKm,
		Geolocation: loc.Geolocation,
		SpeedKmS:    sv.Speed(),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	printPosition(formatter, result)
	return nil
}

// newConverter builds the geodetic converter used by locate and now.
func newConverter(radiusKm float64, f *OutputFormatter) (*geo.Converter, error) {
	gaz, err := geo.NewGazetteer(radiusKm)
	if err != nil {
		return nil, fail(f, ExitCommandError, "geocoder_failed", "cannot load the place table", err)
	}
	return geo.NewConverter(gaz), nil
}

// printPosition renders the text form shared by locate and now.
func printPosition(f *OutputFormatter, r locateResult) {
	fmt.Fprintf(f.Writer, "Epoch:     %s (%s)\n", r.Epoch, r.Time)
	fmt.Fprintf(f.Writer, "Position:  %.4f, %.4f at %.2f km\n", r.Latitude, r.Longitude, r.AltitudeKm)
	fmt.Fprintf(f.Writer, "Speed:     %.4f km/s\n", r.SpeedKmS)
	fmt.Fprintf(f.Writer, "Over:      %s\n", r.Geolocation)
}
