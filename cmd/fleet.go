package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/routex/fleetlive/config"
	"github.com/routex/fleetlive/core/fleet"
	"github.com/routex/fleetlive/infra/geocode"
	"github.com/routex/fleetlive/infra/logger"
)

var fleetLocality string

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Generate and list a fleet for a locality",
	RunE:  runFleetLs,
}

func init() {
	fleetLsCmd.Flags().StringVarP(&fleetLocality, "locality", "l", "", "locality to generate for (defaults to the configured one)")
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	locality := fleetLocality
	if locality == "" {
		locality = cfg.Fleet.Locality
	}
	var resolver fleet.DestinationResolver
	if cfg.Geocode.Enabled {
		resolver = geocode.New(cfg.Geocode.Client(), logger.New("geocode"))
	}
	store := fleet.NewStore(cfg.Fleet.Store(), resolver, logger.New("fleet"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := store.Generate(ctx, locality, cfg.Fleet.Size)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d vehicles\n", snap.Locality, len(snap.Vehicles))
	for _, v := range snap.Vehicles {
		fmt.Printf("%s  %-16s %s -> %s  eta %dm  fare %.0f  seats %d  (%.4f, %.4f)\n",
			v.ID, v.DriverName, v.Route.Origin, v.Route.Destination,
			v.ETAMinutes, v.FareAmount, v.SeatsAvailable, v.Position.Lat, v.Position.Lng)
	}
	return nil
}
