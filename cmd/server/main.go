package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"meter-route-planner/internal/config"
	"meter-route-planner/internal/database"
	"meter-route-planner/internal/geocoding"
	"meter-route-planner/internal/ingest"
	"meter-route-planner/internal/models"
	"meter-route-planner/internal/resolver"
	"meter-route-planner/internal/routing"
	"meter-route-planner/internal/server"
	"meter-route-planner/internal/session"
	"meter-route-planner/internal/sqlite"
)

const Version = "1.0.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "meter-route-planner",
		Short:         "Plan visiting routes for field meter technicians",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(serveCmd(&configPath), planCmd(&configPath))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meter-route-planner version %s\n", Version)
		},
	})

	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the planning HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	actualAddr, err := srv.Start()
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Printf("Listening on http://%s", actualAddr)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	log.Printf("Received signal %v, starting graceful shutdown", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not gracefully shutdown the server: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

type planOptions struct {
	File    string
	Lat     float64
	Lng     float64
	GeoJSON bool
	Out     string
	NoSaved bool
}

func planCmd(configPath *string) *cobra.Command {
	var opts planOptions

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a route for a survey workbook and print it",
		Long: `Plan reads a survey workbook, applies remembered meter positions,
drops rows that still have no position and prints the visiting order.

Without --lat/--lng the stops keep their workbook order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			var locations database.LocationRepository
			if !opts.NoSaved {
				store, err := sqlite.Open(cfg.Database.Path)
				if err != nil {
					return err
				}
				defer store.Close()
				locations = store.Locations()
			}

			originSet := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
			return runPlan(cmd.Context(), cfg, locations, opts, originSet, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Survey workbook (.xlsx)")
	cmd.Flags().Float64Var(&opts.Lat, "lat", 0, "Current latitude")
	cmd.Flags().Float64Var(&opts.Lng, "lng", 0, "Current longitude")
	cmd.Flags().BoolVar(&opts.GeoJSON, "geojson", false, "Print a GeoJSON FeatureCollection instead of JSON")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Write the route to this workbook instead of printing it")
	cmd.Flags().BoolVar(&opts.NoSaved, "no-saved", false, "Ignore remembered meter positions")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runPlan(ctx context.Context, cfg *config.Config, locations database.LocationRepository, opts planOptions, originSet bool, out io.Writer) error {
	f, err := os.Open(opts.File)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := ingest.ReadWorkbook(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.File, err)
	}

	normalizer, err := geocoding.NewNormalizer(cfg.Projection.Zone, cfg.Projection.Hemisphere)
	if err != nil {
		return err
	}
	stops := ingest.NewBuilder(normalizer, cfg.Ingest.Columns).BuildStops(rows)

	s := session.New(ctx, "cli", stops, session.Deps{
		Planner:    routing.NewClusterPlanner(cfg.Routing.ClusterRadiusKm, nil),
		Normalizer: normalizer,
		Locations:  locations,
		Thresholds: server.Thresholds(cfg),
	})

	if s.Resolver().State() == resolver.StateAwaitingInput {
		skipped, err := s.SkipAll()
		if err != nil {
			return err
		}
		log.Printf("Skipped %d stops without a position", len(skipped))
	}

	if originSet {
		if _, err := s.UpdateOrigin(models.GeoPoint{Lat: opts.Lat, Lng: opts.Lng}); err != nil {
			return fmt.Errorf("invalid current position: %w", err)
		}
	}

	switch {
	case opts.Out != "":
		w, err := os.Create(opts.Out)
		if err != nil {
			return err
		}
		if err := ingest.ExportRoute(w, s.Route()); err != nil {
			w.Close()
			return err
		}
		log.Printf("Wrote %d stops to %s", len(s.Route().Stops), opts.Out)
		return w.Close()
	case opts.GeoJSON:
		body, err := s.FeatureCollection().MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(body))
		return err
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Snapshot())
	}
}
