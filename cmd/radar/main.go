package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/orbital-hq/radar-go/internal/app"
	"github.com/orbital-hq/radar-go/internal/config"
	"github.com/orbital-hq/radar-go/internal/logger"
	"github.com/orbital-hq/radar-go/pkg/radar"
)

const usage = `usage: radar <command> [flags]

commands:
  track      report the configured location once
  places     search places near the configured location
  geofences  search geofences near the configured location
  geocode    forward-geocode a query
  reverse    reverse-geocode the configured location
  ip         resolve the host's public IP to a country
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "radar: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}
	command, args := os.Args[1], os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runtime, err := app.New(ctx, cfg)
	if err != nil {
		logger.ErrorObj("failed to initialize runtime", "error", err)
		return err
	}
	defer runtime.Close()

	return dispatch(ctx, runtime, command, args)
}

func dispatch(ctx context.Context, runtime *app.App, command string, args []string) error {
	switch command {
	case "track":
		fs := flag.NewFlagSet("track", flag.ExitOnError)
		asJSON := fs.Bool("json", false, "print the raw response")
		fs.Parse(args)
		return runtime.Track(ctx, os.Stdout, *asJSON)

	case "places":
		fs := flag.NewFlagSet("places", flag.ExitOnError)
		asJSON := fs.Bool("json", false, "print the raw response")
		radius := fs.Int("radius", 0, "search radius in meters")
		limit := fs.Int("limit", 0, "maximum results")
		chains := fs.String("chains", "", "comma-separated chain slugs")
		categories := fs.String("categories", "", "comma-separated categories")
		groups := fs.String("groups", "", "comma-separated groups")
		fs.Parse(args)
		return runtime.Places(ctx, os.Stdout, *asJSON, radar.SearchPlacesParams{
			Radius:     *radius,
			Limit:      *limit,
			Chains:     splitList(*chains),
			Categories: splitList(*categories),
			Groups:     splitList(*groups),
		})

	case "geofences":
		fs := flag.NewFlagSet("geofences", flag.ExitOnError)
		asJSON := fs.Bool("json", false, "print the raw response")
		limit := fs.Int("limit", 0, "maximum results")
		tags := fs.String("tags", "", "comma-separated geofence tags")
		fs.Parse(args)
		return runtime.Geofences(ctx, os.Stdout, *asJSON, radar.SearchGeofencesParams{
			Limit: *limit,
			Tags:  splitList(*tags),
		})

	case "geocode":
		fs := flag.NewFlagSet("geocode", flag.ExitOnError)
		asJSON := fs.Bool("json", false, "print the raw response")
		fs.Parse(args)
		query := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if query == "" {
			return fmt.Errorf("geocode requires a query")
		}
		return runtime.Geocode(ctx, os.Stdout, *asJSON, query)

	case "reverse":
		fs := flag.NewFlagSet("reverse", flag.ExitOnError)
		asJSON := fs.Bool("json", false, "print the raw response")
		fs.Parse(args)
		return runtime.Reverse(ctx, os.Stdout, *asJSON)

	case "ip":
		fs := flag.NewFlagSet("ip", flag.ExitOnError)
		asJSON := fs.Bool("json", false, "print the raw response")
		fs.Parse(args)
		return runtime.IP(ctx, os.Stdout, *asJSON)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
