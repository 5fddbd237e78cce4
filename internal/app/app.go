package app

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/orbital-hq/radar-go/internal/config"
	"github.com/orbital-hq/radar-go/internal/logger"
	"github.com/orbital-hq/radar-go/pkg/locate"
	"github.com/orbital-hq/radar-go/pkg/radar"
	"github.com/orbital-hq/radar-go/pkg/settings"
	"github.com/orbital-hq/radar-go/pkg/sinks"
)

// App wires the settings store, location provider, API client, and
// optional event sinks into the CLI runtime.
type App struct {
	cfg    *config.Config
	store  settings.Store
	client *radar.Client
	fanout *sinks.Fanout
}

// New builds the runtime from config.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	store, err := settings.NewStore(cfg.StoreType, cfg.BBoltPath)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}

	client := radar.New(radar.Options{
		Store:   store,
		Locator: buildLocator(cfg),
		Timeout: cfg.RequestTimeout,
		Logger:  logger.Obj{},
	})

	if err := client.Initialize(cfg.PublishableKey); err != nil {
		store.Close()
		return nil, fmt.Errorf("initialize client: %w", err)
	}
	if err := applySessionSettings(client, cfg); err != nil {
		store.Close()
		return nil, err
	}

	fanout, err := buildFanout(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		cfg:    cfg,
		store:  store,
		client: client,
		fanout: fanout,
	}, nil
}

// Close releases the settings store.
func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

func buildLocator(cfg *config.Config) locate.Provider {
	if cfg.TrackAddress != "" {
		return locate.NewAddressProvider(cfg.TrackAddress)
	}
	if cfg.TrackLatitude != 0 || cfg.TrackLongitude != 0 {
		return locate.Static(cfg.TrackLatitude, cfg.TrackLongitude, cfg.TrackAccuracy)
	}
	return nil
}

func applySessionSettings(client *radar.Client, cfg *config.Config) error {
	if cfg.Host != "" {
		if err := client.SetHost(cfg.Host); err != nil {
			return fmt.Errorf("set host: %w", err)
		}
	}
	if err := client.SetUserID(cfg.UserID); err != nil {
		return fmt.Errorf("set user id: %w", err)
	}
	if err := client.SetDescription(cfg.Description); err != nil {
		return fmt.Errorf("set description: %w", err)
	}
	if err := client.SetPlacesProvider(cfg.PlacesProvider); err != nil {
		return fmt.Errorf("set places provider: %w", err)
	}
	return nil
}

func buildFanout(ctx context.Context, cfg *config.Config) (*sinks.Fanout, error) {
	if cfg.SinksFile == "" {
		return nil, nil
	}

	reg, err := sinks.LoadRegistry(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}
	enabled := reg.Enabled()
	if len(enabled) == 0 {
		logger.WarnObj("sinks file has no enabled sinks", "sinks_file", cfg.SinksFile)
		return nil, nil
	}

	built, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), enabled, logger.Obj{})
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}
	logger.InfoObj("sinks registry loaded", "sinks", enabled)
	return sinks.NewFanout(built), nil
}

// Track reports the configured location once, forwards any returned
// events to the sinks, and renders the result.
func (a *App) Track(ctx context.Context, out io.Writer, asJSON bool) error {
	res, err := a.client.TrackOnce(ctx)
	if err != nil {
		return err
	}

	a.forwardEvents(ctx, res)

	if asJSON {
		return writeJSON(out, res.Raw)
	}

	table := newTable(out, "Field", "Value")
	table.Append([]string{"latitude", formatFloat(res.Position.Latitude)})
	table.Append([]string{"longitude", formatFloat(res.Position.Longitude)})
	table.Append([]string{"accuracy", formatFloat(res.Position.Accuracy)})
	table.Append([]string{"user", res.User.ID})
	table.Append([]string{"events", strconv.Itoa(len(res.Events))})
	table.Render()
	return nil
}

func (a *App) forwardEvents(ctx context.Context, res *radar.TrackResult) {
	if a.fanout == nil || a.fanout.Size() == 0 || len(res.Events) == 0 {
		return
	}

	for _, evt := range res.Events {
		delivered, err := a.fanout.Send(ctx, sinks.NewEnvelope(res.User.UserID, res.User.DeviceID, evt))
		if err != nil {
			logger.ErrorObj("event fanout failed", "fanout_error", map[string]any{
				"event_id":  evt.ID,
				"delivered": delivered,
				"error":     err.Error(),
			})
			continue
		}
		logger.DebugObj("event forwarded", "fanout_delivery", map[string]any{
			"event_id":  evt.ID,
			"delivered": delivered,
		})
	}
}

// Places searches for places near the configured location.
func (a *App) Places(ctx context.Context, out io.Writer, asJSON bool, params radar.SearchPlacesParams) error {
	res, err := a.client.SearchPlaces(ctx, params)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(out, res.Raw)
	}

	table := newTable(out, "Name", "Chain", "Categories")
	for _, p := range res.Places {
		chain := ""
		if p.Chain != nil {
			chain = p.Chain.Name
		}
		table.Append([]string{p.Name, chain, joinOrDash(p.Categories)})
	}
	table.Render()
	return nil
}

// Geofences searches for geofences near the configured location.
func (a *App) Geofences(ctx context.Context, out io.Writer, asJSON bool, params radar.SearchGeofencesParams) error {
	res, err := a.client.SearchGeofences(ctx, params)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(out, res.Raw)
	}

	table := newTable(out, "Tag", "External ID", "Description")
	for _, g := range res.Geofences {
		table.Append([]string{g.Tag, g.ExternalID, g.Description})
	}
	table.Render()
	return nil
}

// Geocode forward-geocodes a query.
func (a *App) Geocode(ctx context.Context, out io.Writer, asJSON bool, query string) error {
	res, err := a.client.Geocode(ctx, query)
	if err != nil {
		return err
	}
	return renderAddresses(out, asJSON, res)
}

// Reverse reverse-geocodes the configured location.
func (a *App) Reverse(ctx context.Context, out io.Writer, asJSON bool) error {
	res, err := a.client.ReverseGeocode(ctx)
	if err != nil {
		return err
	}
	return renderAddresses(out, asJSON, res)
}

// IP resolves the host's public IP to a country.
func (a *App) IP(ctx context.Context, out io.Writer, asJSON bool) error {
	res, err := a.client.IPGeocode(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(out, res.Raw)
	}

	table := newTable(out, "Code", "Name")
	table.Append([]string{res.Country.Code, res.Country.Name})
	table.Render()
	return nil
}

func renderAddresses(out io.Writer, asJSON bool, res *radar.GeocodeResult) error {
	if asJSON {
		return writeJSON(out, res.Raw)
	}

	table := newTable(out, "Address", "City", "Country", "Coordinates")
	for _, addr := range res.Addresses {
		coords := formatFloat(addr.Latitude) + "," + formatFloat(addr.Longitude)
		table.Append([]string{addr.FormattedAddress, addr.City, addr.Country, coords})
	}
	table.Render()
	return nil
}

func newTable(out io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(headers)
	table.SetRowLine(true)
	table.SetRowSeparator("-")
	return table
}

func writeJSON(out io.Writer, raw []byte) error {
	if _, err := out.Write(raw); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, err := io.WriteString(out, "\n")
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	out := values[0]
	for _, v := range values[1:] {
		out += ", " + v
	}
	return out
}
