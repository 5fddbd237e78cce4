package radar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/orbital-hq/radar-go/pkg/device"
	"github.com/orbital-hq/radar-go/pkg/httpclient"
	"github.com/orbital-hq/radar-go/pkg/locate"
	"github.com/orbital-hq/radar-go/pkg/settings"
)

// Version is the SDK version reported to the API.
const Version = "1.2.0"

// deviceType matches the value the browser SDK reports; the API keys
// web-originated traffic off it.
const deviceType = "Web"

const (
	defaultTimeout     = 10 * time.Second
	defaultSearchLimit = 10
	maxSearchLimit     = 100
	defaultRadius      = 1000
)

// Position is a device coordinate fix.
type Position = locate.Position

// Options configures a Client. Zero values get working defaults: an
// in-memory settings store, no location provider (location-based calls
// then fail with ErrLocation), and a resty transport with a 10 second
// timeout.
type Options struct {
	Store      settings.Store
	Locator    locate.Provider
	HTTPClient httpclient.Client
	Timeout    time.Duration
	Logger     Logger
}

// Client calls the Radar API. It keeps no per-request state; session
// configuration lives in the settings store and is read fresh on every
// call.
type Client struct {
	store      settings.Store
	locator    locate.Provider
	dispatcher *Dispatcher
	log        Logger
}

// New builds a Client from options.
func New(opts Options) *Client {
	store := opts.Store
	if store == nil {
		store = settings.NewMemStore()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.NewRestyClient(timeout)
	}
	return &Client{
		store:      store,
		locator:    opts.Locator,
		dispatcher: NewDispatcher(httpClient),
		log:        ensureLogger(opts.Logger),
	}
}

// Initialize stores the publishable key for the session. An empty key
// is diagnosed here, once; individual calls will simply report
// ErrPublishableKey.
func (c *Client) Initialize(publishableKey string) error {
	publishableKey = strings.TrimSpace(publishableKey)
	if publishableKey == "" {
		c.log.WarnObj("initialize called without a publishable key", "publishable_key", "")
		return c.store.Delete(settings.KeyPublishableKey)
	}
	return c.store.Set(settings.KeyPublishableKey, publishableKey, false)
}

// SetHost overrides the API host permanently. An empty host restores
// the default.
func (c *Client) SetHost(host string) error {
	if strings.TrimSpace(host) == "" {
		return c.store.Delete(settings.KeyHost)
	}
	return c.store.Set(settings.KeyHost, strings.TrimRight(host, "/"), true)
}

// SetUserID associates subsequent track calls with a user id for the
// session. Empty clears it.
func (c *Client) SetUserID(userID string) error {
	return c.setSession(settings.KeyUserID, userID)
}

// SetDescription sets the user description for the session.
func (c *Client) SetDescription(description string) error {
	return c.setSession(settings.KeyDescription, description)
}

// SetPlacesProvider selects the places data provider for the session.
func (c *Client) SetPlacesProvider(provider string) error {
	return c.setSession(settings.KeyPlacesProvider, provider)
}

func (c *Client) setSession(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return c.store.Delete(key)
	}
	return c.store.Set(key, value, false)
}

// TrackOnce reports the current device location once and returns the
// resulting user state and events.
func (c *Client) TrackOnce(ctx context.Context) (*TrackResult, error) {
	key, ok := c.publishableKey()
	if !ok {
		return nil, ErrPublishableKey
	}
	pos, err := c.position(ctx)
	if err != nil {
		return nil, err
	}
	return c.trackOnce(ctx, key, pos)
}

// TrackOnceAt reports a caller-supplied location once.
func (c *Client) TrackOnceAt(ctx context.Context, pos Position) (*TrackResult, error) {
	key, ok := c.publishableKey()
	if !ok {
		return nil, ErrPublishableKey
	}
	return c.trackOnce(ctx, key, pos)
}

func (c *Client) trackOnce(ctx context.Context, key string, pos Position) (*TrackResult, error) {
	deviceID, err := device.ID(c.store)
	if err != nil {
		c.log.ErrorObj("device id unavailable", "track_error", err.Error())
		return nil, ErrUnknown
	}

	userID, _ := c.store.Get(settings.KeyUserID)
	description, _ := c.store.Get(settings.KeyDescription)
	placesProvider, ok := c.store.Get(settings.KeyPlacesProvider)
	if !ok || placesProvider == "" {
		placesProvider = "none"
	}

	target := userID
	if target == "" {
		target = deviceID
	}

	params := map[string]any{
		"accuracy":       pos.Accuracy,
		"description":    description,
		"deviceId":       deviceID,
		"deviceType":     deviceType,
		"foreground":     true,
		"latitude":       pos.Latitude,
		"longitude":      pos.Longitude,
		"placesProvider": placesProvider,
		"sdkVersion":     Version,
		"stopped":        true,
		"userAgent":      userAgent(),
		"userId":         userID,
	}

	res := c.dispatcher.Dispatch(ctx, Request{
		Method:  http.MethodPut,
		URL:     c.host() + "/v1/users/" + url.PathEscape(target),
		Params:  params,
		Headers: map[string]string{"Authorization": key},
	})
	if !res.Status.OK() {
		return nil, res.Status
	}

	var body struct {
		User   User    `json:"user"`
		Events []Event `json:"events"`
	}
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return nil, ErrServer
	}

	return &TrackResult{
		Position: pos,
		User:     body.User,
		Events:   body.Events,
		Raw:      res.Body,
	}, nil
}

// SearchPlacesParams bounds a places search. A nil Near uses the
// configured location provider.
type SearchPlacesParams struct {
	Near       *Position
	Radius     int
	Limit      int
	Chains     []string
	Categories []string
	Groups     []string
}

// SearchPlaces finds places near a location. Limit defaults to 10 and
// is capped at 100.
func (c *Client) SearchPlaces(ctx context.Context, p SearchPlacesParams) (*SearchPlacesResult, error) {
	key, ok := c.publishableKey()
	if !ok {
		return nil, ErrPublishableKey
	}
	pos, err := c.resolveNear(ctx, p.Near)
	if err != nil {
		return nil, err
	}

	radius := p.Radius
	if radius <= 0 {
		radius = defaultRadius
	}

	params := map[string]any{
		"latitude":  pos.Latitude,
		"longitude": pos.Longitude,
		"radius":    radius,
		"limit":     clampLimit(p.Limit),
	}
	addListParam(params, "chains", p.Chains)
	addListParam(params, "categories", p.Categories)
	addListParam(params, "groups", p.Groups)

	res := c.dispatcher.Dispatch(ctx, Request{
		Method:      http.MethodGet,
		URL:         c.host() + "/v1/places/search",
		Params:      params,
		Headers:     c.headers(key),
		ResponseKey: "places",
	})
	if !res.Status.OK() {
		return nil, res.Status
	}

	var places []Place
	if err := decodePayload(res.Payload, &places); err != nil {
		return nil, ErrServer
	}
	return &SearchPlacesResult{Places: places, Raw: res.Body}, nil
}

// SearchGeofencesParams bounds a geofence search.
type SearchGeofencesParams struct {
	Near  *Position
	Limit int
	Tags  []string
}

// SearchGeofences finds geofences near a location.
func (c *Client) SearchGeofences(ctx context.Context, p SearchGeofencesParams) (*SearchGeofencesResult, error) {
	key, ok := c.publishableKey()
	if !ok {
		return nil, ErrPublishableKey
	}
	pos, err := c.resolveNear(ctx, p.Near)
	if err != nil {
		return nil, err
	}

	params := map[string]any{
		"latitude":  pos.Latitude,
		"longitude": pos.Longitude,
		"limit":     clampLimit(p.Limit),
	}
	addListParam(params, "tags", p.Tags)

	res := c.dispatcher.Dispatch(ctx, Request{
		Method:      http.MethodGet,
		URL:         c.host() + "/v1/geofences/search",
		Params:      params,
		Headers:     c.headers(key),
		ResponseKey: "geofences",
	})
	if !res.Status.OK() {
		return nil, res.Status
	}

	var geofences []Geofence
	if err := decodePayload(res.Payload, &geofences); err != nil {
		return nil, ErrServer
	}
	return &SearchGeofencesResult{Geofences: geofences, Raw: res.Body}, nil
}

// Geocode forward-geocodes a free-form query into addresses.
func (c *Client) Geocode(ctx context.Context, query string) (*GeocodeResult, error) {
	key, ok := c.publishableKey()
	if !ok {
		return nil, ErrPublishableKey
	}

	res := c.dispatcher.Dispatch(ctx, Request{
		Method:      http.MethodGet,
		URL:         c.host() + "/v1/geocode/forward",
		Params:      map[string]any{"query": query},
		Headers:     c.headers(key),
		ResponseKey: "addresses",
	})
	return c.geocodeResult(res)
}

// ReverseGeocode reverse-geocodes the current device location.
func (c *Client) ReverseGeocode(ctx context.Context) (*GeocodeResult, error) {
	key, ok := c.publishableKey()
	if !ok {
		return nil, ErrPublishableKey
	}
	pos, err := c.position(ctx)
	if err != nil {
		return nil, err
	}
	return c.reverseGeocode(ctx, key, pos)
}

// ReverseGeocodeAt reverse-geocodes caller-supplied coordinates.
func (c *Client) ReverseGeocodeAt(ctx context.Context, pos Position) (*GeocodeResult, error) {
	key, ok := c.publishableKey()
	if !ok {
		return nil, ErrPublishableKey
	}
	return c.reverseGeocode(ctx, key, pos)
}

func (c *Client) reverseGeocode(ctx context.Context, key string, pos Position) (*GeocodeResult, error) {
	res := c.dispatcher.Dispatch(ctx, Request{
		Method: http.MethodGet,
		URL:    c.host() + "/v1/geocode/reverse",
		Params: map[string]any{
			"latitude":  pos.Latitude,
			"longitude": pos.Longitude,
		},
		Headers:     c.headers(key),
		ResponseKey: "addresses",
	})
	return c.geocodeResult(res)
}

func (c *Client) geocodeResult(res Result) (*GeocodeResult, error) {
	if !res.Status.OK() {
		return nil, res.Status
	}
	var addresses []Address
	if err := decodePayload(res.Payload, &addresses); err != nil {
		return nil, ErrServer
	}
	return &GeocodeResult{Addresses: addresses, Raw: res.Body}, nil
}

// IPGeocode resolves the calling host's public IP to a country.
func (c *Client) IPGeocode(ctx context.Context) (*IPGeocodeResult, error) {
	key, ok := c.publishableKey()
	if !ok {
		return nil, ErrPublishableKey
	}

	res := c.dispatcher.Dispatch(ctx, Request{
		Method:      http.MethodGet,
		URL:         c.host() + "/v1/geocode/ip",
		Headers:     c.headers(key),
		ResponseKey: "country",
	})
	if !res.Status.OK() {
		return nil, res.Status
	}

	var country Region
	if err := decodePayload(res.Payload, &country); err != nil {
		return nil, ErrServer
	}
	return &IPGeocodeResult{Country: country, Raw: res.Body}, nil
}

// publishableKey resolves the credential; every operation fails fast
// with ErrPublishableKey before touching the network when it is
// missing.
func (c *Client) publishableKey() (string, bool) {
	key, ok := c.store.Get(settings.KeyPublishableKey)
	if !ok || strings.TrimSpace(key) == "" {
		return "", false
	}
	return key, true
}

func (c *Client) host() string {
	if host, ok := c.store.Get(settings.KeyHost); ok && host != "" {
		return strings.TrimRight(host, "/")
	}
	return settings.DefaultHost
}

func (c *Client) headers(key string) map[string]string {
	return map[string]string{
		"Authorization":       key,
		"X-Radar-SDK-Version": Version,
		"X-Radar-Device-Type": deviceType,
	}
}

// position acquires coordinates from the configured provider and
// translates its failures into the status taxonomy.
func (c *Client) position(ctx context.Context) (Position, error) {
	if c.locator == nil {
		return Position{}, ErrLocation
	}
	pos, err := c.locator.Position(ctx)
	if err != nil {
		if errors.Is(err, locate.ErrPermissionDenied) {
			return Position{}, ErrPermissions
		}
		return Position{}, ErrLocation
	}
	return pos, nil
}

func (c *Client) resolveNear(ctx context.Context, near *Position) (Position, error) {
	if near != nil {
		return *near, nil
	}
	return c.position(ctx)
}

// clampLimit applies the search limit default and the API's hard cap.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

func addListParam(params map[string]any, key string, values []string) {
	if len(values) == 0 {
		return
	}
	params[key] = strings.Join(values, ",")
}

// decodePayload unmarshals a narrowed payload, treating an absent
// payload as the zero value.
func decodePayload(payload json.RawMessage, dst any) error {
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func userAgent() string {
	return fmt.Sprintf("radar-go/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}
