package radar_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/orbital-hq/radar-go/pkg/locate"
	"github.com/orbital-hq/radar-go/pkg/radar"
	"github.com/orbital-hq/radar-go/pkg/radartest"
	"github.com/orbital-hq/radar-go/pkg/settings"
)

const testKey = "prj_test_pk_0000"

type failingLocator struct {
	err error
}

func (f failingLocator) Position(context.Context) (locate.Position, error) {
	return locate.Position{}, f.err
}

func newTestClient(t *testing.T, srv *radartest.Server) (*radar.Client, settings.Store) {
	t.Helper()
	store := settings.NewMemStore()
	client := radar.New(radar.Options{
		Store:   store,
		Locator: locate.Static(40.7041, -73.9867, 65),
	})
	if err := client.Initialize(testKey); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := client.SetHost(srv.URL); err != nil {
		t.Fatalf("SetHost: %v", err)
	}
	return client, store
}

func TestTrackOnce(t *testing.T) {
	srv := radartest.New(radartest.Options{
		PublishableKey: testKey,
		Fixtures: radartest.Fixtures{
			User:   json.RawMessage(`{"_id":"u1","userId":"user-1","deviceId":"d1"}`),
			Events: json.RawMessage(`[{"_id":"e1","type":"user.entered_geofence","live":true,"confidence":2}]`),
		},
	})
	defer srv.Close()

	client, store := newTestClient(t, srv)
	if err := client.SetUserID("user-1"); err != nil {
		t.Fatalf("SetUserID: %v", err)
	}
	if err := client.SetDescription("test rig"); err != nil {
		t.Fatalf("SetDescription: %v", err)
	}

	res, err := client.TrackOnce(context.Background())
	if err != nil {
		t.Fatalf("TrackOnce: %v", err)
	}
	if res.User.ID != "u1" {
		t.Fatalf("user id = %s, want u1", res.User.ID)
	}
	if len(res.Events) != 1 || res.Events[0].Type != "user.entered_geofence" {
		t.Fatalf("events = %#v", res.Events)
	}
	if res.Position.Latitude != 40.7041 {
		t.Fatalf("position latitude = %f", res.Position.Latitude)
	}

	req, ok := srv.LastRequest()
	if !ok {
		t.Fatalf("server saw no request")
	}
	if req.Method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", req.Method)
	}
	if req.Path != "/v1/users/user-1" {
		t.Fatalf("path = %s, want /v1/users/user-1", req.Path)
	}
	if got := req.Header.Get("Authorization"); got != testKey {
		t.Fatalf("Authorization = %q", got)
	}

	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	for _, field := range []string{
		"accuracy", "description", "deviceId", "deviceType", "foreground",
		"latitude", "longitude", "placesProvider", "sdkVersion", "stopped",
		"userAgent", "userId",
	} {
		if _, ok := body[field]; !ok {
			t.Fatalf("track body missing field %q: %v", field, body)
		}
	}
	if body["deviceType"] != "Web" {
		t.Fatalf("deviceType = %v, want Web", body["deviceType"])
	}
	if body["foreground"] != true || body["stopped"] != true {
		t.Fatalf("foreground/stopped should both be true: %v", body)
	}
	if body["userId"] != "user-1" {
		t.Fatalf("userId = %v", body["userId"])
	}

	// deviceId must be stable: it was persisted on first use.
	deviceID, ok := store.Get(settings.KeyDeviceID)
	if !ok || body["deviceId"] != deviceID {
		t.Fatalf("deviceId %v not persisted in settings (%q)", body["deviceId"], deviceID)
	}
}

func TestTrackOnceFallsBackToDeviceID(t *testing.T) {
	srv := radartest.New(radartest.Options{PublishableKey: testKey})
	defer srv.Close()

	client, store := newTestClient(t, srv)

	if _, err := client.TrackOnce(context.Background()); err != nil {
		t.Fatalf("TrackOnce: %v", err)
	}

	deviceID, _ := store.Get(settings.KeyDeviceID)
	req, _ := srv.LastRequest()
	if req.Path != "/v1/users/"+deviceID {
		t.Fatalf("path = %s, want /v1/users/%s", req.Path, deviceID)
	}
}

func TestNoPublishableKeyNeverTouchesTheNetwork(t *testing.T) {
	srv := radartest.New(radartest.Options{PublishableKey: testKey})
	defer srv.Close()

	store := settings.NewMemStore()
	client := radar.New(radar.Options{
		Store:   store,
		Locator: locate.Static(1, 2, 3),
	})
	if err := client.SetHost(srv.URL); err != nil {
		t.Fatalf("SetHost: %v", err)
	}

	ctx := context.Background()
	if _, err := client.TrackOnce(ctx); !errors.Is(err, radar.ErrPublishableKey) {
		t.Fatalf("TrackOnce err = %v, want %s", err, radar.ErrPublishableKey)
	}
	if _, err := client.SearchPlaces(ctx, radar.SearchPlacesParams{}); !errors.Is(err, radar.ErrPublishableKey) {
		t.Fatalf("SearchPlaces err = %v, want %s", err, radar.ErrPublishableKey)
	}
	if _, err := client.Geocode(ctx, "20 jay st"); !errors.Is(err, radar.ErrPublishableKey) {
		t.Fatalf("Geocode err = %v, want %s", err, radar.ErrPublishableKey)
	}
	if _, err := client.IPGeocode(ctx); !errors.Is(err, radar.ErrPublishableKey) {
		t.Fatalf("IPGeocode err = %v, want %s", err, radar.ErrPublishableKey)
	}

	if got := len(srv.Requests()); got != 0 {
		t.Fatalf("server saw %d requests, want 0", got)
	}
}

func TestSearchPlacesQueryAndClamp(t *testing.T) {
	srv := radartest.New(radartest.Options{
		PublishableKey: testKey,
		Fixtures: radartest.Fixtures{
			Places: json.RawMessage(`[{"_id":"p1","name":"Starbucks","chain":{"slug":"starbucks","name":"Starbucks"}}]`),
		},
	})
	defer srv.Close()

	client, _ := newTestClient(t, srv)

	res, err := client.SearchPlaces(context.Background(), radar.SearchPlacesParams{
		Limit:  500,
		Chains: []string{"starbucks", "burger-king"},
	})
	if err != nil {
		t.Fatalf("SearchPlaces: %v", err)
	}
	if len(res.Places) != 1 || res.Places[0].Chain.Slug != "starbucks" {
		t.Fatalf("places = %#v", res.Places)
	}

	req, _ := srv.LastRequest()
	if req.Path != "/v1/places/search" {
		t.Fatalf("path = %s", req.Path)
	}
	if got := req.Query.Get("limit"); got != "100" {
		t.Fatalf("limit = %s, want 100 (clamped)", got)
	}
	if got := req.Query.Get("chains"); got != "starbucks,burger-king" {
		t.Fatalf("chains = %s", got)
	}
	for _, absent := range []string{"categories", "groups"} {
		if req.Query.Has(absent) {
			t.Fatalf("%s should be omitted when empty", absent)
		}
	}
	for _, header := range []string{"Authorization", "X-Radar-SDK-Version", "X-Radar-Device-Type"} {
		if req.Header.Get(header) == "" {
			t.Fatalf("missing header %s", header)
		}
	}
	if got := req.Header.Get("X-Radar-Device-Type"); got != "Web" {
		t.Fatalf("X-Radar-Device-Type = %s, want Web", got)
	}
}

func TestSearchPlacesDefaultLimit(t *testing.T) {
	srv := radartest.New(radartest.Options{PublishableKey: testKey})
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	if _, err := client.SearchPlaces(context.Background(), radar.SearchPlacesParams{}); err != nil {
		t.Fatalf("SearchPlaces: %v", err)
	}

	req, _ := srv.LastRequest()
	if got := req.Query.Get("limit"); got != "10" {
		t.Fatalf("limit = %s, want default 10", got)
	}
}

func TestSearchGeofences(t *testing.T) {
	srv := radartest.New(radartest.Options{
		PublishableKey: testKey,
		Fixtures: radartest.Fixtures{
			Geofences: json.RawMessage(`[{"_id":"g1","tag":"store","externalId":"store-42"}]`),
		},
	})
	defer srv.Close()

	client, _ := newTestClient(t, srv)

	res, err := client.SearchGeofences(context.Background(), radar.SearchGeofencesParams{
		Tags: []string{"store", "warehouse"},
	})
	if err != nil {
		t.Fatalf("SearchGeofences: %v", err)
	}
	if len(res.Geofences) != 1 || res.Geofences[0].ExternalID != "store-42" {
		t.Fatalf("geofences = %#v", res.Geofences)
	}

	req, _ := srv.LastRequest()
	if req.Path != "/v1/geofences/search" {
		t.Fatalf("path = %s", req.Path)
	}
	if got := req.Query.Get("tags"); got != "store,warehouse" {
		t.Fatalf("tags = %s", got)
	}
}

func TestGeocodeForward(t *testing.T) {
	srv := radartest.New(radartest.Options{
		PublishableKey: testKey,
		Fixtures: radartest.Fixtures{
			Addresses: json.RawMessage(`[{"formattedAddress":"20 Jay St, Brooklyn","city":"Brooklyn","latitude":40.7041,"longitude":-73.9867}]`),
		},
	})
	defer srv.Close()

	client, _ := newTestClient(t, srv)

	res, err := client.Geocode(context.Background(), "20 jay st brooklyn")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if len(res.Addresses) != 1 || res.Addresses[0].City != "Brooklyn" {
		t.Fatalf("addresses = %#v", res.Addresses)
	}

	req, _ := srv.LastRequest()
	if req.Path != "/v1/geocode/forward" {
		t.Fatalf("path = %s", req.Path)
	}
	if got := req.Query.Get("query"); got != "20 jay st brooklyn" {
		t.Fatalf("query = %s", got)
	}
}

func TestReverseGeocodeUsesLocator(t *testing.T) {
	srv := radartest.New(radartest.Options{PublishableKey: testKey})
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	if _, err := client.ReverseGeocode(context.Background()); err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}

	req, _ := srv.LastRequest()
	if req.Path != "/v1/geocode/reverse" {
		t.Fatalf("path = %s", req.Path)
	}
	if req.Query.Get("latitude") != "40.7041" || req.Query.Get("longitude") != "-73.9867" {
		t.Fatalf("coordinates = %v", req.Query)
	}
}

func TestIPGeocode(t *testing.T) {
	srv := radartest.New(radartest.Options{
		PublishableKey: testKey,
		Fixtures: radartest.Fixtures{
			Country: json.RawMessage(`{"code":"US","name":"United States","flag":"🇺🇸"}`),
		},
	})
	defer srv.Close()

	client, _ := newTestClient(t, srv)

	res, err := client.IPGeocode(context.Background())
	if err != nil {
		t.Fatalf("IPGeocode: %v", err)
	}
	if res.Country.Code != "US" {
		t.Fatalf("country = %#v", res.Country)
	}
}

func TestRateLimitedTrackReturnsStatusOnly(t *testing.T) {
	srv := radartest.New(radartest.Options{PublishableKey: testKey})
	defer srv.Close()
	srv.SetStatus("/v1/users/user-1", http.StatusTooManyRequests)

	client, _ := newTestClient(t, srv)
	if err := client.SetUserID("user-1"); err != nil {
		t.Fatalf("SetUserID: %v", err)
	}

	res, err := client.TrackOnce(context.Background())
	if !errors.Is(err, radar.ErrRateLimit) {
		t.Fatalf("err = %v, want %s", err, radar.ErrRateLimit)
	}
	if res != nil {
		t.Fatalf("result must be nil on error, got %#v", res)
	}
}

func TestWrongKeyIsUnauthorized(t *testing.T) {
	srv := radartest.New(radartest.Options{PublishableKey: "prj_other_key"})
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	if _, err := client.IPGeocode(context.Background()); !errors.Is(err, radar.ErrUnauthorized) {
		t.Fatalf("err = %v, want %s", err, radar.ErrUnauthorized)
	}
}

func TestLocationFailuresMapToStatus(t *testing.T) {
	srv := radartest.New(radartest.Options{PublishableKey: testKey})
	defer srv.Close()

	denied := radar.New(radar.Options{
		Store:   settings.NewMemStore(),
		Locator: failingLocator{err: locate.ErrPermissionDenied},
	})
	denied.Initialize(testKey)
	denied.SetHost(srv.URL)
	if _, err := denied.TrackOnce(context.Background()); !errors.Is(err, radar.ErrPermissions) {
		t.Fatalf("permission denied err = %v, want %s", err, radar.ErrPermissions)
	}

	unavailable := radar.New(radar.Options{
		Store:   settings.NewMemStore(),
		Locator: failingLocator{err: locate.ErrUnavailable},
	})
	unavailable.Initialize(testKey)
	unavailable.SetHost(srv.URL)
	if _, err := unavailable.TrackOnce(context.Background()); !errors.Is(err, radar.ErrLocation) {
		t.Fatalf("unavailable err = %v, want %s", err, radar.ErrLocation)
	}

	noLocator := radar.New(radar.Options{Store: settings.NewMemStore()})
	noLocator.Initialize(testKey)
	noLocator.SetHost(srv.URL)
	if _, err := noLocator.TrackOnce(context.Background()); !errors.Is(err, radar.ErrLocation) {
		t.Fatalf("nil locator err = %v, want %s", err, radar.ErrLocation)
	}

	if got := len(srv.Requests()); got != 0 {
		t.Fatalf("location failures must not reach the network, saw %d requests", got)
	}
}
