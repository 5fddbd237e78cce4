// Package radartest provides an in-process fake of the Radar API for
// tests. It serves the /v1 surface with configurable fixtures, records
// every request it receives, and can force status codes per path.
package radartest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/gin-gonic/gin"
)

// Fixtures holds the canned payloads the server embeds in responses.
// Nil fields fall back to empty values of the right JSON shape.
type Fixtures struct {
	User      json.RawMessage
	Events    json.RawMessage
	Places    json.RawMessage
	Geofences json.RawMessage
	Addresses json.RawMessage
	Country   json.RawMessage
}

// Options configures a Server.
type Options struct {
	// PublishableKey, when set, is enforced: requests whose
	// Authorization header differs are rejected with 401.
	PublishableKey string
	Fixtures       Fixtures
}

// CapturedRequest is one request the server received.
type CapturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server is a running fake API. Close it when done.
type Server struct {
	URL string

	srv *httptest.Server

	mu        sync.Mutex
	requests  []CapturedRequest
	overrides map[string]int
	fixtures  Fixtures
	key       string
}

// New starts a fake API server.
func New(opts Options) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		overrides: make(map[string]int),
		fixtures:  opts.Fixtures,
		key:       opts.PublishableKey,
	}

	r := gin.New()
	r.Use(s.capture, s.auth)

	r.PUT("/v1/users/:id", func(c *gin.Context) {
		s.reply(c, gin.H{
			"user":   raw(s.fixture().User, `{}`),
			"events": raw(s.fixture().Events, `[]`),
		})
	})
	r.GET("/v1/places/search", func(c *gin.Context) {
		s.reply(c, gin.H{"places": raw(s.fixture().Places, `[]`)})
	})
	r.GET("/v1/geofences/search", func(c *gin.Context) {
		s.reply(c, gin.H{"geofences": raw(s.fixture().Geofences, `[]`)})
	})
	r.GET("/v1/geocode/forward", func(c *gin.Context) {
		s.reply(c, gin.H{"addresses": raw(s.fixture().Addresses, `[]`)})
	})
	r.GET("/v1/geocode/reverse", func(c *gin.Context) {
		s.reply(c, gin.H{"addresses": raw(s.fixture().Addresses, `[]`)})
	})
	r.GET("/v1/geocode/ip", func(c *gin.Context) {
		s.reply(c, gin.H{"country": raw(s.fixture().Country, `{}`)})
	})

	s.srv = httptest.NewServer(r)
	s.URL = s.srv.URL
	return s
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// SetStatus forces responses on path (e.g. "/v1/geocode/ip") to the
// given HTTP status with an empty body. A zero code clears the
// override.
func (s *Server) SetStatus(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == 0 {
		delete(s.overrides, path)
		return
	}
	s.overrides[path] = code
}

// SetFixtures replaces the canned payloads.
func (s *Server) SetFixtures(f Fixtures) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures = f
}

// Requests returns a copy of every captured request, in arrival order.
func (s *Server) Requests() []CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent captured request.
func (s *Server) LastRequest() (CapturedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return CapturedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) capture(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, CapturedRequest{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()

	c.Next()
}

func (s *Server) auth(c *gin.Context) {
	s.mu.Lock()
	key := s.key
	override, hasOverride := s.overrides[c.Request.URL.Path]
	s.mu.Unlock()

	if hasOverride {
		c.AbortWithStatus(override)
		return
	}
	if key != "" && c.GetHeader("Authorization") != key {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"meta": gin.H{"code": http.StatusUnauthorized},
		})
		return
	}
	c.Next()
}

func (s *Server) reply(c *gin.Context, body gin.H) {
	body["meta"] = gin.H{"code": http.StatusOK}
	c.JSON(http.StatusOK, body)
}

func (s *Server) fixture() Fixtures {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fixtures
}

// raw returns the fixture as embeddable JSON, defaulting when unset.
func raw(fixture json.RawMessage, def string) json.RawMessage {
	if len(fixture) == 0 {
		return json.RawMessage(def)
	}
	return fixture
}
