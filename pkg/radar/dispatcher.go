package radar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/orbital-hq/radar-go/pkg/httpclient"
)

// Request describes one outbound API call. It is consumed once by
// Dispatch and holds no state afterwards.
type Request struct {
	Method string
	URL    string
	// Params become the query string on GET/DELETE and the JSON body
	// on PUT/POST. Values must be JSON primitives.
	Params  map[string]any
	Headers map[string]string
	// ResponseKey optionally names a top-level field of the parsed
	// body to deliver as the payload instead of the whole body.
	ResponseKey string
}

// Result is the single completion event of a dispatch. Payload and
// Body are set only when Status is Success: Body is the full parsed
// response, Payload is Body narrowed to ResponseKey when one was
// given (nil when the field is absent — that is not an error).
type Result struct {
	Status  Status
	Payload json.RawMessage
	Body    json.RawMessage
}

// Dispatcher issues one HTTP request per call and classifies the
// outcome. It holds no per-request state and is safe for concurrent
// use; concurrent dispatches are fully independent.
type Dispatcher struct {
	client httpclient.Client
}

// NewDispatcher wraps an HTTP client. A nil client gets a default
// resty transport with a 10 second timeout.
func NewDispatcher(client httpclient.Client) *Dispatcher {
	if client == nil {
		client = httpclient.NewRestyClient(10 * time.Second)
	}
	return &Dispatcher{client: client}
}

// Dispatch issues the request exactly once and returns exactly one
// Result. Nothing is retried and no error escapes as a Go panic or a
// non-Status failure: transport timeouts map to ErrNetwork, other
// transport errors to ErrServer, HTTP statuses via StatusForHTTP, and
// a 2xx body that is not valid JSON to ErrServer.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	reqURL := req.URL
	var body any
	switch req.Method {
	case http.MethodPut, http.MethodPost:
		if len(req.Params) > 0 {
			body = req.Params
		}
	default:
		if len(req.Params) > 0 {
			reqURL = appendQuery(reqURL, req.Params)
		}
	}

	resp, err := d.client.Do(ctx, req.Method, reqURL, req.Headers, body)
	if err != nil {
		return Result{Status: StatusForTransport(err)}
	}

	status := StatusForHTTP(resp.StatusCode())
	if status != Success {
		// Error bodies are discarded unparsed.
		return Result{Status: status}
	}

	parsed := bytes.TrimSpace(resp.Body())
	if !json.Valid(parsed) {
		// A 2xx response with a malformed body counts as a server
		// failure, not a distinct parse-error outcome.
		return Result{Status: ErrServer}
	}

	if req.ResponseKey == "" {
		return Result{Status: Success, Payload: parsed, Body: parsed}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(parsed, &fields); err != nil {
		// Non-object body: the named field cannot exist.
		return Result{Status: Success, Body: parsed}
	}
	return Result{Status: Success, Payload: fields[req.ResponseKey], Body: parsed}
}

// appendQuery URL-encodes params and appends them to rawURL.
func appendQuery(rawURL string, params map[string]any) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, paramString(v))
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + values.Encode()
}

// paramString renders a JSON primitive for use in a query string.
func paramString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
