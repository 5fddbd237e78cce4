package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different
// transports. A nil body issues a body-less request; a non-nil body is
// serialized as JSON.
type Client interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error)
}
