package gateway

import (
	"context"
	"net/http"
)

var forwardedHeaders = []string{"Content-Type", "Accept", "Authorization"}

type ServiceProxy struct {
	baseURL string
	client  *http.Client
}

func NewServiceProxy(baseURL string, client *http.Client) *ServiceProxy {
	return &ServiceProxy{
		baseURL: baseURL,
		client:  client,
	}
}

// ForwardRequest replays r against path on the proxied service, keeping the
// query string.
func (p *ServiceProxy) ForwardRequest(ctx context.Context, r *http.Request, path string) (*http.Response, error) {
	target := p.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return nil, err
	}

	for _, name := range forwardedHeaders {
		if value := r.Header.Get(name); value != "" {
			req.Header.Set(name, value)
		}
	}

	return p.client.Do(req)
}
