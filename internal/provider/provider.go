// Package provider holds the upstream weather provider adapters and the pure
// normalization logic that turns each provider's payload into the canonical
// snapshot/bucket shape.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"geowx/internal/model"
)

// Adapter is the capability set every provider variant implements. Both
// operations hit the variant's upstream endpoint and return a fully
// normalized record; cache interaction belongs to the orchestrator.
type Adapter interface {
	Source() string
	FetchWeather(ctx context.Context, lat, lng float64) (*model.WeatherSnapshot, *ProviderError)
	FetchForecast(ctx context.Context, lat, lng float64) (*model.ForecastBucket, *ProviderError)
}

// ProviderError reports a failed upstream interaction. When the upstream
// answered with a non-success status, RawBody carries its response verbatim
// so callers can surface provider-specific diagnostics unchanged. Transport
// failures (timeout, connection refused, open circuit) set Err instead.
type ProviderError struct {
	StatusCode int
	RawBody    json.RawMessage
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream call failed: %v", e.Err)
	}
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// upstreamResponse is the raw result of one upstream GET.
type upstreamResponse struct {
	status int
	body   []byte
}

// upstreamClient performs single-attempt upstream calls behind a circuit
// breaker. There is no retry loop: one failure is terminal for the request,
// the breaker only sheds load while upstream is degraded.
type upstreamClient struct {
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func newUpstreamClient(name string, httpClient *http.Client) *upstreamClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &upstreamClient{
		httpClient: httpClient,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// errUpstreamServer marks 5xx responses as breaker failures while still
// handing the body back for the ProviderError contract.
var errUpstreamServer = fmt.Errorf("upstream server error")

func (u *upstreamClient) get(ctx context.Context, url string) (*upstreamResponse, error) {
	v, err := u.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := u.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		ur := &upstreamResponse{status: resp.StatusCode, body: body}
		if resp.StatusCode >= http.StatusInternalServerError {
			return ur, errUpstreamServer
		}
		return ur, nil
	})
	ur, _ := v.(*upstreamResponse)
	if err != nil && ur == nil {
		return nil, err
	}
	return ur, nil
}

// fetchRaw runs the upstream call and collapses transport errors and
// non-success statuses into a ProviderError. On success, the raw 200 body is
// returned for normalization.
func (u *upstreamClient) fetchRaw(ctx context.Context, url string) ([]byte, *ProviderError) {
	ur, err := u.get(ctx, url)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	if ur.status != http.StatusOK {
		return nil, &ProviderError{StatusCode: ur.status, RawBody: ur.body}
	}
	return ur.body, nil
}
