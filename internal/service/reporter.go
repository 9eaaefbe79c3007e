package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"solana-vend-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// reporterRetryIntervals bounds redelivery attempts for incident reports.
var reporterRetryIntervals = []time.Duration{
	5 * time.Second,
	30 * time.Second,
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPErrorReporter forwards incidents to an external error-tracking
// collector. Delivery is asynchronous and best-effort: failures are
// logged, never propagated to the request path.
type HTTPErrorReporter struct {
	endpoint   string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewHTTPErrorReporter creates a reporter posting to endpoint.
func NewHTTPErrorReporter(endpoint string, httpClient HTTPClient, log zerolog.Logger) *HTTPErrorReporter {
	return &HTTPErrorReporter{
		endpoint:   endpoint,
		httpClient: httpClient,
		log:        log,
	}
}

// Report enqueues an incident for delivery.
func (r *HTTPErrorReporter) Report(incident ports.Incident) {
	go r.deliver(incident)
}

func (r *HTTPErrorReporter) deliver(incident ports.Incident) {
	payload, err := json.Marshal(incident)
	if err != nil {
		r.log.Error().Err(err).Msg("errtrack: failed to marshal incident")
		return
	}

	for attempt := 0; attempt <= len(reporterRetryIntervals); attempt++ {
		if attempt > 0 {
			time.Sleep(reporterRetryIntervals[attempt-1])
		}

		req, err := http.NewRequest(http.MethodPost, r.endpoint, bytes.NewReader(payload))
		if err != nil {
			r.log.Error().Err(err).Msg("errtrack: failed to create request")
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			r.log.Warn().Err(err).Int("attempt", attempt+1).Msg("errtrack: delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return
		}
		r.log.Warn().Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("errtrack: non-2xx response, retrying")
	}

	r.log.Error().Str("path", incident.Path).Msg("errtrack: all delivery attempts exhausted")
}

// NopReporter discards incidents. Used when no collector is configured.
type NopReporter struct{}

// Report does nothing.
func (NopReporter) Report(ports.Incident) {}
