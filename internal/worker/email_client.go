package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailClient calls the email service's POST /send through a circuit
// breaker. While the breaker is open calls fail with gobreaker.ErrOpenState
// without reaching the service.
type EmailClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

func NewEmailClient(baseURL string, client *http.Client, logger *slog.Logger) *EmailClient {
	settings := gobreaker.Settings{
		Name:        "email-service",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &EmailClient{
		baseURL:    baseURL,
		httpClient: client,
		cb:         gobreaker.NewCircuitBreaker(settings),
	}
}

func (c *EmailClient) Send(ctx context.Context, email Email) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, email)
	})
	return err
}

func (c *EmailClient) send(ctx context.Context, email Email) error {
	data, err := json.Marshal(email)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
