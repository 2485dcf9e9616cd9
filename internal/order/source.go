package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Source fetches order snapshots from the commerce platform.
type Source interface {
	Get(ctx context.Context, id int) (Order, error)
}

// HTTPSource reads orders from the platform's REST API. Transient
// failures are retried briefly; 4xx responses are not.
type HTTPSource struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func (s *HTTPSource) Get(ctx context.Context, id int) (Order, error) {
	var out Order
	op := backoff.NewExponentialBackOff()
	op.MaxElapsedTime = 5 * time.Second

	err := backoff.Retry(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, fmt.Sprintf("%s/orders/%d", s.Endpoint, id), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if s.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.APIKey)
		}

		client := s.Client
		if client == nil {
			client = &http.Client{Timeout: 5 * time.Second}
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("commerce api temporary error: %s", resp.Status)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("commerce api permanent error: %s", resp.Status))
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode order %d: %w", id, err))
		}
		return nil
	}, op)
	if err != nil {
		return Order{}, err
	}
	return out, nil
}
