// Package notify delivers evaluation callbacks with exponential backoff.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
)

// HTTPDoer lets tests substitute the HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds callback delivery settings.
type Config struct {
	Timeout      time.Duration // per attempt
	MaxAttempts  int
	InitialDelay time.Duration // doubles after each failed attempt
	HTTPClient   HTTPDoer
}

// Defaults fills missing optional fields.
func (c *Config) Defaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 6
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

// Notifier implements core.Notifier over plain HTTP POST.
type Notifier struct {
	cfg Config
	log *slog.Logger
}

// New builds a Notifier. If log is nil, slog.Default is used.
func New(cfg Config, log *slog.Logger) *Notifier {
	cfg.Defaults()
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{cfg: cfg, log: log}
}

// Notify posts the evaluation payload until the receiver answers 200 or the
// attempts run out. Any other status counts as a failure. There is no sleep
// after the final attempt.
func (n *Notifier) Notify(ctx context.Context, url string, ev core.Evaluation) core.Delivery {
	delay := n.cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		err := n.post(ctx, url, ev)
		if err == nil {
			return core.Delivery{Delivered: true, Attempts: attempt}
		}
		lastErr = err
		n.log.Warn("evaluation callback attempt failed",
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		if attempt == n.cfg.MaxAttempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return core.Delivery{Delivered: false, Attempts: attempt, Err: err}
		}
		delay *= 2
	}
	return core.Delivery{Delivered: false, Attempts: n.cfg.MaxAttempts, Err: lastErr}
}

func (n *Notifier) post(ctx context.Context, url string, ev core.Evaluation) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: callback returned %s", resp.Status)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
