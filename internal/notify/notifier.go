package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/lca-sweep/internal/sweep"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/utils"
)

// SecretHeader carries the shared callback secret
const SecretHeader = "X-LCA-Sweep-Callback-Secret"

var (
	ErrInvalidURL       = errors.New("invalid callback url")
	ErrMetadataEndpoint = errors.New("callback url targets a cloud metadata endpoint")
	ErrInternalHost     = errors.New("callback url targets an internal address")
)

// Sweep statuses reported to the callback
const (
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
	StatusCancelled           = "cancelled"
	StatusFailed              = "failed"
)

// SweepSummary is the JSON payload posted to the callback URL
type SweepSummary struct {
	SweepID         string `json:"sweep_id"`
	Name            string `json:"name,omitempty"`
	Status          string `json:"status"`
	StartedAtUnixMs int64  `json:"started_at_unix_ms"`
	EndedAtUnixMs   int64  `json:"ended_at_unix_ms"`
	Groups          int    `json:"groups"`
	Planned         int    `json:"planned"`
	Completed       int    `json:"completed"`
	Failed          int    `json:"failed"`
	Skipped         int    `json:"skipped"`
	Error           string `json:"error,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}

// SummaryFromReport builds the payload for a finished sweep. runErr is the
// error returned alongside the report, if any.
func SummaryFromReport(report *sweep.Report, runErr error) SweepSummary {
	s := SweepSummary{Status: StatusCompleted}
	if report != nil {
		s.SweepID = report.SweepID
		s.Name = report.Name
		s.StartedAtUnixMs = report.StartedAt.UTC().UnixMilli()
		s.EndedAtUnixMs = report.FinishedAt.UTC().UnixMilli()
		s.Groups = len(report.Groups)
		s.Planned, s.Completed, s.Failed, s.Skipped = report.Totals()
	}

	switch {
	case report != nil && report.Cancelled:
		s.Status = StatusCancelled
	case runErr != nil:
		var genErr *sweep.ConfigGenerationError
		if errors.As(runErr, &genErr) {
			s.Status = StatusCompletedWithErrors
		} else {
			s.Status = StatusFailed
		}
	case s.Failed > 0 || s.Skipped > 0:
		s.Status = StatusCompletedWithErrors
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	return s
}

// Notifier posts sweep summaries to a webhook
type Notifier struct {
	httpClient *http.Client
	maxRetries int
	backoff    utils.BackoffStrategy
}

// NewNotifier creates a notifier with 3 retries and exponential backoff
func NewNotifier() *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: 3,
		backoff:    utils.BackoffFromConfig(utils.BackoffExponential, 1000, 30000),
	}
}

// Notify posts summary to callbackURL, retrying failed attempts. An empty
// URL is a no-op. "{sweep_id}" in the URL is replaced with the sweep id.
func (n *Notifier) Notify(ctx context.Context, callbackURL, callbackSecret string, summary SweepSummary) error {
	if callbackURL == "" {
		return nil
	}
	finalURL := strings.ReplaceAll(callbackURL, "{sweep_id}", url.PathEscape(summary.SweepID))
	if err := validateCallbackURL(finalURL); err != nil {
		return err
	}

	summary.Timestamp = time.Now().UTC().UnixMilli()
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.backoff.NextDelay(attempt)
			logger.Debug("retrying notification",
				"callback_url", finalURL,
				"sweep_id", summary.SweepID,
				"attempt", attempt,
				"delay", delay)
			if err := utils.Sleep(ctx, delay); err != nil {
				return fmt.Errorf("notification cancelled: %w", err)
			}
		}

		lastErr = n.send(ctx, finalURL, callbackSecret, payload)
		if lastErr == nil {
			logger.Info("notification sent",
				"sweep_id", summary.SweepID,
				"status", summary.Status)
			return nil
		}
		logger.Warn("notification attempt failed",
			"callback_url", finalURL,
			"sweep_id", summary.SweepID,
			"attempt", attempt+1,
			"error", lastErr)
	}

	return fmt.Errorf("failed to send notification after %d attempts: %w", n.maxRetries+1, lastErr)
}

func (n *Notifier) send(ctx context.Context, callbackURL, callbackSecret string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "lca-sweep/1.0")
	if callbackSecret != "" {
		req.Header.Set(SecretHeader, callbackSecret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// validateCallbackURL rejects URLs that would let a sweep request reach
// metadata services or raw internal addresses. "localhost" is allowed for
// development.
func validateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	lower := strings.ToLower(host)
	if lower == "metadata.google.internal" || lower == "metadata" {
		return ErrMetadataEndpoint
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.Equal(net.IPv4(169, 254, 169, 254)) {
			return ErrMetadataEndpoint
		}
		if ip.IsUnspecified() || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("%w: %s", ErrInternalHost, host)
		}
	}
	return nil
}
