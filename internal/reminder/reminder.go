// Package reminder talks to the external scheduling sink that fires
// follow-up reminders at their due time. Creation is fire-and-forget
// from the CRM's point of view: callers attach the job id on success
// and proceed regardless on failure.
package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/config"
	"github.com/sells-group/prospect-crm/internal/resilience"
)

// Sink creates a scheduled reminder and returns its opaque job id.
type Sink interface {
	CreateReminder(ctx context.Context, schedule, message string) (jobID string, err error)
}

// HTTPSink posts reminder requests to a cron-creation endpoint.
type HTTPSink struct {
	endpoint string
	client   *http.Client
	retry    resilience.RetryConfig
}

// NewHTTP creates a sink for the configured cron endpoint.
func NewHTTP(cfg config.IntegrationConfig) *HTTPSink {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSink{
		endpoint: cfg.CronEndpoint,
		client:   &http.Client{Timeout: timeout},
		retry:    resilience.DefaultRetryConfig(),
	}
}

type createRequest struct {
	Schedule string `json:"schedule"`
	Command  string `json:"command"`
	Message  string `json:"message"`
}

type createResponse struct {
	JobID string `json:"job_id"`
}

// CreateReminder posts the schedule and message, retrying transient
// failures, and returns the sink's job id.
func (s *HTTPSink) CreateReminder(ctx context.Context, schedule, message string) (string, error) {
	if s.endpoint == "" {
		return "", eris.New("reminder: no cron endpoint configured")
	}

	body, err := json.Marshal(createRequest{
		Schedule: schedule,
		Command:  "crm-followup-reminder",
		Message:  message,
	})
	if err != nil {
		return "", eris.Wrap(err, "reminder: marshal request")
	}

	jobID, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.post(ctx, body)
	})
	if err != nil {
		return "", err
	}

	zap.L().Info("reminder: created",
		zap.String("schedule", schedule),
		zap.String("job_id", jobID),
	)
	return jobID, nil
}

func (s *HTTPSink) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "reminder: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "reminder: post")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := eris.Errorf("reminder: endpoint returned %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(err, resp.StatusCode)
		}
		return "", err
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", eris.Wrap(err, "reminder: read response")
	}
	var out createResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", eris.Wrap(err, "reminder: decode response")
	}
	if out.JobID == "" {
		return "", eris.New("reminder: response missing job_id")
	}
	return out.JobID, nil
}
