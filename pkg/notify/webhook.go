package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cfoust/dipwatch/pkg/diff"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var ErrWebhookStatus = fmt.Errorf("webhook returned an error status")

type webhookPayload struct {
	Content string `json:"content"`
}

// Webhook posts global diffs to a chat webhook as a bulleted list.
type Webhook struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewWebhook allows one request per interval with a small burst.
func NewWebhook(url string, timeout time.Duration, interval time.Duration) *Webhook {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Webhook{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 5),
	}
}

func formatContent(diffs []diff.Diff) string {
	lines := make([]string, len(diffs))
	for i, d := range diffs {
		lines[i] = "- " + d.Message
	}
	return strings.Join(lines, "\n")
}

func (w *Webhook) Deliver(ctx context.Context, diffs []diff.Diff) error {
	global := diff.OnlyGlobal(diffs)
	if len(global) == 0 {
		return nil
	}

	err := w.limiter.Wait(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(webhookPayload{Content: formatContent(global)})
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := w.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrWebhookStatus, response.StatusCode, strings.TrimSpace(string(detail)))
	}

	log.Debug().Int("diffs", len(global)).Msg("posted to webhook")
	return nil
}

var _ Sink = (*Webhook)(nil)
