package notify

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	"github.com/rotisserie/eris"

	"visitd/internal/providers"
)

// EventContext is what a sink gets alongside the region. The sink owns the
// message text.
type EventContext struct {
	ID          string    `json:"id"`
	Region      string    `json:"region"`
	Timestamp   time.Time `json:"timestamp"`
	FirstVisit  bool      `json:"firstVisit"`
	Method      string    `json:"method"`
	NewBadges   []string  `json:"newBadges,omitempty"`
	RegionCount int       `json:"regionCount"`
}

func NewEventContext(region string, ts time.Time) EventContext {
	return EventContext{ID: ulid.Make().String(), Region: region, Timestamp: ts}
}

type Notifier interface {
	Notify(ctx context.Context, region string, ec EventContext) error
}

// LogNotifier writes every approved notification to the app log.
type LogNotifier struct {
	logger providers.Logger
}

func NewLogNotifier(logger providers.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, region string, ec EventContext) error {
	badges := ""
	if len(ec.NewBadges) > 0 {
		badges = " badges=" + strings.Join(ec.NewBadges, ",")
	}
	n.logger.Infof(providers.TypeApp, "Welcome to %s (id=%s first=%t regions=%d%s)", region, ec.ID, ec.FirstVisit, ec.RegionCount, badges)
	return nil
}

type WebhookNotifier struct {
	url  string
	http *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{url: url, http: &http.Client{Timeout: timeout}}
}

func (n *WebhookNotifier) Notify(ctx context.Context, region string, ec EventContext) error {
	ec.Region = region
	body, err := json.Marshal(ec)
	if err != nil {
		return eris.Wrap(err, "notify: marshal event")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "notify: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Id", ec.ID)

	resp, err := n.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "notify: post %s", n.url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return eris.Errorf("notify: webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Multi delivers to every sink and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, region string, ec EventContext) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, region, ec); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return eris.Wrap(errors.Join(errs...), "notify")
}
