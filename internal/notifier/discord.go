// Package notifier delivers detection events as Discord direct messages.
//
// Each delivery is two calls: open (or reuse) the DM channel with the
// recipient, then post the message into it. A 429 on either call waits for
// the server's Retry-After and repeats that same call; by default this
// repeats without limit. Any other failure ends the flow and is reported
// on the status.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
)

const (
	DefaultAPIBase        = "https://discord.com/api/v10"
	DefaultRequestTimeout = 15 * time.Second

	phaseOpenChannel = "create DM channel"
	phasePostMessage = "send message"

	userAgent       = "DiscordBot (https://github.com/EricMurray-e-m-dev/SoundMonkey, 1.0)"
	maxResponseSize = 1 << 20
)

// CredentialSource supplies the current bot token and recipient.
type CredentialSource interface {
	Credentials() models.Credentials
}

// StatusSink receives the outcome of each flow.
type StatusSink interface {
	Set(models.StatusMessage)
}

type Options struct {
	BaseURL             string
	RequestTimeout      time.Duration
	MaxRateLimitRetries int // caps 429 retries per flow, 0 retries forever
	HTTPClient          *http.Client
}

type Dispatcher struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	credentials CredentialSource
	reporter    StatusSink
	sleep       func(ctx context.Context, d time.Duration) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(opts Options, creds CredentialSource, reporter StatusSink) *Dispatcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAPIBase
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.RequestTimeout}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		baseURL:     opts.BaseURL,
		client:      client,
		maxRetries:  opts.MaxRateLimitRetries,
		credentials: creds,
		reporter:    reporter,
		sleep:       sleepContext,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Notify starts a delivery flow in the background and returns at once.
func (d *Dispatcher) Notify(event models.DetectionEvent) {
	if d.ctx.Err() != nil {
		log.Printf("Dispatcher closed, dropping notification for %s dB", models.FormatDecibels(event.DecibelLevel))
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.Deliver(d.ctx, event)
	}()
}

// Close cancels flows still waiting on the network or a retry delay and
// waits for them to finish.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

// Deliver runs one flow to completion and reports its outcome.
func (d *Dispatcher) Deliver(ctx context.Context, event models.DetectionEvent) error {
	attempt := models.NewDispatchAttempt(event)

	if err := d.deliver(ctx, attempt); err != nil {
		log.Printf("Failed to deliver notification (attempt %s): %v", attempt.ID, err)
		d.reporter.Set(models.DeliveryFailedStatus(event.DecibelLevel, err))
		return err
	}

	log.Printf("Message sent successfully (attempt %s, channel %s, rate limit retries %d)",
		attempt.ID, attempt.ChannelID, attempt.Retries)
	d.reporter.Set(models.DeliveredStatus(event.DecibelLevel))
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, attempt *models.DispatchAttempt) error {
	// Credentials are read once per flow; retries reuse them.
	creds := d.credentials.Credentials()
	if !creds.Complete() {
		return ErrMissingCredentials
	}

	channelID, err := d.openChannel(ctx, creds, attempt)
	if err != nil {
		return err
	}
	attempt.ChannelID = channelID

	return d.postMessage(ctx, creds, attempt)
}

func (d *Dispatcher) openChannel(ctx context.Context, creds models.Credentials, attempt *models.DispatchAttempt) (string, error) {
	payload := map[string]string{"recipient_id": creds.UserID}

	status, data, err := d.send(ctx, phaseOpenChannel, creds, "/users/@me/channels", payload, attempt)
	if err != nil {
		return "", err
	}

	if status != http.StatusOK && status != http.StatusCreated {
		return "", &RemoteError{Phase: phaseOpenChannel, StatusCode: status, Body: truncate(data)}
	}

	var channel struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &channel); err != nil {
		return "", fmt.Errorf("%w: parsing DM channel response: %v", ErrTransport, err)
	}
	if channel.ID == "" {
		return "", fmt.Errorf("%w: DM channel response has no id", ErrTransport)
	}

	return channel.ID, nil
}

func (d *Dispatcher) postMessage(ctx context.Context, creds models.Credentials, attempt *models.DispatchAttempt) error {
	payload := map[string]string{"content": MessageText(attempt.DecibelLevel)}
	path := "/channels/" + url.PathEscape(attempt.ChannelID) + "/messages"

	status, data, err := d.send(ctx, phasePostMessage, creds, path, payload, attempt)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		return &RemoteError{Phase: phasePostMessage, StatusCode: status, Body: truncate(data)}
	}

	return nil
}

// MessageText is the DM body for a detection.
func MessageText(level float64) string {
	return fmt.Sprintf("Detected sound with decibel level: %s dB", models.FormatDecibels(level))
}

// send posts payload to path, repeating the same call after each 429.
// It returns the first non-429 status and body.
func (d *Dispatcher) send(ctx context.Context, phase string, creds models.Credentials, path string, payload any, attempt *models.DispatchAttempt) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding %s request: %w", phase, err)
	}

	for {
		status, header, data, err := d.do(ctx, creds, path, body)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %s: %v", ErrTransport, phase, err)
		}

		if status != http.StatusTooManyRequests {
			return status, data, nil
		}

		delay, err := retryAfter(header, data)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: %w", phase, err)
		}

		attempt.Retries++
		if d.maxRetries > 0 && attempt.Retries > d.maxRetries {
			return 0, nil, fmt.Errorf("%s: %w (%d)", phase, ErrRateLimitExhausted, d.maxRetries)
		}

		log.Printf("Rate limited (%s), retry after %s (attempt %s, retry %d)", phase, delay, attempt.ID, attempt.Retries)

		if err := d.sleep(ctx, delay); err != nil {
			return 0, nil, fmt.Errorf("%s: waiting for rate limit: %w", phase, err)
		}
	}
}

func (d *Dispatcher) do(ctx context.Context, creds models.Credentials, path string, body []byte) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Authorization", "Bot "+creds.BotToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("reading response: %w", err)
	}

	return resp.StatusCode, resp.Header, data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(data []byte) string {
	const limit = 200
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
