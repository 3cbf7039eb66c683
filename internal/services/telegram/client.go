package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tarpagad/yt2tg/internal/logging"
)

const userAgent = "yt2tg/0.1.0"

// HTTPDoer describes the HTTP client used by the delivery client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Audio describes one upload. Performer and DurationSeconds are optional:
// zero values are omitted from the request entirely, never sent as empty
// strings.
type Audio struct {
	FilePath        string
	ThumbnailPath   string
	Title           string
	Performer       string
	DurationSeconds int
	Caption         string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// WithSleeper injects the retry delay function (primarily for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// Client uploads audio messages through the Bot API.
type Client struct {
	baseURL       string
	token         string
	chatID        string
	retryAttempts int
	retryBase     time.Duration
	client        HTTPDoer
	sleep         func(context.Context, time.Duration) error
	logger        *slog.Logger
}

// New constructs a delivery client.
func New(baseURL, token, chatID string, uploadTimeoutSeconds, retryAttempts, retryBaseDelaySeconds int, logger *slog.Logger, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	chatID = strings.TrimSpace(chatID)
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("telegram token and chat id required")
	}
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	c := &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:         token,
		chatID:        chatID,
		retryAttempts: retryAttempts,
		retryBase:     time.Duration(retryBaseDelaySeconds) * time.Second,
		client:        &http.Client{Timeout: time.Duration(uploadTimeoutSeconds) * time.Second},
		sleep:         sleepContext,
		logger:        logging.NewComponentLogger(logger, "telegram"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// SendAudio uploads the audio with its metadata to the configured chat.
// A rate-limited response is retried with exponential backoff up to the
// configured attempt budget; every other failure is returned immediately.
// Ambiguous transport failures are not retried, so a successful call
// corresponds to exactly one message in the channel.
func (c *Client) SendAudio(ctx context.Context, audio Audio) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		lastErr = c.sendOnce(ctx, audio)
		if lastErr == nil {
			return nil
		}
		de, ok := AsDeliveryError(lastErr)
		if !ok || !de.Retryable() || attempt == c.retryAttempts {
			return lastErr
		}

		delay := c.retryBase << (attempt - 1)
		if de.RetryAfter > delay {
			delay = de.RetryAfter
		}
		c.logger.Warn("rate limited, backing off",
			logging.String(logging.FieldEventType, "delivery_rate_limited"),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) sendOnce(ctx context.Context, audio Audio) error {
	body, contentType, err := c.buildForm(audio)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendAudio", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return &DeliveryError{Reason: ReasonUnknown, Detail: "build request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return &DeliveryError{Reason: ReasonNetworkError, Detail: "send request", Err: err}
	}
	defer resp.Body.Close()

	return classifyResponse(resp)
}

func (c *Client) buildForm(audio Audio) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	form := multipart.NewWriter(buf)

	fields := map[string]string{
		"chat_id": c.chatID,
		"title":   audio.Title,
	}
	if audio.Caption != "" {
		// Captions are raw source URLs, so no parse_mode: Telegram would
		// reject unescaped markup characters in HTML or Markdown mode.
		fields["caption"] = audio.Caption
	}
	if audio.Performer != "" {
		fields["performer"] = audio.Performer
	}
	if audio.DurationSeconds > 0 {
		fields["duration"] = strconv.Itoa(audio.DurationSeconds)
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return nil, "", &DeliveryError{Reason: ReasonUnknown, Detail: "encode form field " + key, Err: err}
		}
	}

	if err := attachFile(form, "audio", audio.FilePath); err != nil {
		return nil, "", err
	}
	if audio.ThumbnailPath != "" {
		if err := attachFile(form, "thumbnail", audio.ThumbnailPath); err != nil {
			return nil, "", err
		}
	}

	if err := form.Close(); err != nil {
		return nil, "", &DeliveryError{Reason: ReasonUnknown, Detail: "finalize form", Err: err}
	}
	return buf, form.FormDataContentType(), nil
}

func attachFile(form *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return &DeliveryError{Reason: ReasonUnknown, Detail: "open " + field + " file", Err: err}
	}
	defer file.Close()

	part, err := form.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return &DeliveryError{Reason: ReasonUnknown, Detail: "create " + field + " part", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return &DeliveryError{Reason: ReasonUnknown, Detail: "copy " + field + " payload", Err: err}
	}
	return nil
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func classifyResponse(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &DeliveryError{Reason: ReasonNetworkError, Detail: "read response", Err: err}
	}

	var parsed apiResponse
	if jsonErr := json.Unmarshal(raw, &parsed); jsonErr == nil && parsed.OK {
		return nil
	}

	detail := strings.TrimSpace(parsed.Description)
	if detail == "" {
		detail = fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &DeliveryError{Reason: ReasonAuthError, Detail: detail}
	case http.StatusTooManyRequests:
		return &DeliveryError{
			Reason:     ReasonRateLimited,
			RetryAfter: time.Duration(parsed.Parameters.RetryAfter) * time.Second,
			Detail:     detail,
		}
	case http.StatusRequestEntityTooLarge:
		return &DeliveryError{Reason: ReasonPayloadTooLarge, Detail: detail}
	default:
		return &DeliveryError{Reason: ReasonUnknown, Detail: detail}
	}
}
