package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v5"
	crerr "github.com/cockroachdb/errors"
	"github.com/gilangnh/matchday/internal/platform/logging"
	"github.com/gilangnh/matchday/internal/platform/resilience"
)

const defaultBaseURL = "https://api.telegram.org"

var errTelegramTransient = crerr.New("telegram transient failure")

type Config struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	ChannelID      string
	PersonalChatID string
	HeartbeatText  string
	MaxRetries     int
	RetryDelay     time.Duration
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Sender delivers pre-formatted messages over the Telegram Bot API.
// Delivery is best-effort: failures are retried a bounded number of times
// with a fixed delay, then logged and swallowed into the returned error,
// which callers are free to ignore.
type Sender struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	channelID      string
	personalChatID string
	heartbeatText  string
	maxRetries     int
	retryDelay     time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

type sendMessagePayload struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode"`
	DisableNotification bool   `json:"disable_notification"`
}

func NewSender(cfg Config) *Sender {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 5
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}

	heartbeatText := strings.TrimSpace(cfg.HeartbeatText)
	if heartbeatText == "" {
		heartbeatText = "💓 matchday heartbeat"
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Sender{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		channelID:      strings.TrimSpace(cfg.ChannelID),
		personalChatID: strings.TrimSpace(cfg.PersonalChatID),
		heartbeatText:  heartbeatText,
		maxRetries:     maxRetries,
		retryDelay:     retryDelay,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// Broadcast sends each message to the public channel, in order. A failed
// message does not stop the rest; the last failure is returned for logging.
func (s *Sender) Broadcast(ctx context.Context, messages ...string) error {
	var lastErr error
	for _, message := range messages {
		if err := s.send(ctx, s.channelID, message, false); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Personal sends one message to the operator's private chat.
func (s *Sender) Personal(ctx context.Context, message string) error {
	if s.personalChatID == "" {
		return nil
	}
	return s.send(ctx, s.personalChatID, message, false)
}

// Heartbeat sends a silent liveness ping to the operator's private chat.
func (s *Sender) Heartbeat(ctx context.Context) error {
	if s.personalChatID == "" {
		return nil
	}
	return s.send(ctx, s.personalChatID, s.heartbeatText, true)
}

func (s *Sender) send(ctx context.Context, chatID, text string, silent bool) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if chatID == "" {
		return crerr.New("chat id is required")
	}

	for _, part := range SplitMessage(text, MaxMessageRunes) {
		if err := s.sendPart(ctx, chatID, part, silent); err != nil {
			s.logger.ErrorContext(ctx, "telegram delivery gave up",
				"chat_id", chatID, "length", len(part), "error", err)
			return err
		}
	}
	return nil
}

func (s *Sender) sendPart(ctx context.Context, chatID, text string, silent bool) error {
	if s.circuitEnabled {
		if err := s.breaker.Allow(); err != nil {
			s.logger.WarnContext(ctx, "telegram circuit breaker rejected send", "state", s.breaker.State())
			return fmt.Errorf("telegram is temporarily unavailable: %w", err)
		}
	}

	body, err := sonic.Marshal(sendMessagePayload{
		ChatID:              chatID,
		Text:                text,
		ParseMode:           "Markdown",
		DisableNotification: silent,
	})
	if err != nil {
		return crerr.Wrap(err, "marshal sendMessage payload")
	}

	sendURL := s.baseURL + "/bot" + s.token + "/sendMessage"

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.postOnce(ctx, sendURL, body)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(s.retryDelay)),
		backoff.WithMaxTries(uint(s.maxRetries)),
	)

	if s.circuitEnabled {
		if err != nil && crerr.Is(err, errTelegramTransient) {
			s.breaker.RecordFailure()
		} else {
			s.breaker.RecordSuccess()
		}
	}
	return err
}

func (s *Sender) postOnce(ctx context.Context, sendURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, strings.NewReader(string(body)))
	if err != nil {
		return backoff.Permanent(crerr.Wrap(err, "create sendMessage request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send request: %v", errTelegramTransient, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: telegram status=%d", errTelegramTransient, resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("telegram status=%d", resp.StatusCode))
	}
}
