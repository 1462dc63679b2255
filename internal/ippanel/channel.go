package ippanel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/ippanel-notify/internal/observability"
	"go.uber.org/zap"
)

// Settings carries the IPPanel account configuration.
type Settings struct {
	APIKey       string
	SenderNumber string
	// Endpoint is the API root that the send paths are appended to.
	Endpoint string
}

// FailurePolicy decides what Send does when IPPanel does not accept a message.
type FailurePolicy int

const (
	// FailurePolicyLogAndContinue logs the failure and returns nil.
	FailurePolicyLogAndContinue FailurePolicy = iota
	// FailurePolicyReturnError logs the failure and returns a *ProviderError.
	FailurePolicyReturnError
)

// Recorder receives one observation per dispatch.
type Recorder interface {
	ObserveDispatch(kind string, outcome string, duration time.Duration)
}

type Option func(*Channel)

func WithFailurePolicy(policy FailurePolicy) Option {
	return func(c *Channel) {
		c.policy = policy
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(c *Channel) {
		c.recorder = recorder
	}
}

// Result is the classified outcome of one dispatch.
type Result struct {
	Outcome    Outcome
	Kind       Kind
	Endpoint   string
	StatusCode int
	Response   string
	Request    map[string]any
	// Err is set for failed outcomes.
	Err error
}

// Channel delivers notifications through the IPPanel HTTP API. Each call
// performs at most one HTTP request; the channel keeps no state between calls.
type Channel struct {
	client   *resty.Client
	settings Settings
	logger   *zap.Logger
	policy   FailurePolicy
	recorder Recorder
}

func NewChannel(settings Settings, logger *zap.Logger, opts ...Option) (*Channel, error) {
	return NewChannelWithClient(settings, resty.New(), logger, opts...)
}

func NewChannelWithClient(settings Settings, client *resty.Client, logger *zap.Logger, opts ...Option) (*Channel, error) {
	normalized, err := normalizeSettings(settings)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client.SetRetryCount(0)

	c := &Channel{
		client:   client,
		settings: normalized,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func normalizeSettings(settings Settings) (Settings, error) {
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	settings.SenderNumber = strings.TrimSpace(settings.SenderNumber)
	settings.Endpoint = strings.TrimSpace(settings.Endpoint)

	if settings.APIKey == "" {
		return Settings{}, ErrAPIKeyMissing
	}
	if settings.SenderNumber == "" {
		return Settings{}, ErrSenderNumberMissing
	}
	if settings.Endpoint == "" {
		settings.Endpoint = DefaultEndpoint
	}

	parsed, err := url.ParseRequestURI(settings.Endpoint)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Settings{}, fmt.Errorf("%w: %q is not an absolute url", ErrInvalidEndpoint, settings.Endpoint)
	}

	return settings, nil
}

// Send delivers the notification to the target on a best-effort basis.
// Only misuse of the channel is reported; provider and network failures are
// logged and, under the default policy, not returned. Callers therefore
// cannot tell a delivered message from a failed one without the logs.
func (c *Channel) Send(ctx context.Context, target Notifiable, notification Notification) error {
	result, err := c.Dispatch(ctx, target, notification)
	if err != nil {
		return err
	}

	if c.policy == FailurePolicyReturnError && result.Outcome.Failed() {
		return result.Err
	}
	return nil
}

// Dispatch runs a send and returns its classified result.
func (c *Channel) Dispatch(ctx context.Context, target Notifiable, notification Notification) (Result, error) {
	if c == nil || c.client == nil {
		return Result{}, &StructuralError{Reason: "channel is not initialized"}
	}
	if target == nil {
		return Result{}, &StructuralError{Reason: "notifiable is required"}
	}
	if notification == nil {
		return Result{}, &StructuralError{Reason: "notification does not provide an ippanel message"}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	logger := observability.WithContextLogger(c.logger, ctx)

	msg := notification.ToIppanel(target)
	kind := msg.Kind()

	recipients := resolveRecipients(target.RouteNotificationForIppanel())
	if len(recipients) == 0 {
		logger.Info("ippanel notification skipped: no recipient found for notifiable",
			zap.String("kind", kind.String()),
		)
		result := Result{Outcome: OutcomeSkipped, Kind: kind}
		c.observe(result, start)
		return result, nil
	}

	req := buildRequest(c.settings, msg, recipients)
	result := c.do(ctx, logger, kind, req)
	c.observe(result, start)

	return result, nil
}

func (c *Channel) do(ctx context.Context, logger *zap.Logger, kind Kind, req dispatchRequest) Result {
	result := Result{
		Kind:     kind,
		Endpoint: req.Endpoint,
		Request:  req.Body,
	}
	logger = logger.With(
		zap.String("kind", kind.String()),
		zap.String("endpoint", req.Endpoint),
	)

	response, err := c.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetBody(req.Body).
		Post(req.Endpoint)
	if err != nil {
		logger.Error("ippanel sms sending exception",
			zap.String("message", err.Error()),
			zap.Error(err),
		)
		result.Outcome = OutcomeUnexpected
		result.Err = &ProviderError{
			Outcome:   OutcomeUnexpected,
			Message:   "ippanel request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
		return result
	}

	body := response.Body()
	result.StatusCode = response.StatusCode()
	result.Response = string(body)

	outcome, decoded := classifyResponse(result.StatusCode, body)
	result.Outcome = outcome

	switch outcome {
	case OutcomeAccepted:
		logger.Info("ippanel sms sent successfully", zap.Any("response", decoded))
	case OutcomeRejected:
		logger.Error("ippanel API reported non-OK status or non-200 code", responseField(decoded, body))
		result.Err = &ProviderError{
			Outcome:    OutcomeRejected,
			StatusCode: result.StatusCode,
			Message:    providerErrorMessage(result.StatusCode, body, decoded),
			Body:       result.Response,
		}
	case OutcomeTransportFailure:
		if result.StatusCode >= 200 && result.StatusCode < 300 {
			logger.Error("ippanel sms response body is not valid JSON",
				zap.Int("status", result.StatusCode),
				zap.String("response", result.Response),
				zap.Any("request_body", req.Body),
			)
		} else {
			logger.Error("ippanel sms sending failed due to HTTP status",
				zap.Int("status", result.StatusCode),
				zap.String("response", result.Response),
				zap.Any("request_body", req.Body),
			)
		}
		result.Err = &ProviderError{
			Outcome:    OutcomeTransportFailure,
			StatusCode: result.StatusCode,
			Message:    providerErrorMessage(result.StatusCode, body, decoded),
			Body:       result.Response,
			Transient:  isTransientHTTPStatus(result.StatusCode),
		}
	}

	return result
}

func (c *Channel) observe(result Result, start time.Time) {
	if c.recorder == nil {
		return
	}
	c.recorder.ObserveDispatch(result.Kind.String(), result.Outcome.String(), time.Since(start))
}

func responseField(decoded map[string]any, body []byte) zap.Field {
	if decoded != nil {
		return zap.Any("response", decoded)
	}
	return zap.String("response", string(body))
}
