package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/ippanel-notify/internal/ippanel"
	"github.com/kursadbilgin/ippanel-notify/internal/observability"
	"golang.org/x/sync/errgroup"
)

const (
	maxBatchSize            = 1000
	defaultBatchConcurrency = 8
)

var ErrValidation = errors.New("validation error")

// Dispatcher is the part of ippanel.Channel the HTTP layer depends on.
type Dispatcher interface {
	Send(ctx context.Context, target ippanel.Notifiable, notification ippanel.Notification) error
}

type SMSHandler struct {
	dispatcher       Dispatcher
	batchConcurrency int
}

func NewSMSHandler(dispatcher Dispatcher, batchConcurrency int) (*SMSHandler, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("sms dispatcher is required")
	}
	if batchConcurrency < 1 {
		batchConcurrency = defaultBatchConcurrency
	}
	return &SMSHandler{dispatcher: dispatcher, batchConcurrency: batchConcurrency}, nil
}

func RegisterSMSRoutes(router fiber.Router, dispatcher Dispatcher, batchConcurrency int) error {
	h, err := NewSMSHandler(dispatcher, batchConcurrency)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/sms", h.SendSMS)
	v1.Post("/sms/batch", h.SendBatch)

	return nil
}

type sendSMSRequest struct {
	Kind        string            `json:"kind"`
	Recipient   string            `json:"recipient"`
	Recipients  []string          `json:"recipients"`
	Text        string            `json:"text"`
	Sender      string            `json:"sender"`
	PatternCode string            `json:"patternCode"`
	Variables   map[string]string `json:"variables"`
	ScheduledAt string            `json:"scheduledAt"`
}

type sendBatchRequest struct {
	Messages []sendSMSRequest `json:"messages"`
}

type sendSMSResponse struct {
	Status        string `json:"status"`
	CorrelationID string `json:"correlationId,omitempty"`
}

type batchItemResponse struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type sendBatchResponse struct {
	CorrelationID string              `json:"correlationId,omitempty"`
	TotalCount    int                 `json:"totalCount"`
	Items         []batchItemResponse `json:"items"`
}

const (
	statusDispatched = "dispatched"
	statusFailed     = "failed"
)

// smsDelivery pairs a validated request with its IPPanel message. It serves
// as both the notifiable and the notification for one send.
type smsDelivery struct {
	recipients ippanel.Route
	message    ippanel.Message
}

func (d smsDelivery) RouteNotificationForIppanel() ippanel.Route {
	return d.recipients
}

func (d smsDelivery) ToIppanel(ippanel.Notifiable) ippanel.Message {
	return d.message
}

func (h *SMSHandler) SendSMS(c *fiber.Ctx) error {
	var req sendSMSRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	delivery, err := requestToDelivery(req)
	if err != nil {
		return toHTTPError(err)
	}

	correlationID := requestCorrelationID(c)
	ctx := observability.WithCorrelationID(c.UserContext(), correlationID)

	if err := h.dispatcher.Send(ctx, delivery, delivery); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(sendSMSResponse{
		Status:        statusDispatched,
		CorrelationID: correlationID,
	})
}

func (h *SMSHandler) SendBatch(c *fiber.Ctx) error {
	var req sendBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Messages) == 0 {
		return toHTTPError(fmt.Errorf("%w: messages is required", ErrValidation))
	}
	if len(req.Messages) > maxBatchSize {
		return toHTTPError(fmt.Errorf("%w: batch size exceeds %d", ErrValidation, maxBatchSize))
	}

	deliveries := make([]smsDelivery, 0, len(req.Messages))
	for i, item := range req.Messages {
		delivery, err := requestToDelivery(item)
		if err != nil {
			return toHTTPError(fmt.Errorf("messages[%d]: %w", i, err))
		}
		deliveries = append(deliveries, delivery)
	}

	correlationID := requestCorrelationID(c)
	ctx := observability.WithCorrelationID(c.UserContext(), correlationID)

	items := make([]batchItemResponse, len(deliveries))
	var g errgroup.Group
	g.SetLimit(h.batchConcurrency)
	for i, delivery := range deliveries {
		g.Go(func() error {
			item := batchItemResponse{Index: i, Status: statusDispatched}
			if err := h.dispatcher.Send(ctx, delivery, delivery); err != nil {
				item.Status = statusFailed
				item.Error = err.Error()
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	return c.Status(fiber.StatusAccepted).JSON(sendBatchResponse{
		CorrelationID: correlationID,
		TotalCount:    len(items),
		Items:         items,
	})
}

func requestToDelivery(req sendSMSRequest) (smsDelivery, error) {
	numbers := append([]string{req.Recipient}, req.Recipients...)
	recipients := ippanel.NormalizeRecipients(numbers)
	if len(recipients) == 0 {
		return smsDelivery{}, fmt.Errorf("%w: recipient is required", ErrValidation)
	}

	text := strings.TrimSpace(req.Text)
	patternCode := strings.TrimSpace(req.PatternCode)
	if text == "" && patternCode == "" {
		return smsDelivery{}, fmt.Errorf("%w: text or patternCode is required", ErrValidation)
	}
	if text != "" && patternCode != "" {
		return smsDelivery{}, fmt.Errorf("%w: text and patternCode are mutually exclusive", ErrValidation)
	}

	kind := ippanel.KindText
	if patternCode != "" {
		kind = ippanel.KindPattern
	}
	if strings.TrimSpace(req.Kind) != "" {
		declared, err := ippanel.ParseKindFromString(req.Kind)
		if err != nil {
			return smsDelivery{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if declared != kind {
			return smsDelivery{}, fmt.Errorf("%w: kind %s does not match the message content", ErrValidation, declared)
		}
	}

	builder := ippanel.NewMessage().From(strings.TrimSpace(req.Sender))
	if kind == ippanel.KindPattern {
		if strings.TrimSpace(req.ScheduledAt) != "" {
			return smsDelivery{}, fmt.Errorf("%w: scheduledAt is only supported for text messages", ErrValidation)
		}
		builder = builder.Pattern(patternCode).Variables(req.Variables)
	} else {
		builder = builder.Text(text)
		scheduledAt, err := parseRFC3339(req.ScheduledAt, "scheduledAt")
		if err != nil {
			return smsDelivery{}, err
		}
		if scheduledAt != nil {
			builder = builder.Time(*scheduledAt)
		}
	}

	return smsDelivery{
		recipients: ippanel.To(recipients...),
		message:    builder.Message(),
	}, nil
}

func parseRFC3339(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", ErrValidation, field)
	}
	return &t, nil
}

func requestCorrelationID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	if value, ok := c.Locals("requestid").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func toHTTPError(err error) error {
	var providerErr *ippanel.ProviderError
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &providerErr):
		if ippanel.IsTransient(err) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return err
	}
}
