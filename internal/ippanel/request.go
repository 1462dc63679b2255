package ippanel

import (
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://api.ippanel.com/v1/messages"

	textSendPath    = "/sms/send/webservice/single"
	patternSendPath = "/messages/patterns/send"
)

// dispatchRequest is the single HTTP call derived from a message.
type dispatchRequest struct {
	Endpoint string
	Body     map[string]any
	Headers  map[string]string
}

func endpointPath(kind Kind) string {
	if kind == KindPattern {
		return patternSendPath
	}
	return textSendPath
}

func joinEndpoint(base string, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func resolveSender(msg Message, defaultSender string) string {
	if msg.sender != "" {
		return msg.sender
	}
	return defaultSender
}

func buildRequest(settings Settings, msg Message, recipients []string) dispatchRequest {
	kind := msg.Kind()

	body := map[string]any{
		"recipient": recipients,
		"sender":    resolveSender(msg, settings.SenderNumber),
	}

	switch kind {
	case KindPattern:
		variables := msg.variables
		if variables == nil {
			variables = map[string]string{}
		}
		body["pattern_code"] = msg.patternCode
		body["variables"] = copyVariables(variables)
	default:
		body["message"] = msg.text
		if at, ok := msg.ScheduledAt(); ok {
			body["time"] = at.Format(time.RFC3339)
		}
	}

	return dispatchRequest{
		Endpoint: joinEndpoint(settings.Endpoint, endpointPath(kind)),
		Body:     body,
		Headers: map[string]string{
			"Authorization": "ApiKey " + settings.APIKey,
			"Content-Type":  "application/json",
			"Accept":        "application/json",
		},
	}
}
