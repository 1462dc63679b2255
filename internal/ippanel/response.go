package ippanel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Outcome classifies one dispatch attempt.
type Outcome string

const (
	OutcomeSkipped          Outcome = "SKIPPED"
	OutcomeAccepted         Outcome = "ACCEPTED"
	OutcomeRejected         Outcome = "REJECTED"
	OutcomeTransportFailure Outcome = "TRANSPORT_FAILURE"
	OutcomeUnexpected       Outcome = "UNEXPECTED"
)

func (o Outcome) String() string { return string(o) }

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSkipped, OutcomeAccepted, OutcomeRejected, OutcomeTransportFailure, OutcomeUnexpected:
		return true
	}
	return false
}

// Failed reports whether the outcome means the SMS was not handed over.
// A skip is not a failure.
func (o Outcome) Failed() bool {
	switch o {
	case OutcomeRejected, OutcomeTransportFailure, OutcomeUnexpected:
		return true
	}
	return false
}

const (
	providerStatusOK = "OK"
	providerCodeOK   = 200
)

// classifyResponse maps an HTTP status and body onto an Outcome. The decoded
// body is returned when it is a JSON object.
func classifyResponse(statusCode int, body []byte) (Outcome, map[string]any) {
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return OutcomeTransportFailure, decodeObject(body)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return OutcomeTransportFailure, nil
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return OutcomeRejected, nil
	}

	status, _ := object["status"].(string)
	code, _ := object["code"].(float64)
	if status == providerStatusOK && code == providerCodeOK {
		return OutcomeAccepted, object
	}

	return OutcomeRejected, object
}

func decodeObject(body []byte) map[string]any {
	var object map[string]any
	if err := json.Unmarshal(body, &object); err != nil {
		return nil
	}
	return object
}

// providerErrorMessage extracts IPPanel's own explanation of a failure.
func providerErrorMessage(statusCode int, body []byte, decoded map[string]any) string {
	base := fmt.Sprintf("ippanel responded with status code %d", statusCode)

	for _, key := range []string{"errorMessage", "message"} {
		value, ok := decoded[key]
		if !ok || value == nil {
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			continue
		}
		return fmt.Sprintf("%s: %s", base, encoded)
	}

	if raw := strings.TrimSpace(string(body)); raw != "" {
		return fmt.Sprintf("%s: %s", base, raw)
	}
	return base
}
