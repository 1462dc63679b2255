package ippanel

import (
	"fmt"
	"strings"
	"time"
)

// Kind selects the IPPanel endpoint and payload shape for a message.
type Kind string

const (
	KindText    Kind = "TEXT"
	KindPattern Kind = "PATTERN"
)

func (k Kind) String() string { return string(k) }

func (k Kind) IsValid() bool {
	switch k {
	case KindText, KindPattern:
		return true
	}
	return false
}

func ParseKindFromString(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("invalid message kind %q", s)
	}
	return k, nil
}

// Message is one outgoing SMS. It is built once through a Builder and
// consumed by a single dispatch.
type Message struct {
	text        string
	recipients  []string
	sender      string
	patternCode string
	variables   map[string]string
	scheduledAt time.Time
}

func (m Message) Text() string        { return m.text }
func (m Message) Sender() string      { return m.sender }
func (m Message) PatternCode() string { return m.patternCode }

func (m Message) Recipients() []string {
	if len(m.recipients) == 0 {
		return nil
	}
	out := make([]string, len(m.recipients))
	copy(out, m.recipients)
	return out
}

func (m Message) Variables() map[string]string {
	return copyVariables(m.variables)
}

// ScheduledAt reports the delivery time of a text message, if one was set.
func (m Message) ScheduledAt() (time.Time, bool) {
	return m.scheduledAt, !m.scheduledAt.IsZero()
}

func (m Message) IsPatternBased() bool {
	return m.patternCode != ""
}

func (m Message) IsSimpleText() bool {
	return m.text != "" && m.patternCode == ""
}

func (m Message) Kind() Kind {
	if m.IsPatternBased() {
		return KindPattern
	}
	return KindText
}

// Builder accumulates message parameters. Every setter returns a new Builder,
// so a partially configured Builder can be reused as a template.
type Builder struct {
	msg Message
}

func NewMessage() Builder {
	return Builder{}
}

func (b Builder) Text(text string) Builder {
	b.msg.text = text
	return b
}

// To sets the message's own recipients. They are used only when the
// notifiable does not route to any number.
func (b Builder) To(numbers ...string) Builder {
	b.msg.recipients = append([]string(nil), numbers...)
	return b
}

// From overrides the configured sender number for this message.
func (b Builder) From(sender string) Builder {
	b.msg.sender = sender
	return b
}

func (b Builder) Pattern(code string) Builder {
	b.msg.patternCode = code
	return b
}

func (b Builder) Variables(variables map[string]string) Builder {
	b.msg.variables = copyVariables(variables)
	return b
}

// Time schedules a text message. Pattern sends ignore it.
func (b Builder) Time(at time.Time) Builder {
	b.msg.scheduledAt = at
	return b
}

func (b Builder) Message() Message {
	msg := b.msg
	msg.recipients = msg.Recipients()
	msg.variables = copyVariables(msg.variables)
	return msg
}

func copyVariables(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
