// ABOUTME: Message is the immutable envelope exchanged between principals via the Router.
// ABOUTME: Role, ToolInvocation, and ToolObservation round out the content model shared by agents and team services.
package core

import (
	"time"

	"github.com/google/uuid"
)

// Role classifies who produced a Message's content.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// ToolInvocation is a request to run a named tool with arguments. InvocationID
// is unique per (agent, invocation) pair for the lifetime of a workspace.
type ToolInvocation struct {
	InvocationID string         `json:"invocation_id"`
	Name         string         `json:"name"`
	Arguments    map[string]any `json:"arguments,omitempty"`
	Deadline     *time.Time     `json:"deadline,omitempty"`
}

// ErrorInfo describes why a ToolObservation failed.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

// ToolObservation is the result of executing a ToolInvocation.
type ToolObservation struct {
	InvocationID string     `json:"invocation_id"`
	OK           bool       `json:"ok"`
	Result       any        `json:"result,omitempty"`
	Error        *ErrorInfo `json:"error,omitempty"`
}

// Message is the immutable envelope exchanged between principals. Exactly
// one of Destination or Channel must be set, unless the message rides
// inside a broadcast Event (see Event.IsBroadcast).
type Message struct {
	MessageID    string            `json:"message_id"`
	Source       Identifier        `json:"source"`
	Destination  Identifier        `json:"destination,omitempty"`
	Channel      Identifier        `json:"channel,omitempty"`
	Content      string            `json:"content"`
	Role         Role              `json:"role"`
	Actions      []ToolInvocation  `json:"actions,omitempty"`
	Observations []ToolObservation `json:"observations,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Timestamp    uint64            `json:"timestamp"`
	ReplyTo      string            `json:"reply_to,omitempty"`
}

// NewMessageID returns a fresh, globally unique message identifier.
func NewMessageID() string {
	return uuid.NewString()
}

// HasDestination reports whether the message targets a single principal.
func (m Message) HasDestination() bool {
	return m.Destination != ""
}

// HasChannel reports whether the message targets a channel.
func (m Message) HasChannel() bool {
	return m.Channel != ""
}

// WithDestination returns a copy of m addressed to dest, with Channel cleared.
// Messages are immutable after enqueue, so rewriting (e.g. by a
// CollaborationPolicy) always produces a new value rather than mutating m.
func (m Message) WithDestination(dest Identifier) Message {
	m.Destination = dest
	m.Channel = ""
	return m
}

// WithSource returns a copy of m attributed to a different source.
func (m Message) WithSource(src Identifier) Message {
	m.Source = src
	return m
}

// WithChannel returns a copy of m addressed to ch, with Destination cleared.
func (m Message) WithChannel(ch Identifier) Message {
	m.Channel = ch
	m.Destination = ""
	return m
}
