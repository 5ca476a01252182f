package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Payload is a parsed webhook delivery. Concrete types are PushPayload,
// PingPayload, and UnrecognizedPayload.
type Payload interface {
	EventType() string
}

// PushCommit is one commit in a push delivery with its touched file lists.
type PushCommit struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Added     []string  `json:"added"`
	Removed   []string  `json:"removed"`
	Modified  []string  `json:"modified"`
}

// PushPayload is a push delivery: a ref update with its commit list.
type PushPayload struct {
	Ref        string       `json:"ref"`
	Before     string       `json:"before"`
	After      string       `json:"after"`
	Repository pushRepo     `json:"repository"`
	Commits    []PushCommit `json:"commits"`
}

type pushRepo struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
}

// EventType implements Payload.
func (PushPayload) EventType() string { return "push" }

// RepositoryFullName returns the pushed repository as "owner/name".
func (p PushPayload) RepositoryFullName() string { return p.Repository.FullName }

// Branch returns the short branch name of the pushed ref, empty for
// non-branch refs.
func (p PushPayload) Branch() string {
	return strings.TrimPrefix(p.Ref, "refs/heads/")
}

// PingPayload is the hosting provider's endpoint liveness check. It is
// acknowledged without side effects.
type PingPayload struct {
	Zen    string `json:"zen"`
	HookID int64  `json:"hook_id"`
}

// EventType implements Payload.
func (PingPayload) EventType() string { return "ping" }

// UnrecognizedPayload is any delivery type the pipeline does not handle.
// It is logged and ignored, not an error.
type UnrecognizedPayload struct {
	Type string
}

// EventType implements Payload.
func (p UnrecognizedPayload) EventType() string { return p.Type }

// ParsePayload decodes a webhook delivery body according to its event type
// header. Unknown event types parse to UnrecognizedPayload with a nil error.
func ParsePayload(eventType string, body []byte) (Payload, error) {
	switch eventType {
	case "push":
		var p PushPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("event: decode push payload: %w", err)
		}
		return p, nil
	case "ping":
		var p PingPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("event: decode ping payload: %w", err)
		}
		return p, nil
	default:
		return UnrecognizedPayload{Type: eventType}, nil
	}
}
