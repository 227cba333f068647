// Package bus implements the in-process message hub that roles use to talk
// to each other. Every message that passes through the bus lands in a
// bounded append-only log, which doubles as the audit trail for the run.
package bus

import (
	"time"

	"github.com/google/uuid"

	"github.com/foundry-sim/foundry/internal/pipeline"
)

// MessageType enumerates the kinds of traffic the pipeline exchanges.
type MessageType string

const (
	TypeTaskAssignment  MessageType = "task-assignment"
	TypeReviewRequest   MessageType = "review-request"
	TypeApproval        MessageType = "approval"
	TypeRejection       MessageType = "rejection"
	TypeEscalation      MessageType = "escalation"
	TypeArtifactHandoff MessageType = "artifact-handoff"
	TypeStatusUpdate    MessageType = "status-update"
	TypeQuestion        MessageType = "question"
	TypeAnswer          MessageType = "answer"
)

// Priority orders messages by urgency.
type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Message is a single typed exchange between two roles. ID and CreatedAt
// are assigned during publish when absent and never change afterwards.
type Message struct {
	ID          string            `json:"id"`
	Type        MessageType       `json:"type"`
	From        pipeline.Role     `json:"from"`
	To          pipeline.Role     `json:"to"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	Priority    Priority          `json:"priority"`
	CreatedAt   time.Time         `json:"created_at"`
	ArtifactIDs []string          `json:"artifact_ids,omitempty"`
	ParentID    string            `json:"parent_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// normalize applies defaults before the message enters the log.
func (m *Message) normalize(now time.Time) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now.UTC()
	}
	if m.Priority == "" {
		m.Priority = PriorityNormal
	}
}

// MessageOption customizes a message built by Send, Reply, or Broadcast.
type MessageOption func(*Message)

// WithType overrides the message type. Replies use it to answer with a
// different type than the original.
func WithType(t MessageType) MessageOption {
	return func(m *Message) {
		if t != "" {
			m.Type = t
		}
	}
}

// WithPriority overrides the message priority.
func WithPriority(p Priority) MessageOption {
	return func(m *Message) {
		if p != "" {
			m.Priority = p
		}
	}
}

// WithArtifacts attaches artifact ids in the given order.
func WithArtifacts(ids ...string) MessageOption {
	return func(m *Message) {
		m.ArtifactIDs = append([]string{}, ids...)
	}
}

// WithParent threads the message under a parent message id.
func WithParent(id string) MessageOption {
	return func(m *Message) {
		m.ParentID = id
	}
}

// WithMetadata merges free-form metadata into the message.
func WithMetadata(kv map[string]string) MessageOption {
	return func(m *Message) {
		if len(kv) == 0 {
			return
		}
		if m.Metadata == nil {
			m.Metadata = make(map[string]string, len(kv))
		}
		for k, v := range kv {
			m.Metadata[k] = v
		}
	}
}
