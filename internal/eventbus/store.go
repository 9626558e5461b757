package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// AnalysisStream holds every analysis.> event.
	AnalysisStream = "ANALYSES"

	analysisCompleted = "analysis.completed"
)

// AnalysisCompleted is published after an analysis is stored.
type AnalysisCompleted struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	UserID       string    `json:"user_id"`
	DiagramID    string    `json:"diagram_id"`
	Kind         string    `json:"kind"`
	Notation     string    `json:"notation"`
	Degraded     bool      `json:"degraded"`
	PatternCount int       `json:"pattern_count"`
	Model        string    `json:"model,omitempty"`
	Source       string    `json:"source"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// CompletedSubject is the per-project subject for completion events.
func CompletedSubject(projectID string) string {
	return analysisCompleted + "." + projectID
}

// Publisher publishes analysis events.
type Publisher interface {
	PublishAnalysis(ctx context.Context, ev AnalysisCompleted) error
}

// Nop discards events; used when NATS is unavailable.
type Nop struct{}

func (Nop) PublishAnalysis(context.Context, AnalysisCompleted) error { return nil }

// Event is a stored stream message.
type Event struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// JetStreamStore is an append-only analysis event log on JetStream.
type JetStreamStore struct {
	js nats.JetStreamContext
}

// NewJetStreamStore creates the analysis stream if it does not exist.
func NewJetStreamStore(js nats.JetStreamContext) (*JetStreamStore, error) {
	if js == nil {
		return nil, errors.New("jetstream context not initialized")
	}

	_, err := js.StreamInfo(AnalysisStream)
	if errors.Is(err, nats.ErrStreamNotFound) {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     AnalysisStream,
			Subjects: []string{"analysis.>"},
			MaxAge:   30 * 24 * time.Hour,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("ensure stream %s: %w", AnalysisStream, err)
	}
	return &JetStreamStore{js: js}, nil
}

// PublishAnalysis appends ev; the event id doubles as the JetStream
// de-duplication id.
func (s *JetStreamStore) PublishAnalysis(ctx context.Context, ev AnalysisCompleted) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(CompletedSubject(ev.ProjectID))
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, ev.ID)

	_, err = s.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

// Recent returns up to limit stored completion events for a project,
// oldest first.
func (s *JetStreamStore) Recent(ctx context.Context, projectID string, limit int) ([]Event, error) {
	sub, err := s.js.SubscribeSync(CompletedSubject(projectID),
		nats.BindStream(AnalysisStream),
		nats.DeliverAll(),
		nats.AckNone(),
	)
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	var events []Event
	for len(events) < limit {
		if ctx.Err() != nil {
			break
		}
		msg, err := sub.NextMsg(100 * time.Millisecond)
		if errors.Is(err, nats.ErrTimeout) {
			break
		}
		if err != nil {
			return events, err
		}

		ev := Event{
			ID:      msg.Header.Get(nats.MsgIdHdr),
			Subject: msg.Subject,
			Data:    json.RawMessage(msg.Data),
		}
		if meta, err := msg.Metadata(); err == nil {
			ev.Timestamp = meta.Timestamp
		}
		events = append(events, ev)
	}
	return events, nil
}
