// Package notify announces finished packaging runs on NATS so CI and release
// tooling can pick up new firmware without polling the output directory.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
	"git.home.luguber.info/inful/fwpack/internal/gitinfo"
	"git.home.luguber.info/inful/fwpack/internal/logfields"
	"git.home.luguber.info/inful/fwpack/internal/packager"
)

// EventType identifies packaging events on the wire.
const EventType = "firmware.packaged"

// Event is the JSON payload published after a run.
type Event struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	Project   string    `json:"project"`
	Version   string    `json:"version"`
	Board     string    `json:"board"`
	Layout    string    `json:"layout"`
	Files     []string  `json:"files"`
	Failures  []string  `json:"failures,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventFromReport builds the event for a finished run.
func EventFromReport(r *packager.Report, git *gitinfo.Info) Event {
	ev := Event{
		Type:      EventType,
		RunID:     r.RunID,
		Project:   r.Plan.Config.Project,
		Version:   r.Plan.Config.Version,
		Board:     r.Plan.Config.Board,
		Layout:    string(r.Plan.Branch),
		Files:     []string{},
		Timestamp: r.StartedAt.Add(r.Duration).UTC(),
	}
	for _, f := range r.Produced() {
		ev.Files = append(ev.Files, filepath.Base(f))
	}
	for _, f := range r.Failures() {
		ev.Failures = append(ev.Failures, f.Step)
	}
	if git != nil {
		ev.Commit = git.Commit
	}
	return ev
}

// Publisher delivers run events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close()
}

// NATSPublisher publishes events on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string, timeout time.Duration) (*NATSPublisher, error) {
	if url == "" {
		return nil, ferrors.ConfigError("notify url is required").Build()
	}
	if subject == "" {
		subject = EventType
	}

	conn, err := nats.Connect(url,
		nats.Name("fwpack"),
		nats.Timeout(timeout),
		nats.MaxReconnects(0),
	)
	if err != nil {
		return nil, ferrors.NotifyError("failed to connect to NATS").WithCause(err).
			WithContext("url", url).Build()
	}

	slog.Debug("Connected to NATS", "url", url, logfields.Subject(subject))
	return &NATSPublisher{conn: conn, subject: subject, timeout: timeout}, nil
}

// Publish sends ev and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.NotifyError("failed to publish event").WithCause(err).
			WithContext("subject", p.subject).Build()
	}

	flushCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return ferrors.NotifyError("failed to flush event").WithCause(err).
			WithContext("subject", p.subject).Build()
	}

	slog.Info("Published packaging event",
		logfields.Subject(p.subject),
		logfields.RunID(ev.RunID),
		logfields.Project(ev.Project),
		logfields.Version(ev.Version))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
