package monitor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vinayprograms/agentkit/logging"
)

// DefaultHealthSubject is where health transitions are published.
const DefaultHealthSubject = "axon.health"

// Publisher emits health transitions to a NATS subject so external
// watchers can alert on agent degradation without polling.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *logging.Logger
}

// healthEvent is the published wire payload.
type healthEvent struct {
	Previous        string    `json:"previous"`
	Current         string    `json:"current"`
	Recommendations []string  `json:"recommendations,omitempty"`
	SampleCount     int       `json:"sample_count"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewPublisher connects to the NATS server at url. An empty subject uses
// DefaultHealthSubject.
func NewPublisher(url, subject string) (*Publisher, error) {
	if subject == "" {
		subject = DefaultHealthSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("axon-monitor"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logging.New().WithComponent("health-publisher"),
	}, nil
}

// HealthChanged publishes the transition. Publish failures are logged and
// swallowed; monitoring must never take the agent down.
func (p *Publisher) HealthChanged(previous, current Status, report Report) {
	event := healthEvent{
		Previous:        string(previous),
		Current:         string(current),
		Recommendations: report.Recommendations,
		SampleCount:     report.SampleCount,
		Timestamp:       report.GeneratedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("encoding health event", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Warn("publishing health event", map[string]interface{}{
			"subject": p.subject,
			"error":   err.Error(),
		})
	}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
