package queue

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Manager handles NATS connection and messaging for explain/audit event
// publishing. The core itself never touches this package; cmd/server opens
// and closes a Manager, and nothing in this repository calls Publish.
type Manager struct {
	conn    *nats.Conn
	url     string
	options []nats.Option
}

// NewManager creates a new NATS manager and connects immediately.
func NewManager(natsURL string) (*Manager, error) {
	options := []nats.Option{
		nats.Name("reorder-engine"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS at %s", natsURL)

	return &Manager{conn: conn, url: natsURL, options: options}, nil
}

// Close closes the NATS connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// Conn returns the underlying NATS connection.
func (m *Manager) Conn() *nats.Conn {
	return m.conn
}

// Publish publishes a message to a subject.
func (m *Manager) Publish(subject string, data []byte) error {
	return m.conn.Publish(subject, data)
}

// Subscribe subscribes to a subject with a handler.
func (m *Manager) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	return m.conn.Subscribe(subject, handler)
}

// QueueSubscribe creates a queue subscriber, load-balanced across workers
// in the same queue group.
func (m *Manager) QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error) {
	return m.conn.QueueSubscribe(subject, queue, handler)
}

// Subject patterns for the reorder engine's explain/audit event stream.
// They are defined here for publishers and subscribers; no code in this
// repository publishes proposals to them.
const (
	// SubjectExplainSKU carries one SKU's OrderExplain record.
	// Example: fmt.Sprintf(SubjectExplainSKU, "SKU-1001") → "reorder.explain.SKU-1001"
	SubjectExplainSKU = "reorder.explain.%s"

	// SubjectBatchProgress carries incremental progress for a running batch.
	SubjectBatchProgress = "reorder.batch.progress.%s"

	// SubjectBatchComplete fires once a full batch run has finished.
	SubjectBatchComplete = "reorder.batch.complete.%s"

	// SubjectBatchError fires when a batch run itself (not a single SKU)
	// fails, e.g. the repository could not be read.
	SubjectBatchError = "reorder.batch.error.%s"

	// QueueGroupBatchWorkers load-balances batch-triggering requests across
	// server replicas.
	QueueGroupBatchWorkers = "reorder-batch-workers"
)

// ExplainSubject returns the subject one SKU's explain record publishes to.
func ExplainSubject(sku string) string {
	return fmt.Sprintf(SubjectExplainSKU, sku)
}

// BatchProgressSubject returns the progress subject for a batch run.
func BatchProgressSubject(runID string) string {
	return fmt.Sprintf(SubjectBatchProgress, runID)
}

// BatchCompleteSubject returns the completion subject for a batch run.
func BatchCompleteSubject(runID string) string {
	return fmt.Sprintf(SubjectBatchComplete, runID)
}

// BatchErrorSubject returns the error subject for a batch run.
func BatchErrorSubject(runID string) string {
	return fmt.Sprintf(SubjectBatchError, runID)
}
