// Package metrics exposes prometheus instrumentation for the dialogue engine
// and the chat server. All methods are safe on a nil receiver so callers that
// run without monitoring skip the counters without guards.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's prometheus collectors.
type Metrics struct {
	dialoguesStarted *prometheus.CounterVec
	dialoguesEnded   *prometheus.CounterVec
	choicesMade      prometheus.Counter
	messagesSent     *prometheus.CounterVec
	activeDialogues  prometheus.Gauge
	connectedClients prometheus.Gauge
}

// New creates the collectors and registers them on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dialoguesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_dialogues_started_total",
			Help: "Dialogue runs started, by dialogue id.",
		}, []string{"dialogue"}),
		dialoguesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_dialogues_ended_total",
			Help: "Dialogue runs ended, by reason.",
		}, []string{"reason"}),
		choicesMade: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parley_choices_total",
			Help: "Player choices accepted by the runtime.",
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_messages_sent_total",
			Help: "Dialogue messages broadcast, by message type.",
		}, []string{"type"}),
		activeDialogues: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "parley_active_dialogues",
			Help: "Rooms with a dialogue currently running.",
		}),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "parley_connected_clients",
			Help: "Websocket clients currently connected.",
		}),
	}
	reg.MustRegister(
		m.dialoguesStarted,
		m.dialoguesEnded,
		m.choicesMade,
		m.messagesSent,
		m.activeDialogues,
		m.connectedClients,
	)
	return m
}

// DialogueStarted records a successful start.
func (m *Metrics) DialogueStarted(dialogueID string) {
	if m == nil {
		return
	}
	m.dialoguesStarted.WithLabelValues(dialogueID).Inc()
	m.activeDialogues.Inc()
}

// DialogueEnded records an end transition with its reason.
func (m *Metrics) DialogueEnded(reason string) {
	if m == nil {
		return
	}
	m.dialoguesEnded.WithLabelValues(reason).Inc()
	m.activeDialogues.Dec()
}

// ChoiceMade records one accepted player choice.
func (m *Metrics) ChoiceMade() {
	if m == nil {
		return
	}
	m.choicesMade.Inc()
}

// MessageSent records one broadcast dialogue message.
func (m *Metrics) MessageSent(msgType string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(msgType).Inc()
}

// ClientConnected tracks a websocket join.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.connectedClients.Inc()
}

// ClientDisconnected tracks a websocket leave.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.connectedClients.Dec()
}
