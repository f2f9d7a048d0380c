package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	// BufferSize is the number of messages held while disconnected.
	BufferSize = 100

	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are buffered and replayed, oldest first,
// when it comes back.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	pending   *outbox
	connected bool
	sessions  int
	replaying bool

	// send and open are the client operations; tests replace them.
	send func(m message) error
	open func() bool
}

// NewRealPublisher creates a publisher for the given broker and starts
// connecting in the background. An unreachable broker is not an error.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := newPublisher(nil, nil)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onLost(err) })

	p.client = paho.NewClient(opts)
	p.send = p.clientSend
	p.open = p.client.IsConnectionOpen

	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("mqtt: broker %s not reachable yet, buffering", broker)
	} else if err := token.Error(); err != nil {
		log.Printf("mqtt: connect to %s: %v", broker, err)
	}
	return p
}

func newPublisher(send func(message) error, open func() bool) *RealPublisher {
	return &RealPublisher{
		pending: newOutbox(BufferSize),
		send:    send,
		open:    open,
	}
}

func (p *RealPublisher) clientSend(m message) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// PublishActivation sends an activation change (QoS 0, not retained).
func (p *RealPublisher) PublishActivation(a Activation) error {
	payload, err := FormatActivation(a)
	if err != nil {
		return fmt.Errorf("format activation: %w", err)
	}
	return p.publish(message{topic: TopicEvents, payload: payload})
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// publish sends m, or holds it while the broker is down or a replay is in
// progress. The lock is never held across a send.
func (p *RealPublisher) publish(m message) error {
	p.mu.Lock()
	if !p.open() || p.replaying {
		p.hold(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if err := p.send(m); err != nil {
		p.mu.Lock()
		p.hold(m)
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *RealPublisher) hold(m message) {
	if p.pending.push(m) && p.pending.dropped == 1 {
		log.Printf("mqtt: buffer full (%d messages), dropping oldest", BufferSize)
	}
}

func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	p.connected = true
	p.sessions++
	if p.sessions > 1 {
		log.Printf("mqtt: reconnected")
	}
	if p.replaying {
		p.mu.Unlock()
		return
	}
	p.replaying = true
	p.mu.Unlock()

	p.replay()
}

// replay sends held messages oldest first until the outbox is empty.
// Messages published meanwhile are held behind them.
func (p *RealPublisher) replay() {
	for {
		p.mu.Lock()
		msgs, dropped := p.pending.drain()
		if len(msgs) == 0 {
			p.replaying = false
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		log.Printf("mqtt: replaying %d buffered messages (%d dropped)", len(msgs), dropped)
		for i, m := range msgs {
			if err := p.send(m); err != nil {
				log.Printf("mqtt: replay: %v", err)
				p.requeue(msgs[i:])
				return
			}
		}
	}
}

// requeue puts unsent messages back ahead of anything held since the
// drain and ends the replay.
func (p *RealPublisher) requeue(unsent []message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	newer, dropped := p.pending.drain()
	for _, m := range unsent {
		p.pending.push(m)
	}
	for _, m := range newer {
		p.hold(m)
	}
	p.pending.dropped += dropped
	p.replaying = false
}

func (p *RealPublisher) onLost(err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns the number of messages waiting for replay.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	if p.client != nil {
		p.client.Disconnect(1000)
	}
	return nil
}
