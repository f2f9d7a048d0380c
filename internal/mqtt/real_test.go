package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClient struct {
	open    bool
	sent    []message
	failOn  int // fail the nth send (1-based); 0 never
	sendErr error
}

func (c *fakeClient) send(m message) error {
	if c.failOn != 0 && len(c.sent)+1 == c.failOn {
		c.failOn = 0
		return c.sendErr
	}
	c.sent = append(c.sent, m)
	return nil
}

func (c *fakeClient) isOpen() bool { return c.open }

func newTestPublisher(c *fakeClient) *RealPublisher {
	return newPublisher(c.send, c.isOpen)
}

func TestPublishWhileConnected(t *testing.T) {
	c := &fakeClient{open: true}
	p := newTestPublisher(c)

	if err := p.PublishActivation(Activation{Event: 2}); err != nil {
		t.Fatalf("PublishActivation: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	if len(c.sent) != 2 {
		t.Fatalf("sent: got %d, want 2", len(c.sent))
	}
	if c.sent[0].topic != TopicEvents || c.sent[0].qos != 0 {
		t.Errorf("activation: topic %q qos %d", c.sent[0].topic, c.sent[0].qos)
	}
	if c.sent[1].topic != TopicSystem || c.sent[1].qos != 1 {
		t.Errorf("system: topic %q qos %d", c.sent[1].topic, c.sent[1].qos)
	}
	if p.Buffered() != 0 {
		t.Errorf("Buffered: got %d, want 0", p.Buffered())
	}
}

func TestPublishWhileDisconnectedBuffers(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c)

	for i := 0; i < 3; i++ {
		if err := p.PublishActivation(Activation{Event: i}); err != nil {
			t.Fatalf("PublishActivation: %v", err)
		}
	}
	if len(c.sent) != 0 {
		t.Errorf("sent while disconnected: %d", len(c.sent))
	}
	if p.Buffered() != 3 {
		t.Fatalf("Buffered: got %d, want 3", p.Buffered())
	}

	c.open = true
	p.onConnect()

	if len(c.sent) != 3 {
		t.Fatalf("replayed: got %d, want 3", len(c.sent))
	}
	if p.Buffered() != 0 {
		t.Errorf("Buffered after replay: %d", p.Buffered())
	}
	if !p.IsConnected() {
		t.Error("expected IsConnected after onConnect")
	}
}

func TestPublishFailureBuffersAndReturnsError(t *testing.T) {
	c := &fakeClient{open: true, failOn: 1, sendErr: errors.New("timeout")}
	p := newTestPublisher(c)

	if err := p.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Fatal("expected error")
	}
	if p.Buffered() != 1 {
		t.Fatalf("Buffered: got %d, want 1", p.Buffered())
	}

	p.onConnect()
	if len(c.sent) != 1 {
		t.Errorf("replayed: got %d, want 1", len(c.sent))
	}
}

func TestReplayFailureKeepsRemainder(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c)
	for i := 0; i < 4; i++ {
		p.PublishActivation(Activation{Event: i})
	}

	c.open = true
	c.failOn = 3
	c.sendErr = errors.New("gone")
	p.onConnect()

	if len(c.sent) != 2 {
		t.Fatalf("sent: got %d, want 2", len(c.sent))
	}
	if p.Buffered() != 2 {
		t.Fatalf("Buffered: got %d, want 2", p.Buffered())
	}

	p.onConnect()
	if len(c.sent) != 4 {
		t.Errorf("sent after second replay: got %d, want 4", len(c.sent))
	}
}

func TestPublishDuringSlowReplayDoesNotBlock(t *testing.T) {
	var (
		mu      sync.Mutex
		sent    []message
		open    bool
		once    sync.Once
		started = make(chan struct{})
		gate    = make(chan struct{})
	)
	p := newPublisher(func(m message) error {
		once.Do(func() { close(started) })
		<-gate
		mu.Lock()
		sent = append(sent, m)
		mu.Unlock()
		return nil
	}, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return open
	})

	for i := 0; i < 3; i++ {
		p.PublishActivation(Activation{Event: i})
	}
	mu.Lock()
	open = true
	mu.Unlock()

	replayed := make(chan struct{})
	go func() {
		p.onConnect()
		close(replayed)
	}()
	<-started

	published := make(chan error, 1)
	go func() { published <- p.PublishActivation(Activation{Event: 3}) }()
	select {
	case err := <-published:
		if err != nil {
			t.Fatalf("PublishActivation: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("PublishActivation blocked behind the replay")
	}
	if !p.IsConnected() {
		t.Error("expected IsConnected during replay")
	}

	close(gate)
	select {
	case <-replayed:
	case <-time.After(time.Second):
		t.Fatal("replay did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 4 {
		t.Fatalf("sent: got %d, want 4", len(sent))
	}
	last, err := FormatActivation(Activation{Event: 3})
	if err != nil {
		t.Fatal(err)
	}
	if string(sent[3].payload) != string(last) {
		t.Errorf("newest sent last: got %s, want %s", sent[3].payload, last)
	}
	if p.Buffered() != 0 {
		t.Errorf("Buffered after replay: %d", p.Buffered())
	}
}

func TestReplayFailureKeepsOrderWithNewerMessages(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c)
	for i := 0; i < 2; i++ {
		p.PublishActivation(Activation{Event: i})
	}
	p.PublishActivation(Activation{Event: 2})

	p.mu.Lock()
	p.replaying = true
	p.mu.Unlock()
	p.requeue([]message{{topic: TopicEvents, payload: []byte("unsent")}})

	msgs, _ := p.pending.drain()
	if len(msgs) != 4 {
		t.Fatalf("held: got %d, want 4", len(msgs))
	}
	if string(msgs[0].payload) != "unsent" {
		t.Errorf("first held: got %s, want unsent", msgs[0].payload)
	}
	if p.replaying {
		t.Error("replay still marked in progress after requeue")
	}
}

func TestBufferOverflowDropsOldest(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c)
	for i := 0; i < BufferSize+5; i++ {
		p.PublishActivation(Activation{Event: i})
	}
	if p.Buffered() != BufferSize {
		t.Fatalf("Buffered: got %d, want %d", p.Buffered(), BufferSize)
	}

	c.open = true
	p.onConnect()

	first, err := FormatActivation(Activation{Event: 5})
	if err != nil {
		t.Fatal(err)
	}
	if string(c.sent[0].payload) != string(first) {
		t.Errorf("oldest replayed: got %s, want %s", c.sent[0].payload, first)
	}
}

func TestConnectionLost(t *testing.T) {
	c := &fakeClient{open: true}
	p := newTestPublisher(c)
	p.onConnect()
	p.onLost(errors.New("EOF"))

	if p.IsConnected() {
		t.Error("expected disconnected after onLost")
	}
}

func TestCloseWithoutClient(t *testing.T) {
	p := newTestPublisher(&fakeClient{})
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
