package mqtt

// message is a serialized MQTT message held for replay.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox keeps the newest messages published while the broker was
// unreachable. When full, the oldest message is dropped.
// Callers synchronize.
type outbox struct {
	msgs    []message
	start   int
	n       int
	dropped int
}

func newOutbox(capacity int) *outbox {
	return &outbox{msgs: make([]message, capacity)}
}

// push appends m and reports whether an older message was dropped.
func (o *outbox) push(m message) bool {
	size := len(o.msgs)
	if o.n < size {
		o.msgs[(o.start+o.n)%size] = m
		o.n++
		return false
	}
	o.msgs[o.start] = m
	o.start = (o.start + 1) % size
	o.dropped++
	return true
}

// drain returns the held messages oldest first and the number dropped
// since the previous drain, then empties the outbox.
func (o *outbox) drain() ([]message, int) {
	dropped := o.dropped
	o.dropped = 0
	if o.n == 0 {
		return nil, dropped
	}
	out := make([]message, o.n)
	for i := range out {
		out[i] = o.msgs[(o.start+i)%len(o.msgs)]
	}
	o.start, o.n = 0, 0
	return out, dropped
}

func (o *outbox) len() int { return o.n }
