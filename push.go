package realtime

import (
	"log"
	"sync"
	"time"
)

// defaultPushTimeout is how long a Push waits for a reply before it
// reports PushTimedOut.
const defaultPushTimeout = 10 * time.Second

// PushReplyStatus is the outcome of one outbound Push.
type PushReplyStatus int

const (
	PushOk PushReplyStatus = iota
	PushError
	PushTimedOut
)

// PayloadResponse pairs a push's outcome with the payload that produced
// it (empty for PushTimedOut).
type PayloadResponse struct {
	Status  PushReplyStatus
	Payload Payload
}

type pushCallback func(payload Payload)

type pushHook struct {
	status   PushReplyStatus
	callback pushCallback
}

// Push represents one outbound request that may expect a reply: an event
// name, a payload, an optional ref once sent, a timeout, and a list of
// status-keyed receive hooks.
type Push struct {
	mu sync.Mutex

	event   string
	payload Payload
	timeout time.Duration

	ref     string
	sent    bool
	armed   bool
	hooks   []pushHook
	replied *PayloadResponse
}

// newPush constructs a Push with the given event/payload. A zero timeout
// falls back to defaultPushTimeout.
func newPush(event string, payload Payload, timeout time.Duration) *Push {
	if timeout <= 0 {
		timeout = defaultPushTimeout
	}
	return &Push{event: event, payload: payload, timeout: timeout}
}

// Ref reports the ref this push was last sent under, or "" if unsent.
func (p *Push) Ref() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ref
}

func (p *Push) hasStatus(status PushReplyStatus) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.replied != nil && p.replied.Status == status
}

// registerReceiveCallback appends a status-keyed hook. If a reply matching
// status has already arrived, the callback fires immediately instead.
func (p *Push) registerReceiveCallback(status PushReplyStatus, cb pushCallback) {
	p.mu.Lock()
	if p.replied != nil && p.replied.Status == status {
		payload := p.replied.Payload
		p.mu.Unlock()
		cb(payload)
		return
	}
	p.hooks = append(p.hooks, pushHook{status: status, callback: cb})
	p.mu.Unlock()
}

// send enqueues the push's Message on sender, arming the timeout watcher
// the first time it's called. If this push has already timed out, send is
// a silent no-op, matching the one-shot reply contract.
func (p *Push) send(sender *Client, topic, ref string, replyCh <-chan PayloadResponse) error {
	if p.hasStatus(PushTimedOut) {
		return nil
	}

	p.mu.Lock()
	p.ref = ref
	p.sent = true
	alreadyArmed := p.armed
	p.armed = true
	p.mu.Unlock()

	if !alreadyArmed {
		go p.awaitReply(replyCh)
	}

	return sender.send(Message{Topic: topic, Payload: p.payload, Ref: ref})
}

// resend resets ref, reply state, and sent flag, then sends again under
// the given fresh ref.
func (p *Push) resend(sender *Client, topic, ref string, replyCh <-chan PayloadResponse) error {
	p.mu.Lock()
	p.ref = ""
	p.sent = false
	p.armed = false
	p.replied = nil
	p.mu.Unlock()
	return p.send(sender, topic, ref, replyCh)
}

// awaitReply is the per-push timeout task: it races the reply channel
// against the push's timeout and delivers whichever resolves first.
func (p *Push) awaitReply(replyCh <-chan PayloadResponse) {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-replyCh:
		if !ok {
			log.Printf("[realtime] push %s: reply channel closed without delivery", p.event)
			return
		}
		p.deliver(resp)
	case <-timer.C:
		p.deliver(PayloadResponse{Status: PushTimedOut})
	}
}

func (p *Push) deliver(resp PayloadResponse) {
	p.mu.Lock()
	p.replied = &resp
	hooks := append([]pushHook(nil), p.hooks...)
	p.mu.Unlock()

	for _, h := range hooks {
		if h.status == resp.Status {
			h.callback(resp.Payload)
		}
	}
}
