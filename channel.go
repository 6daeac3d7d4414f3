package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// ChannelState is Channel's small state machine:
//
//	Closed   --subscribe-->  Joining
//	Joining  --ok reply-->   Joined
//	Joining  --error/timeout--> Errored
//	Joined   --phx_error-->  Errored
//	Joined   --phx_close-->  Closed   (and request removal from Client)
//	Any      --leave-->      Leaving  --phx_close--> Closed
type ChannelState int

const (
	ChannelClosed ChannelState = iota
	ChannelJoining
	ChannelJoined
	ChannelErrored
	ChannelLeaving
)

// SubscribeStatus is delivered to a Subscribe callback once the join push
// resolves.
type SubscribeStatus int

const (
	Subscribed SubscribeStatus = iota
	SubscribeErrored
	SubscribeTimedOut
)

// SubscribeCallback observes the outcome of one Subscribe call. err is
// non-nil only when status is SubscribeErrored, and holds a *SubscribeError.
type SubscribeCallback func(status SubscribeStatus, err error)

// staleControlKinds are the payload kinds subject to Channel's stale
// control filter: late control replies addressed to a superseded join ref
// must not mutate a freshly rejoined channel.
var staleControlKinds = map[PayloadKind]bool{
	KindPhxClose: true,
	KindPhxError: true,
	KindPhxLeave: true,
	KindPhxJoin:  true,
}

// Channel owns one topic subscription: it dispatches inbound messages to
// user-registered bindings, issues outbound pushes, and maintains the
// state machine above. Channel mutable state is protected by a single
// mutex; binding handlers run synchronously while it is held, so a
// handler must never call back into the same Channel.
type Channel struct {
	mu sync.Mutex

	topic  string
	client *Client
	config JoinConfig

	state      ChannelState
	joinedOnce bool

	bindings map[PayloadKind][]binding

	joinPush       *Push
	pendingReplies map[string]chan PayloadResponse
}

// newChannel constructs a Channel with the three default bindings
// installed: phx_close, phx_error, and phx_reply.
func newChannel(topic string, client *Client, config JoinConfig) *Channel {
	ch := &Channel{
		topic:          topic,
		client:         client,
		config:         config,
		state:          ChannelClosed,
		bindings:       make(map[PayloadKind][]binding),
		pendingReplies: make(map[string]chan PayloadResponse),
	}
	ch.installDefaultBindings()
	return ch
}

func (ch *Channel) installDefaultBindings() {
	ch.bindings[KindPhxClose] = []binding{closeBinding(func(c *Channel, shouldRemove *bool) {
		c.state = ChannelClosed
		*shouldRemove = true
	})}

	ch.bindings[KindPhxError] = []binding{errorBinding(func(c *Channel) {
		if c.state != ChannelClosed && c.state != ChannelLeaving {
			c.state = ChannelErrored
		}
	})}

	ch.bindings[KindPhxReply] = []binding{replyBinding(func(c *Channel, payload Payload, ref string) {
		key := replyKey(ref)
		replyCh, ok := c.pendingReplies[key]
		if !ok {
			return
		}
		delete(c.pendingReplies, key)

		reply, _ := payload.(PhxReply)
		status := PushOk
		if !reply.IsOK() {
			status = PushError
		}

		select {
		case replyCh <- PayloadResponse{Status: status, Payload: payload}:
		default:
		}
	})}
}

func replyKey(ref string) string { return "chan_reply_" + ref }

// Topic reports the channel's full topic, including the "realtime:" prefix
// applied by Client.CreateChannel.
func (ch *Channel) Topic() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.topic
}

// RegisterEvent appends a binding for kind. Multiple handlers registered
// for the same kind fire in insertion order.
func (ch *Channel) RegisterEvent(kind PayloadKind, b binding) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.bindings[kind] = append(ch.bindings[kind], b)
}

// OnBroadcast registers fn as a handler for every inbound broadcast
// message. eventName is advisory only: every broadcast is delivered to
// every broadcast handler regardless of its inner Broadcast.Event.
func (ch *Channel) OnBroadcast(eventName string, fn func(payload Broadcast)) {
	ch.RegisterEvent(KindBroadcast, broadcastBinding(func(payload Payload) {
		b, ok := payload.(Broadcast)
		if !ok {
			return
		}
		fn(b)
	}))
}

// Subscribe joins the channel's topic on the server. It ensures the
// Client is connected, fails with ErrMultipleSubscription if already
// subscribed once, and otherwise arms callback against the join push's
// three possible outcomes before sending phx_join.
func (ch *Channel) Subscribe(callback SubscribeCallback) error {
	if !ch.client.IsConnected() {
		if err := ch.client.Connect(); err != nil {
			return err
		}
	}

	ch.mu.Lock()
	if ch.joinedOnce {
		ch.mu.Unlock()
		return ErrMultipleSubscription
	}
	ch.joinedOnce = true

	join := newPush(string(KindPhxJoin), PhxJoin{Config: ch.config, AccessToken: ch.client.accessToken()}, 0)
	ch.joinPush = join

	// The join outcome drives the state machine: ok moves a Joining channel
	// to Joined, an error reply or a timeout moves it to Errored. These
	// hooks are registered before callback's, so callback sees the new state.
	setState := func(next ChannelState) pushCallback {
		return func(Payload) {
			ch.mu.Lock()
			if ch.state == ChannelJoining {
				ch.state = next
			}
			ch.mu.Unlock()
		}
	}
	join.registerReceiveCallback(PushOk, setState(ChannelJoined))
	join.registerReceiveCallback(PushError, setState(ChannelErrored))
	join.registerReceiveCallback(PushTimedOut, setState(ChannelErrored))

	if callback != nil {
		join.registerReceiveCallback(PushOk, func(Payload) { callback(Subscribed, nil) })
		join.registerReceiveCallback(PushError, func(payload Payload) {
			reason := ""
			if reply, ok := payload.(PhxReply); ok {
				if errResp, err := reply.ErrorResponse(); err == nil {
					reason = errResp.Reason
				}
			}
			callback(SubscribeErrored, &SubscribeError{Payload: reason})
		})
		join.registerReceiveCallback(PushTimedOut, func(Payload) { callback(SubscribeTimedOut, nil) })
	}

	if ch.state == ChannelLeaving {
		ch.mu.Unlock()
		return nil
	}
	ch.state = ChannelJoining

	ref := ch.client.MakeRef()
	replyCh := make(chan PayloadResponse, 1)
	ch.pendingReplies[replyKey(ref)] = replyCh
	ch.mu.Unlock()

	return join.send(ch.client, ch.topic, ref, replyCh)
}

// Push sends event/payload as a fresh outbound request and returns the
// Push tracking its reply. It requires the channel to have subscribed at
// least once. If the Client is not currently connected, the push is
// never sent and no error is returned, matching the original's can_push
// branch, which logs and returns successfully; a future extension may
// buffer the push until (re)join instead of dropping it.
func (ch *Channel) Push(event string, payload Payload) (*Push, error) {
	ch.mu.Lock()
	if !ch.joinedOnce {
		ch.mu.Unlock()
		return nil, &PushWhileUnsubscribedError{Event: event, Topic: ch.topic}
	}

	p := newPush(event, payload, 0)
	ref := ch.client.MakeRef()
	replyCh := make(chan PayloadResponse, 1)
	ch.pendingReplies[replyKey(ref)] = replyCh
	connected := ch.client.IsConnected()
	ch.mu.Unlock()

	if !connected {
		log.Printf("[realtime] didn't push %q on %s: client not connected", event, ch.topic)
		return p, nil
	}

	if err := p.send(ch.client, ch.topic, ref, replyCh); err != nil {
		return nil, err
	}
	return p, nil
}

// SendBroadcast is a thin alias for Push that wraps payload as a
// Broadcast{Event: event, Payload: payload}.
func (ch *Channel) SendBroadcast(event string, payload json.RawMessage) (*Push, error) {
	return ch.Push(string(KindBroadcast), Broadcast{Event: event, Payload: payload})
}

// Leave sends phx_leave and transitions the channel to Leaving; the
// default phx_close binding completes the transition to Closed once the
// server acknowledges.
func (ch *Channel) Leave() error {
	ch.mu.Lock()
	ch.state = ChannelLeaving
	ch.mu.Unlock()

	_, err := ch.Push(string(KindPhxLeave), PhxLeave{})
	return err
}

// trigger dispatches an inbound payload to the bindings registered for
// its kind, applying the stale control filter first. shouldRemove is set
// to true by a binding (phx_close's, by default) that wants the Client to
// drop this Channel from its registry.
func (ch *Channel) trigger(payload Payload, ref string) (shouldRemove bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ref != "" && staleControlKinds[payload.Kind()] {
		var joinRef string
		if ch.joinPush != nil {
			joinRef = ch.joinPush.Ref()
		}
		if ref != joinRef {
			return false
		}
	}

	for _, b := range ch.bindings[payload.Kind()] {
		b.invoke(ch, payload, ref, &shouldRemove)
	}
	return shouldRemove
}

func (ch *Channel) String() string {
	return fmt.Sprintf("Channel(%s)", ch.Topic())
}
