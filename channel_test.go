package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChannel() *Channel {
	client := &Client{channels: make(map[string]*Channel)}
	return newChannel("realtime:t", client, JoinConfig{})
}

func TestChannelInitialState(t *testing.T) {
	ch := newTestChannel()
	assert.Equal(t, ChannelClosed, ch.state)
	assert.False(t, ch.joinedOnce)
}

func TestChannelPhxCloseBindingClosesAndRequestsRemoval(t *testing.T) {
	ch := newTestChannel()
	ch.state = ChannelJoined

	shouldRemove := ch.trigger(PhxClose{}, "")

	assert.True(t, shouldRemove)
	assert.Equal(t, ChannelClosed, ch.state)
}

func TestChannelPhxErrorBindingSetsErroredUnlessClosedOrLeaving(t *testing.T) {
	ch := newTestChannel()
	ch.state = ChannelJoined

	ch.trigger(PhxError{}, "")
	assert.Equal(t, ChannelErrored, ch.state)

	ch2 := newTestChannel()
	ch2.state = ChannelLeaving
	ch2.trigger(PhxError{}, "")
	assert.Equal(t, ChannelLeaving, ch2.state)
}

func TestChannelPhxReplyDeliversToPendingSlot(t *testing.T) {
	ch := newTestChannel()
	replyCh := make(chan PayloadResponse, 1)
	ch.pendingReplies[replyKey("1")] = replyCh

	reply := PhxReply{Status: "ok", Response: nil}
	shouldRemove := ch.trigger(reply, "1")

	assert.False(t, shouldRemove)
	select {
	case resp := <-replyCh:
		assert.Equal(t, PushOk, resp.Status)
		assert.Equal(t, reply, resp.Payload)
	default:
		t.Fatal("reply was not delivered")
	}
	_, stillPending := ch.pendingReplies[replyKey("1")]
	assert.False(t, stillPending)
}

func TestChannelPhxReplyToUnknownRefIsDiscarded(t *testing.T) {
	ch := newTestChannel()
	shouldRemove := ch.trigger(PhxReply{Status: "ok"}, "no-such-ref")
	assert.False(t, shouldRemove)
}

func TestChannelStaleControlFilterDiscardsMismatchedJoinRef(t *testing.T) {
	ch := newTestChannel()
	ch.joinPush = newPush(string(KindPhxJoin), PhxJoin{}, 0)
	ch.joinPush.ref = "1"
	ch.state = ChannelJoining

	shouldRemove := ch.trigger(PhxError{}, "0")

	assert.False(t, shouldRemove)
	assert.Equal(t, ChannelJoining, ch.state)
}

func TestChannelStaleControlFilterAllowsMatchingJoinRef(t *testing.T) {
	ch := newTestChannel()
	ch.joinPush = newPush(string(KindPhxJoin), PhxJoin{}, 0)
	ch.joinPush.ref = "1"
	ch.state = ChannelJoining

	ch.trigger(PhxError{}, "1")

	assert.Equal(t, ChannelErrored, ch.state)
}

func TestChannelOnBroadcastReceivesOnlyBroadcastPayloads(t *testing.T) {
	ch := newTestChannel()

	var received []Broadcast
	ch.OnBroadcast("evt", func(payload Broadcast) {
		received = append(received, payload)
	})

	ch.trigger(Broadcast{Event: "evt", Payload: []byte(`{"m":"1"}`)}, "1")
	ch.trigger(System{Channel: "t"}, "")
	ch.trigger(Broadcast{Event: "evt", Payload: []byte(`{"m":"2"}`)}, "2")

	require.Len(t, received, 2)
	assert.Equal(t, "evt", received[0].Event)
}

func TestChannelRegisterEventFiresInInsertionOrder(t *testing.T) {
	ch := newTestChannel()

	var order []int
	ch.RegisterEvent(KindSystem, broadcastBinding(func(Payload) { order = append(order, 1) }))
	ch.RegisterEvent(KindSystem, broadcastBinding(func(Payload) { order = append(order, 2) }))

	ch.trigger(System{}, "")

	assert.Equal(t, []int{1, 2}, order)
}

func TestChannelPushBeforeSubscribeFails(t *testing.T) {
	ch := newTestChannel()
	_, err := ch.Push(string(KindBroadcast), Broadcast{Event: "evt"})

	var pushErr *PushWhileUnsubscribedError
	require.ErrorAs(t, err, &pushErr)
	assert.Equal(t, "realtime:t", pushErr.Topic)
}

func TestChannelPushWhileDisconnectedIsDroppedSilently(t *testing.T) {
	ch := newTestChannel()
	ch.joinedOnce = true

	p, err := ch.Push(string(KindBroadcast), Broadcast{Event: "evt"})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "", p.Ref(), "an unsent push never records a ref")
}
