package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPushDeliversOkToRegisteredHook(t *testing.T) {
	p := newPush(string(KindBroadcast), Broadcast{Event: "evt"}, 50*time.Millisecond)

	var got PayloadResponse
	done := make(chan struct{})
	p.registerReceiveCallback(PushOk, func(payload Payload) {
		got = PayloadResponse{Status: PushOk, Payload: payload}
		close(done)
	})

	replyCh := make(chan PayloadResponse, 1)
	p.mu.Lock()
	p.ref = "1"
	p.sent = true
	p.armed = true
	p.mu.Unlock()
	go p.awaitReply(replyCh)

	reply := PhxReply{Status: "ok"}
	replyCh <- PayloadResponse{Status: PushOk, Payload: reply}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hook never fired")
	}

	assert.Equal(t, PushOk, got.Status)
	assert.Equal(t, reply, got.Payload)
}

func TestPushTimesOutWhenNoReplyArrives(t *testing.T) {
	p := newPush(string(KindBroadcast), Broadcast{Event: "evt"}, 20*time.Millisecond)

	done := make(chan struct{})
	var gotStatus PushReplyStatus
	p.registerReceiveCallback(PushTimedOut, func(Payload) {
		gotStatus = PushTimedOut
		close(done)
	})

	replyCh := make(chan PayloadResponse)
	go p.awaitReply(replyCh)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout hook never fired")
	}

	assert.Equal(t, PushTimedOut, gotStatus)
	assert.True(t, p.hasStatus(PushTimedOut))
}

func TestRegisterReceiveCallbackFiresImmediatelyIfAlreadyReplied(t *testing.T) {
	p := newPush(string(KindBroadcast), Broadcast{Event: "evt"}, time.Second)
	p.deliver(PayloadResponse{Status: PushOk, Payload: PhxReply{Status: "ok"}})

	called := false
	p.registerReceiveCallback(PushOk, func(Payload) { called = true })

	assert.True(t, called)
}

func TestPushOnlyOneHookFiresPerReply(t *testing.T) {
	p := newPush(string(KindBroadcast), Broadcast{Event: "evt"}, time.Second)

	var okCount, errCount, timeoutCount int
	p.registerReceiveCallback(PushOk, func(Payload) { okCount++ })
	p.registerReceiveCallback(PushError, func(Payload) { errCount++ })
	p.registerReceiveCallback(PushTimedOut, func(Payload) { timeoutCount++ })

	replyCh := make(chan PayloadResponse, 1)
	replyCh <- PayloadResponse{Status: PushOk, Payload: PhxReply{Status: "ok"}}
	p.awaitReply(replyCh)

	assert.Equal(t, 1, okCount)
	assert.Equal(t, 0, errCount)
	assert.Equal(t, 0, timeoutCount)
}
