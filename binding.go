package realtime

// The four binding capabilities mirror spec.md §9's "Reply, Broadcast,
// Error, Close" closures: a small tagged union of function values. The
// reply, error and close handlers are invoked with a mutable reference to
// the channel's own state; the broadcast handler gets the payload only. Handlers
// run synchronously while the channel's mutex is held, so a handler must
// never call back into the same Channel.
type (
	replyHandler     func(ch *Channel, payload Payload, ref string)
	broadcastHandler func(payload Payload)
	errorHandler     func(ch *Channel)
	closeHandler     func(ch *Channel, shouldRemove *bool)
)

// binding pairs a PayloadKind with exactly one handler capability.
type binding struct {
	reply     replyHandler
	broadcast broadcastHandler
	err       errorHandler
	close     closeHandler
}

func replyBinding(h replyHandler) binding         { return binding{reply: h} }
func broadcastBinding(h broadcastHandler) binding { return binding{broadcast: h} }
func errorBinding(h errorHandler) binding         { return binding{err: h} }
func closeBinding(h closeHandler) binding         { return binding{close: h} }

func (b binding) invoke(ch *Channel, payload Payload, ref string, shouldRemove *bool) {
	switch {
	case b.reply != nil:
		b.reply(ch, payload, ref)
	case b.broadcast != nil:
		b.broadcast(payload)
	case b.err != nil:
		b.err(ch)
	case b.close != nil:
		b.close(ch, shouldRemove)
	}
}
