// Package realtime is a client for a Phoenix-style realtime messaging
// service carried over a single WebSocket. A process opens one connection,
// multiplexes logical channels (topic subscriptions) over it, exchanges
// framed JSON messages on each channel, and receives asynchronous
// server-initiated events such as broadcasts, presence changes, database
// change notifications, and system messages.
package realtime
