package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWSURL(t *testing.T) {
	cases := map[string]bool{
		"ws://h":     true,
		"wss://h":    true,
		"http://h":   true,
		"HTTPS://h":  true,
		"ftp://h":    false,
		"not-a-url":  false,
		"":           false,
	}
	for input, want := range cases {
		assert.Equal(t, want, isWSURL(input), "input %q", input)
	}
}

func TestHTTPToWS(t *testing.T) {
	assert.Equal(t, "ws://h/realtime/v1/websocket", httpToWS("http://h"))
	assert.Equal(t, "wss://h/realtime/v1/websocket", httpToWS("https://h"))
	assert.Equal(t, "ws://h/realtime/v1/websocket", httpToWS("ws://h"))
	assert.Equal(t, "wss://h/realtime/v1/websocket", httpToWS("wss://h"))
}
