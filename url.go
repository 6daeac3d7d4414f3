package realtime

import (
	"regexp"
	"strings"
)

var (
	httpSchemePattern  = regexp.MustCompile(`(?i)http://`)
	httpsSchemePattern = regexp.MustCompile(`(?i)https://`)
)

// isWSURL reports whether rawURL's scheme (the text before its first
// colon) is one of ws, wss, http, or https, case-insensitively.
func isWSURL(rawURL string) bool {
	idx := strings.IndexByte(rawURL, ':')
	if idx < 0 {
		return false
	}
	switch strings.ToLower(rawURL[:idx]) {
	case "ws", "wss", "http", "https":
		return true
	default:
		return false
	}
}

// httpToWS normalizes an http(s) or ws(s) project URL into the realtime
// WebSocket endpoint: http:// becomes ws://, https:// becomes wss://, and
// the realtime websocket path is appended.
func httpToWS(httpURL string) string {
	replaced := httpSchemePattern.ReplaceAllString(httpURL, "ws://")
	replaced = httpsSchemePattern.ReplaceAllString(replaced, "wss://")
	return replaced + "/realtime/v1/websocket"
}
