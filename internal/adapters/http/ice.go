package http

import (
	"strings"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/Relay/internal/config"
)

// iceServers converts the configured STUN/TURN entries into the shape
// clients feed straight into RTCPeerConnection. TURN entries missing
// credentials are dropped, clients cannot use them.
func iceServers(cfg *config.Config) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for _, s := range cfg.ICEServers {
		if len(s.URLs) == 0 {
			continue
		}
		if hasTURNURL(s.URLs) && (s.Username == "" || s.Credential == "") {
			continue
		}
		server := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
		}
		out = append(out, server)
	}
	return out
}

func hasTURNURL(urls []string) bool {
	for _, raw := range urls {
		url := strings.ToLower(strings.TrimSpace(raw))
		if strings.HasPrefix(url, "turn:") || strings.HasPrefix(url, "turns:") {
			return true
		}
	}
	return false
}
