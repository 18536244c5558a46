package proxy

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"meridian-hq/meridian/pkg/policy"
)

// tunnelDialTimeout bounds the connect to the tunnel target.
const tunnelDialTimeout = 10 * time.Second

// tunnel serves a CONNECT request by splicing the client connection to
// the target. TLS payloads pass through untouched; only the target
// host is subject to the loopback rewrite.
func (h *Handler) tunnel(w http.ResponseWriter, r *http.Request) {
	target := r.Host

	profile := &policy.RequestProfile{
		Method: r.Method,
		Host:   target,
		Header: r.Header,
	}
	decision := h.engine.Decide(profile)
	if decision.NormalizedHost != "" {
		if _, port, err := net.SplitHostPort(target); err == nil {
			target = net.JoinHostPort(decision.NormalizedHost, port)
		} else {
			target = decision.NormalizedHost
		}
	}

	upstream, err := net.DialTimeout("tcp", target, tunnelDialTimeout)
	if err != nil {
		h.logger.Warn("tunnel dial failed", "target", target, "error", err)
		http.Error(w, "tunnel target unreachable", http.StatusBadGateway)
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		upstream.Close()
		http.Error(w, "tunneling unsupported", http.StatusInternalServerError)
		return
	}
	client, buffered, err := hijacker.Hijack()
	if err != nil {
		upstream.Close()
		h.logger.Error("hijack failed", "error", err)
		return
	}

	client.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n"))

	h.logger.Debug("tunnel established", "target", target)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		io.Copy(upstream, buffered)
		upstream.Close()
	}()
	go func() {
		defer wg.Done()
		io.Copy(client, upstream)
		client.Close()
	}()
	wg.Wait()
}
