package testctl

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

func localAddr(port int) string { return net.JoinHostPort("127.0.0.1", strconv.Itoa(port)) }

// chooseFreePort asks the kernel for an ephemeral port and releases it.
func chooseFreePort() (int, error) {
	l, err := net.Listen("tcp", localAddr(0))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// portBusy reports whether something accepts connections on port.
func portBusy(port int) bool {
	conn, err := net.DialTimeout("tcp", localAddr(port), 200*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// waitHTTP polls url until it answers with want or ctx ends.
func waitHTTP(ctx context.Context, url string, want int) error {
	client := &http.Client{Timeout: 2 * time.Second}
	last := "no response"
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == want {
				return nil
			}
			last = resp.Status
		}
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s to return %d (last: %s): %w", url, want, last, ctx.Err())
		}
	}
}

// ensurePort fails when port is taken, unless force lets fuser kill the
// listener first.
func ensurePort(port int, force bool) error {
	if !portBusy(port) {
		debug("[ports] Port %d is free", port)
		return nil
	}
	if !force {
		return fmt.Errorf("port %d is in use; re-run with --force or free it", port)
	}
	warn("[ports] Port %d is busy; killing listeners (--force)", port)
	_ = runCmdVerbose(context.Background(), "fuser", "-k", fmt.Sprintf("%d/tcp", port))
	time.Sleep(300 * time.Millisecond)
	if portBusy(port) {
		return fmt.Errorf("could not free port %d; still in use", port)
	}
	info("[ports] Freed port %d", port)
	return nil
}
