package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markb/driveshelf/internal/log"
)

// callbackServer is the bounded-lifetime loopback listener for one
// authorization redirect. It serves at most one request on the callback
// path and then shuts down; an inactivity timeout bounds its lifetime.
type callbackServer struct {
	srv     *http.Server
	ln      net.Listener
	handled chan struct{} // closed after the single callback request
	closed  chan struct{} // closed once the serve goroutine has exited
	once    sync.Once
}

// startListener binds the callback port and starts serving in the
// background. A bind failure is surfaced immediately; the flow cannot
// proceed without the redirect endpoint.
func (m *Manager) startListener() (*callbackServer, error) {
	ln, err := net.Listen("tcp", m.CallbackAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallbackServerFailed, err)
	}

	cs := &callbackServer{
		ln:      ln,
		handled: make(chan struct{}),
		closed:  make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Get(CallbackPath, func(w http.ResponseWriter, req *http.Request) {
		m.handleCallback(cs, w, req)
	})

	cs.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go cs.run(m.ListenTimeout)
	log.Debug("oauth callback listener started", "addr", cs.addr())
	return cs, nil
}

// addr returns the actually bound address, which differs from the configured
// one when an ephemeral port was requested.
func (cs *callbackServer) addr() string {
	return cs.ln.Addr().String()
}

func (cs *callbackServer) run(timeout time.Duration) {
	defer close(cs.closed)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- cs.srv.Serve(cs.ln)
	}()

	select {
	case <-cs.handled:
	case <-time.After(timeout):
		// Abandoned attempt: exit silently. The flow state stays set until
		// a new flow supersedes it.
		log.Info("oauth callback listener timed out", "addr", cs.addr())
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("oauth callback listener failed", "error", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cs.srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("oauth callback listener shutdown failed", "error", err)
	}
}

// stop terminates the listener immediately and waits for it to exit.
func (cs *callbackServer) stop() {
	cs.srv.Close()
	<-cs.closed
}

func (cs *callbackServer) markHandled() {
	cs.once.Do(func() { close(cs.handled) })
}

// handleCallback processes the single expected redirect. Whatever the
// outcome, the listener terminates after this request.
func (m *Manager) handleCallback(cs *callbackServer, w http.ResponseWriter, r *http.Request) {
	defer cs.markHandled()

	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		log.Warn("authorization rejected by provider", "error", errParam)
		writeFailurePage(w, "Authorization was denied: "+errParam)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeFailurePage(w, "Missing authorization code.")
		return
	}

	// Compare against the flow that is active now, not the one this
	// listener was started for: a stale callback must not succeed against a
	// newer flow.
	m.mu.Lock()
	var expected string
	if m.flow != nil {
		expected = m.flow.state
	}
	m.mu.Unlock()

	received := q.Get("state")
	if expected == "" || received != expected {
		log.Warn("oauth state mismatch", "expected", expected, "received", received)
		writeFailurePage(w, "State verification failed.")
		return
	}

	if err := m.exchangeFn(r.Context(), code); err != nil {
		log.Error("token exchange failed", "error", err)
		writeFailurePage(w, "Token exchange failed. Please try again.")
		return
	}

	log.Info("authorization flow completed")
	writeSuccessPage(w)
}
