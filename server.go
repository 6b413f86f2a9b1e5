package main

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ftpbridge/auth"
	"ftpbridge/backend"
	"ftpbridge/config"
	"ftpbridge/protocol"
	"ftpbridge/security"
)

// FTPServer is the control-connection engine: it accepts connections,
// applies the per-IP connection gate, and runs one session goroutine per
// client. All cross-connection state lives in the injected rate limiter.
type FTPServer struct {
	cfg        *config.Config
	backend    backend.Client
	auth       *auth.Service
	limiter    *security.RateLimiter
	dispatcher *protocol.Dispatcher
	logger     *zap.SugaredLogger

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*ClientSession
	wg       sync.WaitGroup
}

// NewFTPServer wires the engine together. The backend client is injected so
// tests and the demo mode can swap in the in-memory implementation.
func NewFTPServer(cfg *config.Config, be backend.Client, log *zap.Logger) *FTPServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &FTPServer{
		cfg:        cfg,
		backend:    be,
		auth:       auth.NewService(cfg.StaticUsers()),
		limiter:    security.NewRateLimiter(),
		dispatcher: protocol.NewDispatcher(security.NewPathValidator(cfg.GetNamespaces())),
		logger:     log.Sugar(),
		ctx:        ctx,
		cancel:     cancel,
		sessions:   make(map[string]*ClientSession),
	}
}

// ListenAndServe binds the control listener and serves until Stop.
func (server *FTPServer) ListenAndServe() error {
	listener, err := net.Listen("tcp4", server.cfg.GetListenAddr())
	if err != nil {
		return fmt.Errorf("start FTP listener: %w", err)
	}
	server.mu.Lock()
	server.listener = listener
	server.mu.Unlock()
	server.logger.Infow("FTP bridge started",
		"addr", listener.Addr().String(),
		"namespaces", server.cfg.GetNamespaces())

	g, ctx := errgroup.WithContext(server.ctx)
	g.Go(func() error { return server.acceptLoop(ctx) })
	g.Go(func() error { return server.sweepLoop(ctx) })
	return g.Wait()
}

// Addr returns the bound control address, for tests using port 0.
func (server *FTPServer) Addr() net.Addr {
	server.mu.Lock()
	defer server.mu.Unlock()
	if server.listener == nil {
		return nil
	}
	return server.listener.Addr()
}

func (server *FTPServer) acceptLoop(ctx context.Context) error {
	for {
		conn, err := server.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			server.logger.Errorw("accept failed", "error", err)
			continue
		}

		ip := clientIP(conn)
		if !server.limiter.AllowConnection(ip) {
			// Refused before any session state exists.
			conn.Write([]byte("421 Too many connections from your address, try again later\r\n"))
			conn.Close()
			server.logger.Warnw("connection rate limited", "ip", ip)
			continue
		}

		session := newClientSession(server, conn)
		server.register(session)
		server.wg.Add(1)
		go func() {
			defer server.wg.Done()
			session.serve()
		}()
	}
}

// sweepLoop periodically expires stale rate-limit buckets.
func (server *FTPServer) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(security.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			server.limiter.Sweep()
		}
	}
}

func (server *FTPServer) register(session *ClientSession) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.sessions[session.id] = session
}

func (server *FTPServer) unregister(session *ClientSession) {
	server.mu.Lock()
	defer server.mu.Unlock()
	delete(server.sessions, session.id)
}

// Stop shuts the server down: close the listener, cancel the root context,
// and synchronously close every live session.
func (server *FTPServer) Stop() error {
	var result *multierror.Error

	server.cancel()
	server.mu.Lock()
	listener := server.listener
	server.mu.Unlock()
	if listener != nil {
		if err := listener.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	server.mu.Lock()
	sessions := make([]*ClientSession, 0, len(server.sessions))
	for _, s := range server.sessions {
		sessions = append(sessions, s)
	}
	server.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}

	server.wg.Wait()
	server.logger.Info("FTP bridge stopped")
	return result.ErrorOrNil()
}

// clientIP extracts the remote IP used as the rate-limiting key.
func clientIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
