package main

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// Data channel failure modes surfaced to the transfer commands.
var (
	errDataTimeout = errors.New("timed out waiting for data connection")
	errDataClosed  = errors.New("data channel closed")
)

// dataChannel is the passive-mode data connection of one session. Its state
// machine is: listening (no peer) -> connected (peer present) -> closed.
// A new OpenPassive call forces any state back through closed and restarts.
// A lost peer is not tracked as its own state: every transfer command tears
// the whole channel down when it ends, so a stale socket never outlives the
// command that used it.
type dataChannel struct {
	listener net.Listener
	port     int

	mu     sync.Mutex
	conn   net.Conn
	closed bool
	// ready delivers the first accepted peer to an awaiting transfer.
	ready chan net.Conn
}

// OpenPassive replaces any existing data channel with a fresh ephemeral
// listener and returns the host/port pair to advertise. Exactly one live
// data channel per control connection at all times.
func (session *ClientSession) OpenPassive() (string, int, error) {
	session.CloseDataChannel()

	listener, err := net.Listen("tcp4", passiveBindAddr(session.server.cfg.GetListenAddr()))
	if err != nil {
		session.logger.Errorw("passive bind failed", "error", err)
		return "", 0, fmt.Errorf("bind passive listener: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	dc := &dataChannel{
		listener: listener,
		port:     port,
		ready:    make(chan net.Conn, 1),
	}
	session.dataMu.Lock()
	if session.ctx.Err() != nil {
		// The session closed while we were binding; registering now would
		// leak a listener that nothing tears down.
		session.dataMu.Unlock()
		listener.Close()
		return "", 0, errDataClosed
	}
	session.data = dc
	session.dataMu.Unlock()
	go dc.acceptOne()

	session.logger.Debugw("passive listener ready", "port", port)
	return session.server.cfg.GetPublicHost(), port, nil
}

// passiveBindAddr derives the data listener's bind address from the control
// listen address, so both sockets sit on the same interface.
func passiveBindAddr(listenAddr string) string {
	host, _, err := net.SplitHostPort(listenAddr)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, "0")
}

// acceptOne hands the first peer over to the channel. Closing the listener
// makes Accept fail and ends the goroutine.
func (dc *dataChannel) acceptOne() {
	conn, err := dc.listener.Accept()
	if err != nil {
		return
	}

	dc.mu.Lock()
	if dc.closed {
		dc.mu.Unlock()
		conn.Close()
		return
	}
	dc.conn = conn
	dc.mu.Unlock()
	dc.ready <- conn
}

// HasDataChannel reports whether a passive channel exists (listening or
// connected).
func (session *ClientSession) HasDataChannel() bool {
	session.dataMu.Lock()
	defer session.dataMu.Unlock()
	return session.data != nil
}

// AwaitDataConn returns the connected peer, waiting up to the configured
// data timeout for one to arrive. On timeout the channel is torn down so no
// half-initialized state stays registered; the caller translates the error
// into a 425/426 reply.
func (session *ClientSession) AwaitDataConn() (net.Conn, error) {
	session.dataMu.Lock()
	dc := session.data
	session.dataMu.Unlock()
	if dc == nil {
		return nil, errDataClosed
	}

	dc.mu.Lock()
	conn := dc.conn
	dc.mu.Unlock()
	if conn != nil {
		return conn, nil
	}

	timer := time.NewTimer(session.server.cfg.GetDataTimeout())
	defer timer.Stop()
	select {
	case conn := <-dc.ready:
		return conn, nil
	case <-timer.C:
		session.CloseDataChannel()
		return nil, errDataTimeout
	case <-session.ctx.Done():
		session.CloseDataChannel()
		return nil, errDataClosed
	}
}

// CloseDataChannel tears down the listener and any connected peer. Safe to
// call repeatedly and with no channel present.
func (session *ClientSession) CloseDataChannel() {
	session.dataMu.Lock()
	dc := session.data
	session.data = nil
	session.dataMu.Unlock()
	if dc == nil {
		return
	}

	dc.mu.Lock()
	dc.closed = true
	conn := dc.conn
	dc.conn = nil
	dc.mu.Unlock()

	dc.listener.Close()
	if conn != nil {
		conn.Close()
	}
	// Drain a peer that raced past the closed check.
	select {
	case raced := <-dc.ready:
		raced.Close()
	default:
	}
}
