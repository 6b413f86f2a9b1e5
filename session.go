package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"ftpbridge/auth"
	"ftpbridge/backend"
	"ftpbridge/security"
)

// ClientSession is the state of one control connection. It is created on
// accept, mutated only by its own serve goroutine, and destroyed on close
// together with any data channel it owns.
type ClientSession struct {
	id     string
	server *FTPServer

	controlConn net.Conn
	clientIP    string
	logger      *zap.SugaredLogger

	authenticated bool
	username      string
	credential    string
	clientInfo    string
	currentDir    string
	transferType  string

	// remoteDataAddr is the address captured from PORT; informational only.
	remoteDataAddr string

	// dataMu guards data: the session goroutine replaces the channel on
	// PASV while server shutdown tears it down from another goroutine.
	dataMu sync.Mutex
	data   *dataChannel

	ctx       context.Context
	cancel    context.CancelFunc
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newClientSession(server *FTPServer, conn net.Conn) *ClientSession {
	ctx, cancel := context.WithCancel(server.ctx)
	id := uuid.NewString()
	ip := clientIP(conn)
	return &ClientSession{
		id:           id,
		server:       server,
		controlConn:  conn,
		clientIP:     ip,
		logger:       server.logger.With("conn_id", id, "ip", ip),
		currentDir:   "/",
		transferType: "I",
		ctx:          ctx,
		cancel:       cancel,
	}
}

// serve runs the command loop: frame CRLF lines, split verb and argument,
// and dispatch strictly in arrival order. It returns when the connection
// closes or idles out.
func (session *ClientSession) serve() {
	defer func() {
		session.Close()
		session.server.unregister(session)
		session.logger.Info("client disconnected")
	}()

	session.logger.Info("client connected")
	session.SendResponse(220, "FTP bridge ready")

	reader := bufio.NewReader(session.controlConn)
	for {
		session.controlConn.SetReadDeadline(time.Now().Add(session.server.cfg.GetIdleTimeout()))
		line, err := reader.ReadString('\n')
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				session.SendResponse(421, "Idle timeout, closing control connection")
			}
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		verb, arg := line, ""
		if i := strings.IndexByte(line, ' '); i >= 0 {
			// The argument stays a single string; paths may contain spaces.
			verb, arg = line[:i], strings.TrimSpace(line[i+1:])
		}
		verb = strings.ToUpper(verb)

		if verb == "PASS" {
			session.logger.Debugw("command", "verb", verb, "arg", "[REDACTED]")
		} else {
			session.logger.Debugw("command", "verb", verb, "arg", arg)
		}

		session.server.dispatcher.Dispatch(session, verb, arg)

		select {
		case <-session.ctx.Done():
			return
		default:
		}
	}
}

// SendResponse writes a single-line reply on the control connection.
func (session *ClientSession) SendResponse(code int, message string) {
	session.writeMu.Lock()
	defer session.writeMu.Unlock()

	if _, err := fmt.Fprintf(session.controlConn, "%d %s\r\n", code, message); err != nil {
		session.logger.Debugw("failed to send reply", "code", code, "error", err)
		return
	}
	session.logger.Debugw("reply", "code", code, "message", message)
}

// SendLines writes a multi-line reply; each entry verbatim plus CRLF.
func (session *ClientSession) SendLines(lines []string) {
	session.writeMu.Lock()
	defer session.writeMu.Unlock()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	if _, err := session.controlConn.Write([]byte(b.String())); err != nil {
		session.logger.Debugw("failed to send multi-line reply", "error", err)
	}
}

func (session *ClientSession) IsAuthenticated() bool { return session.authenticated }

func (session *ClientSession) SetAuthenticated(ok bool) { session.authenticated = ok }

func (session *ClientSession) Username() string { return session.username }

func (session *ClientSession) SetUsername(name string) { session.username = name }

func (session *ClientSession) Credential() string { return session.credential }

func (session *ClientSession) SetCredential(cred string) { session.credential = cred }

func (session *ClientSession) ClientInfo() string { return session.clientInfo }

func (session *ClientSession) SetClientInfo(info string) { session.clientInfo = info }

func (session *ClientSession) CurrentDir() string { return session.currentDir }

func (session *ClientSession) SetCurrentDir(dir string) { session.currentDir = dir }

func (session *ClientSession) TransferType() string { return session.transferType }

func (session *ClientSession) SetTransferType(t string) { session.transferType = t }

func (session *ClientSession) ClientIP() string { return session.clientIP }

func (session *ClientSession) SetRemoteDataAddr(a string) { session.remoteDataAddr = a }

// ResolvePath joins a command argument with the working directory and
// normalizes separators. It deliberately keeps ".." segments so the
// validator rejects traversal attempts instead of silently cleaning them.
func (session *ClientSession) ResolvePath(arg string) string {
	resolved := arg
	if !strings.HasPrefix(arg, "/") {
		if session.currentDir == "/" {
			resolved = "/" + arg
		} else {
			resolved = session.currentDir + "/" + arg
		}
	}
	return security.Normalize(resolved)
}

// AllowAuthAttempt enforces the brute-force lockout: at the failure
// threshold the connection is told 421 and forcibly closed.
func (session *ClientSession) AllowAuthAttempt() bool {
	if session.server.limiter.AllowAuthAttempt(session.clientIP) {
		return true
	}
	session.SendResponse(421, "Too many authentication failures, closing control connection")
	session.logger.Warnw("auth failure lockout", "username", session.username)
	session.Close()
	return false
}

// RecordAuthFailure counts one failed login against this client's address.
func (session *ClientSession) RecordAuthFailure() {
	session.server.limiter.RecordAuthFailure(session.clientIP)
	session.logger.Infow("login failed", "username", session.username)
}

func (session *ClientSession) Backend() backend.Client { return session.server.backend }

func (session *ClientSession) AuthService() *auth.Service { return session.server.auth }

func (session *ClientSession) MaxUpload() int64 { return session.server.cfg.GetMaxUpload() }

func (session *ClientSession) DataTimeout() time.Duration { return session.server.cfg.GetDataTimeout() }

func (session *ClientSession) Context() context.Context { return session.ctx }

func (session *ClientSession) Logger() *zap.SugaredLogger { return session.logger }

// Close tears the session down exactly once: the data channel first, then
// the control socket. Safe to call from the session's own handlers.
func (session *ClientSession) Close() {
	session.closeOnce.Do(func() {
		var result *multierror.Error
		session.cancel()
		session.CloseDataChannel()
		if err := session.controlConn.Close(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, os.ErrClosed) {
			result = multierror.Append(result, err)
		}
		if err := result.ErrorOrNil(); err != nil {
			session.logger.Debugw("session teardown", "error", err)
		}
	})
}
