package protocol

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ftpbridge/auth"
	"ftpbridge/backend"
	"ftpbridge/security"
)

type reply struct {
	code int
	msg  string
}

// fakeSession implements Session for handler and dispatcher tests.
type fakeSession struct {
	authenticated bool
	username      string
	credential    string
	clientInfo    string
	dir           string
	transferType  string

	hasData  bool
	dataConn net.Conn
	awaitErr error
	openErr  error
	openHost string
	openPort int

	remoteData string
	allowAuth  bool
	failures   int
	closed     bool

	be  backend.Client
	svc *auth.Service

	replies []reply
	lines   [][]string
}

var _ Session = (*fakeSession)(nil)

func newFakeSession() *fakeSession {
	return &fakeSession{
		dir:          "/",
		transferType: "I",
		allowAuth:    true,
		openHost:     "127.0.0.1",
		openPort:     2560,
		svc:          auth.NewService(nil),
		be:           backend.NewMemory("/data", "/meta"),
	}
}

func (s *fakeSession) SendResponse(code int, message string) {
	s.replies = append(s.replies, reply{code, message})
}
func (s *fakeSession) SendLines(lines []string)   { s.lines = append(s.lines, lines) }
func (s *fakeSession) IsAuthenticated() bool      { return s.authenticated }
func (s *fakeSession) SetAuthenticated(ok bool)   { s.authenticated = ok }
func (s *fakeSession) Username() string           { return s.username }
func (s *fakeSession) SetUsername(name string)    { s.username = name }
func (s *fakeSession) Credential() string         { return s.credential }
func (s *fakeSession) SetCredential(cred string)  { s.credential = cred }
func (s *fakeSession) ClientInfo() string         { return s.clientInfo }
func (s *fakeSession) SetClientInfo(info string)  { s.clientInfo = info }
func (s *fakeSession) CurrentDir() string         { return s.dir }
func (s *fakeSession) SetCurrentDir(dir string)   { s.dir = dir }
func (s *fakeSession) TransferType() string       { return s.transferType }
func (s *fakeSession) SetTransferType(t string)   { s.transferType = t }
func (s *fakeSession) ClientIP() string           { return "10.0.0.1" }
func (s *fakeSession) SetRemoteDataAddr(a string) { s.remoteData = a }

func (s *fakeSession) ResolvePath(arg string) string {
	resolved := arg
	if len(arg) == 0 || arg[0] != '/' {
		if s.dir == "/" {
			resolved = "/" + arg
		} else {
			resolved = s.dir + "/" + arg
		}
	}
	return security.Normalize(resolved)
}

func (s *fakeSession) OpenPassive() (string, int, error) {
	if s.openErr != nil {
		return "", 0, s.openErr
	}
	s.hasData = true
	return s.openHost, s.openPort, nil
}
func (s *fakeSession) HasDataChannel() bool { return s.hasData }
func (s *fakeSession) AwaitDataConn() (net.Conn, error) {
	if s.awaitErr != nil {
		return nil, s.awaitErr
	}
	return s.dataConn, nil
}
func (s *fakeSession) CloseDataChannel() { s.hasData = false }

func (s *fakeSession) AllowAuthAttempt() bool {
	if s.allowAuth {
		return true
	}
	s.SendResponse(421, "Too many authentication failures, closing control connection")
	s.closed = true
	return false
}
func (s *fakeSession) RecordAuthFailure() { s.failures++ }

func (s *fakeSession) Backend() backend.Client    { return s.be }
func (s *fakeSession) AuthService() *auth.Service { return s.svc }
func (s *fakeSession) MaxUpload() int64           { return 1 << 20 }
func (s *fakeSession) DataTimeout() time.Duration { return time.Second }
func (s *fakeSession) Context() context.Context   { return context.Background() }
func (s *fakeSession) Logger() *zap.SugaredLogger { return zap.NewNop().Sugar() }
func (s *fakeSession) Close()                     { s.closed = true }

func (s *fakeSession) lastReply(t *testing.T) reply {
	t.Helper()
	require.NotEmpty(t, s.replies, "expected at least one reply")
	return s.replies[len(s.replies)-1]
}

// fakeDataConn is an in-memory net.Conn good enough for transfer handlers.
type fakeDataConn struct {
	in  *bytes.Reader
	out bytes.Buffer

	readDeadline time.Time
}

func newFakeDataConn(content []byte) *fakeDataConn {
	return &fakeDataConn{in: bytes.NewReader(content)}
}

func (c *fakeDataConn) Read(p []byte) (int, error)         { return c.in.Read(p) }
func (c *fakeDataConn) Write(p []byte) (int, error)        { return c.out.Write(p) }
func (c *fakeDataConn) Close() error                       { return nil }
func (c *fakeDataConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *fakeDataConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *fakeDataConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeDataConn) SetReadDeadline(t time.Time) error  { c.readDeadline = t; return nil }
func (c *fakeDataConn) SetWriteDeadline(t time.Time) error { return nil }

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(security.NewPathValidator(nil))
}

func TestDispatchUnknownVerb(t *testing.T) {
	d := newTestDispatcher()
	s := newFakeSession()

	d.Dispatch(s, "XYZZY", "")
	assert.Equal(t, 502, s.lastReply(t).code)
}

func TestDispatchAuthGate(t *testing.T) {
	d := newTestDispatcher()
	s := newFakeSession()

	// Auth-requiring command never executes unauthenticated, regardless of
	// argument validity.
	d.Dispatch(s, "CWD", "/data")
	assert.Equal(t, 530, s.lastReply(t).code)
	assert.Equal(t, "/", s.dir, "handler must not have run")

	d.Dispatch(s, "DELE", "definitely-not-a-path")
	assert.Equal(t, 530, s.lastReply(t).code)
}

func TestDispatchDataGate(t *testing.T) {
	d := newTestDispatcher()
	s := newFakeSession()
	s.authenticated = true

	d.Dispatch(s, "RETR", "/data/x")
	assert.Equal(t, 425, s.lastReply(t).code)

	d.Dispatch(s, "LIST", "")
	assert.Equal(t, 425, s.lastReply(t).code)
}

func TestDispatchPathGate(t *testing.T) {
	d := newTestDispatcher()
	s := newFakeSession()
	s.authenticated = true

	tests := []string{
		"../etc/passwd",
		"/etc/passwd",
		"/data/users/../../etc/passwd",
		"a\\b",
	}
	for _, p := range tests {
		s.replies = nil
		d.Dispatch(s, "DELE", p)
		assert.Equal(t, 553, s.lastReply(t).code, "DELE %q", p)
	}

	// Non-path arguments bypass the validator.
	s.replies = nil
	d.Dispatch(s, "USER", "root")
	assert.Equal(t, 331, s.lastReply(t).code)
}

func TestDispatchRecordsAuthFailure(t *testing.T) {
	d := newTestDispatcher()
	s := newFakeSession()
	s.username = "root"

	d.Dispatch(s, "PASS", "not-token-shaped")
	assert.Equal(t, 530, s.lastReply(t).code)
	assert.Equal(t, 1, s.failures)
	assert.False(t, s.authenticated)

	// A successful login records nothing further.
	d.Dispatch(s, "PASS", "a.b.c")
	assert.Equal(t, 230, s.lastReply(t).code)
	assert.Equal(t, 1, s.failures)
	assert.True(t, s.authenticated)
}

func TestDispatchAuthLockout(t *testing.T) {
	d := newTestDispatcher()
	s := newFakeSession()
	s.username = "root"
	s.allowAuth = false

	d.Dispatch(s, "PASS", "a.b.c")
	assert.Equal(t, 421, s.lastReply(t).code)
	assert.True(t, s.closed)
	assert.False(t, s.authenticated, "handler must not have run")
	assert.Zero(t, s.failures, "refused attempts are not re-recorded")
}

func TestDispatchRecoversPanics(t *testing.T) {
	d := newTestDispatcher()
	s := newFakeSession()
	s.authenticated = true
	s.hasData = true
	s.be = nil // forces a nil dereference inside the handler

	d.Dispatch(s, "LIST", "")
	assert.Equal(t, 550, s.lastReply(t).code)
}
