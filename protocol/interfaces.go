package protocol

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"ftpbridge/auth"
	"ftpbridge/backend"
)

// Session is the per-connection state a command handler operates on. The
// control engine owns the concrete implementation; handlers only see this
// interface, which keeps the protocol package testable with a fake.
type Session interface {
	// Replies
	SendResponse(code int, message string)
	// SendLines writes raw control lines for multi-line replies; each entry
	// is sent verbatim followed by CRLF.
	SendLines(lines []string)

	// Connection state
	IsAuthenticated() bool
	SetAuthenticated(ok bool)
	Username() string
	SetUsername(name string)
	Credential() string
	SetCredential(credential string)
	ClientInfo() string
	SetClientInfo(info string)
	CurrentDir() string
	SetCurrentDir(dir string)
	TransferType() string
	SetTransferType(t string)
	ClientIP() string

	// ResolvePath turns a command argument into an absolute virtual path
	// against the working directory. It does not validate.
	ResolvePath(arg string) string

	// Data channel (passive mode)
	OpenPassive() (host string, port int, err error)
	HasDataChannel() bool
	AwaitDataConn() (net.Conn, error)
	CloseDataChannel()
	SetRemoteDataAddr(addr string)

	// Security
	// AllowAuthAttempt consults the auth-failure limiter. On refusal it has
	// already sent 421 and closed the connection.
	AllowAuthAttempt() bool
	RecordAuthFailure()

	// Collaborators
	Backend() backend.Client
	AuthService() *auth.Service
	MaxUpload() int64
	// DataTimeout bounds both waits on the data channel: the accept inside
	// AwaitDataConn and any read a transfer performs on the peer.
	DataTimeout() time.Duration
	Context() context.Context
	Logger() *zap.SugaredLogger

	// Close tears the control connection down, including any data channel.
	Close()
}
