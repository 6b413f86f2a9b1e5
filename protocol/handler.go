package protocol

// CommandHandler executes FTP commands against an injected Session.
type CommandHandler struct {
	session Session
}

// NewCommandHandler creates a handler bound to one session.
func NewCommandHandler(session Session) *CommandHandler {
	return &CommandHandler{session: session}
}
