package protocol

import (
	"ftpbridge/security"
)

// Dispatcher routes command lines to their handlers, enforcing the
// preconditions of each descriptor before any command-specific effect runs.
type Dispatcher struct {
	validator *security.PathValidator
	commands  map[string]command
}

// NewDispatcher builds a dispatcher over the static command table.
func NewDispatcher(validator *security.PathValidator) *Dispatcher {
	return &Dispatcher{
		validator: validator,
		commands:  commandTable,
	}
}

// Dispatch executes one command. verb must already be upper-cased; arg is
// the remainder of the line, spaces included. Every path through here ends
// with exactly one terminal status reply on the control connection.
func (d *Dispatcher) Dispatch(s Session, verb, arg string) {
	cmd, ok := d.commands[verb]
	if !ok {
		s.SendResponse(502, "Command not implemented")
		return
	}

	if cmd.requireAuth && !s.IsAuthenticated() {
		if verb == "PASS" {
			// Brute-force gate: at the failure threshold the session has
			// already replied 421 and closed; nothing more to do.
			if !s.AllowAuthAttempt() {
				return
			}
		} else {
			s.SendResponse(530, "Please login with USER and PASS")
			return
		}
	}

	if cmd.requireData && !s.HasDataChannel() {
		s.SendResponse(425, "Use PASV first")
		return
	}

	if cmd.takesPath && arg != "" {
		if !d.validator.Validate(s.ResolvePath(arg)) {
			s.SendResponse(553, "Requested action not taken, invalid path")
			return
		}
	}

	wasAuthenticated := s.IsAuthenticated()
	defer func() {
		if r := recover(); r != nil {
			s.Logger().Errorw("command panicked", "verb", verb, "panic", r)
			s.SendResponse(550, "Requested action not taken, command failed")
			return
		}
		if verb == "PASS" && !wasAuthenticated && !s.IsAuthenticated() {
			s.RecordAuthFailure()
		}
	}()

	cmd.handler(NewCommandHandler(s), arg)
}
