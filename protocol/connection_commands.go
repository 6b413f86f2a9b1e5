package protocol

import (
	"fmt"
	"strings"
)

// Login and session housekeeping commands.

// HandleUSER records the username and asks for the password.
func (h *CommandHandler) HandleUSER(name string) {
	h.withValidParam(name, func() {
		h.session.SetUsername(name)
		h.session.SendResponse(331, fmt.Sprintf("Password required for %s", name))
	})
}

// HandlePASS completes the login sequence. The credential is checked for
// shape (or against the static user table) and kept verbatim for the
// backend; a failed attempt is recorded by the dispatcher.
func (h *CommandHandler) HandlePASS(credential string) {
	if h.session.IsAuthenticated() {
		h.session.SendResponse(230, "Already logged in")
		return
	}
	if h.session.Username() == "" {
		h.session.SendResponse(503, "Login with USER first")
		return
	}

	if h.session.AuthService().Verify(h.session.Username(), credential) {
		h.session.SetAuthenticated(true)
		h.session.SetCredential(credential)
		h.session.SendResponse(230, fmt.Sprintf("User %s logged in", h.session.Username()))
		h.session.Logger().Infow("user logged in", "username", h.session.Username())
	} else {
		h.session.SendResponse(530, "Login incorrect")
	}
}

// HandleQUIT says goodbye and closes the control connection.
func (h *CommandHandler) HandleQUIT(arg string) {
	h.session.SendResponse(221, "Goodbye")
	h.session.Close()
}

func (h *CommandHandler) HandleSYST(arg string) {
	h.session.SendResponse(215, "UNIX Type: L8")
}

func (h *CommandHandler) HandleNOOP(arg string) {
	h.session.SendResponse(200, "NOOP command successful")
}

// HandleTYPE accepts ASCII and Binary; records are served verbatim either way.
func (h *CommandHandler) HandleTYPE(typeStr string) {
	switch strings.ToUpper(typeStr) {
	case "A":
		h.session.SetTransferType("A")
		h.session.SendResponse(200, "Switching to ASCII mode")
	case "I":
		h.session.SetTransferType("I")
		h.session.SendResponse(200, "Switching to Binary mode")
	default:
		h.session.SendResponse(504, "Command not implemented for that parameter")
	}
}

// HandleMODE accepts stream mode only.
func (h *CommandHandler) HandleMODE(modeStr string) {
	if strings.ToUpper(modeStr) == "S" {
		h.session.SendResponse(200, "Mode set to Stream")
		return
	}
	h.session.SendResponse(504, "Command not implemented for that parameter")
}

// HandleSTRU accepts file structure only.
func (h *CommandHandler) HandleSTRU(structure string) {
	if strings.ToUpper(structure) == "F" {
		h.session.SendResponse(200, "Structure set to File")
		return
	}
	h.session.SendResponse(504, "Command not implemented for that parameter")
}

func (h *CommandHandler) HandleFEAT(arg string) {
	h.session.SendLines([]string{
		"211-Features:",
		" SIZE",
		" MDTM",
		" UTF8",
		" PASV",
		" EPSV",
		" CLNT",
		"211 End",
	})
}

func (h *CommandHandler) HandleOPTS(args string) {
	if strings.EqualFold(strings.TrimSpace(args), "UTF8 ON") {
		h.session.SendResponse(200, "UTF8 set to on")
		return
	}
	h.session.SendResponse(501, "Option not understood")
}

func (h *CommandHandler) HandleHELP(arg string) {
	h.session.SendLines([]string{
		"214-The following commands are recognized:",
		" USER PASS QUIT SYST TYPE MODE STRU NOOP FEAT OPTS HELP CLNT STAT",
		" PWD XPWD CWD CDUP PASV EPSV PORT LIST NLST RETR STOR APPE",
		" DELE SIZE MDTM ABOR",
		"214 Help OK",
	})
}

// HandleCLNT records the client identification string; informational only.
func (h *CommandHandler) HandleCLNT(info string) {
	h.session.SetClientInfo(info)
	h.session.SendResponse(200, "Noted")
}

// HandleABOR tears down any in-flight data channel.
func (h *CommandHandler) HandleABOR(arg string) {
	h.session.CloseDataChannel()
	h.session.SendResponse(226, "ABOR command successful")
}

// HandleSTAT reports server status, or record status when given a path.
func (h *CommandHandler) HandleSTAT(arg string) {
	if arg == "" {
		login := "Not logged in"
		if h.session.IsAuthenticated() {
			login = fmt.Sprintf("Logged in as %s", h.session.Username())
		}
		h.session.SendLines([]string{
			"211-FTP server status:",
			fmt.Sprintf(" %s", login),
			fmt.Sprintf(" Working directory: %s", h.session.CurrentDir()),
			" Passive mode data transfers",
			"211 End of status",
		})
		return
	}

	if !h.session.IsAuthenticated() {
		h.session.SendResponse(530, "Please login with USER and PASS")
		return
	}
	path := h.session.ResolvePath(arg)
	info, err := h.session.Backend().Stat(h.session.Context(), path, h.session.Credential())
	if err != nil {
		h.backendErrorReply(err)
		return
	}
	kind := "file"
	if info.IsDir {
		kind = "directory"
	}
	h.session.SendLines([]string{
		fmt.Sprintf("213-Status of %s:", path),
		fmt.Sprintf(" %s, %d bytes, modified %s", kind, info.Size, info.ModTime.UTC().Format("20060102150405")),
		"213 End of status",
	})
}
