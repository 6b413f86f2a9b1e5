package protocol

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Data connection setup and transfer commands.

// HandlePASV opens a fresh passive listener and advertises it as an
// (h1,h2,h3,h4,p1,p2) tuple. Any previous data channel is replaced.
func (h *CommandHandler) HandlePASV(arg string) {
	host, port, err := h.session.OpenPassive()
	if err != nil {
		h.session.SendResponse(425, "Can't open passive connection")
		return
	}

	octets := strings.Split(host, ".")
	if len(octets) != 4 {
		octets = []string{"127", "0", "0", "1"}
	}
	h.session.SendResponse(227, fmt.Sprintf("Entering Passive Mode (%s,%s,%s,%s,%d,%d)",
		octets[0], octets[1], octets[2], octets[3], port/256, port%256))
}

// HandleEPSV is the extended variant; same listener, different reply shape.
func (h *CommandHandler) HandleEPSV(arg string) {
	_, port, err := h.session.OpenPassive()
	if err != nil {
		h.session.SendResponse(425, "Can't open passive connection")
		return
	}
	h.session.SendResponse(229, fmt.Sprintf("Entering Extended Passive Mode (|||%d|)", port))
}

// HandlePORT captures the client's active-mode address. Transfers still
// require passive mode; the captured address is informational.
func (h *CommandHandler) HandlePORT(portCmd string) {
	parts := strings.Split(portCmd, ",")
	if len(parts) != 6 {
		h.session.SendResponse(501, "Syntax error in parameters")
		return
	}
	p1, err1 := strconv.Atoi(parts[4])
	p2, err2 := strconv.Atoi(parts[5])
	if err1 != nil || err2 != nil {
		h.session.SendResponse(501, "Syntax error in parameters")
		return
	}
	h.session.SetRemoteDataAddr(fmt.Sprintf("%s:%d", strings.Join(parts[0:4], "."), p1*256+p2))
	h.session.SendResponse(200, "PORT command successful. Consider using PASV")
}

// HandleLIST sends an ls -l style listing of a directory over the data
// channel. The channel is torn down when the transfer completes or fails.
func (h *CommandHandler) HandleLIST(arg string) {
	defer h.session.CloseDataChannel()

	listPath := h.session.CurrentDir()
	if arg != "" {
		listPath = h.session.ResolvePath(arg)
	}

	entries, err := h.session.Backend().List(h.session.Context(), listPath, h.session.Credential())
	if err != nil {
		h.backendErrorReply(err)
		return
	}

	h.session.SendResponse(150, "Here comes the directory listing")
	conn, err := h.session.AwaitDataConn()
	if err != nil {
		h.session.SendResponse(425, "No data connection established")
		return
	}

	var listing strings.Builder
	for _, e := range entries {
		listing.WriteString(formatListLine(e))
	}
	if _, err := io.WriteString(conn, listing.String()); err != nil {
		h.session.SendResponse(426, "Connection closed; transfer aborted")
		return
	}
	h.session.SendResponse(226, "Directory send OK")
}

// HandleNLST is LIST with bare names.
func (h *CommandHandler) HandleNLST(arg string) {
	defer h.session.CloseDataChannel()

	listPath := h.session.CurrentDir()
	if arg != "" {
		listPath = h.session.ResolvePath(arg)
	}

	entries, err := h.session.Backend().List(h.session.Context(), listPath, h.session.Credential())
	if err != nil {
		h.backendErrorReply(err)
		return
	}

	h.session.SendResponse(150, "Here comes the directory listing")
	conn, err := h.session.AwaitDataConn()
	if err != nil {
		h.session.SendResponse(425, "No data connection established")
		return
	}

	var listing strings.Builder
	for _, e := range entries {
		listing.WriteString(e.Name)
		listing.WriteString("\r\n")
	}
	if _, err := io.WriteString(conn, listing.String()); err != nil {
		h.session.SendResponse(426, "Connection closed; transfer aborted")
		return
	}
	h.session.SendResponse(226, "Directory send OK")
}

// HandleRETR streams a record's content to the client.
func (h *CommandHandler) HandleRETR(name string) {
	h.withValidParam(name, func() {
		defer h.session.CloseDataChannel()

		target := h.session.ResolvePath(name)
		content, err := h.session.Backend().Retrieve(h.session.Context(), target, h.session.Credential())
		if err != nil {
			h.backendErrorReply(err)
			return
		}

		h.session.SendResponse(150, fmt.Sprintf("Opening data connection for %s (%d bytes)", name, len(content)))
		conn, err := h.session.AwaitDataConn()
		if err != nil {
			h.session.SendResponse(425, "No data connection established")
			return
		}

		if _, err := conn.Write(content); err != nil {
			h.session.SendResponse(426, "Connection closed; transfer aborted")
			return
		}
		h.session.SendResponse(226, "Transfer complete")
	})
}

// receiveUpload drains the data channel up to the configured cap. A nil
// slice with ok=false means a terminal reply was already sent.
func (h *CommandHandler) receiveUpload() ([]byte, bool) {
	h.session.SendResponse(150, "Ok to send data")
	conn, err := h.session.AwaitDataConn()
	if err != nil {
		h.session.SendResponse(425, "No data connection established")
		return nil, false
	}

	// A peer that connects and then goes silent must not wedge the session.
	conn.SetReadDeadline(time.Now().Add(h.session.DataTimeout()))

	limit := h.session.MaxUpload()
	content, err := io.ReadAll(io.LimitReader(conn, limit+1))
	if err != nil {
		h.session.SendResponse(426, "Connection closed; transfer aborted")
		return nil, false
	}
	if int64(len(content)) > limit {
		h.session.SendResponse(552, "Exceeded storage allocation")
		return nil, false
	}
	return content, true
}

// HandleSTOR receives content from the client and stores it as a record.
func (h *CommandHandler) HandleSTOR(name string) {
	h.withValidParam(name, func() {
		defer h.session.CloseDataChannel()

		content, ok := h.receiveUpload()
		if !ok {
			return
		}
		target := h.session.ResolvePath(name)
		if err := h.session.Backend().Store(h.session.Context(), target, content, h.session.Credential()); err != nil {
			h.backendErrorReply(err)
			return
		}
		h.session.SendResponse(226, "Transfer complete")
	})
}

// HandleAPPE appends received content to an existing record.
func (h *CommandHandler) HandleAPPE(name string) {
	h.withValidParam(name, func() {
		defer h.session.CloseDataChannel()

		content, ok := h.receiveUpload()
		if !ok {
			return
		}
		target := h.session.ResolvePath(name)
		if err := h.session.Backend().Append(h.session.Context(), target, content, h.session.Credential()); err != nil {
			h.backendErrorReply(err)
			return
		}
		h.session.SendResponse(226, "Transfer complete")
	})
}
