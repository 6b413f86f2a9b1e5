package protocol

import (
	"errors"
	"fmt"

	"ftpbridge/backend"
)

func (h *CommandHandler) withValidParam(param string, handler func()) {
	if param == "" {
		h.session.SendResponse(501, "Syntax error in parameters")
		return
	}
	handler()
}

// formatListLine renders one directory entry in ls -l style, the format
// legacy clients parse.
func formatListLine(e backend.Entry) string {
	perms := "-rw-r--r--"
	if e.IsDir {
		perms = "drwxr-xr-x"
	}
	return fmt.Sprintf("%s %3d %-8s %-8s %8d %s %s\r\n",
		perms, 1, "owner", "group", e.Size,
		e.ModTime.Format("Jan 02 15:04"), e.Name)
}

// backendErrorReply maps a backend failure onto a terminal status line.
func (h *CommandHandler) backendErrorReply(err error) {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		h.session.SendResponse(550, "File or directory not found")
	case errors.Is(err, backend.ErrRejected):
		h.session.SendResponse(550, "Requested action not taken, backend rejected operation")
	default:
		h.session.Logger().Errorw("backend call failed", "error", err)
		h.session.SendResponse(550, "Requested action not taken")
	}
}
