package protocol

import (
	"fmt"
	"path"
)

// Directory navigation and record metadata commands.

func (h *CommandHandler) HandlePWD(arg string) {
	h.session.SendResponse(257, fmt.Sprintf("\"%s\" is current directory", h.session.CurrentDir()))
}

// HandleCWD changes the working path after checking the target exists and is
// a directory. The virtual root is always navigable, even with an empty
// backend.
func (h *CommandHandler) HandleCWD(dir string) {
	h.withValidParam(dir, func() {
		target := h.session.ResolvePath(dir)
		if target != "/" {
			info, err := h.session.Backend().Stat(h.session.Context(), target, h.session.Credential())
			if err != nil {
				h.backendErrorReply(err)
				return
			}
			if !info.IsDir {
				h.session.SendResponse(550, "Not a directory")
				return
			}
		}
		h.session.SetCurrentDir(target)
		h.session.SendResponse(250, fmt.Sprintf("CWD command successful. \"%s\" is current directory", target))
	})
}

func (h *CommandHandler) HandleCDUP(arg string) {
	current := h.session.CurrentDir()
	if current == "/" {
		h.session.SendResponse(250, "Already in root directory")
		return
	}
	parent := path.Dir(current)
	h.session.SetCurrentDir(parent)
	h.session.SendResponse(250, fmt.Sprintf("CDUP command successful. \"%s\" is current directory", parent))
}

func (h *CommandHandler) HandleDELE(name string) {
	h.withValidParam(name, func() {
		target := h.session.ResolvePath(name)
		if err := h.session.Backend().Delete(h.session.Context(), target, h.session.Credential()); err != nil {
			h.backendErrorReply(err)
			return
		}
		h.session.SendResponse(250, "File deleted")
	})
}

func (h *CommandHandler) HandleSIZE(name string) {
	h.withValidParam(name, func() {
		target := h.session.ResolvePath(name)
		info, err := h.session.Backend().Stat(h.session.Context(), target, h.session.Credential())
		if err != nil {
			h.backendErrorReply(err)
			return
		}
		if info.IsDir {
			h.session.SendResponse(550, "Not a plain file")
			return
		}
		h.session.SendResponse(213, fmt.Sprintf("%d", info.Size))
	})
}

func (h *CommandHandler) HandleMDTM(name string) {
	h.withValidParam(name, func() {
		target := h.session.ResolvePath(name)
		info, err := h.session.Backend().Stat(h.session.Context(), target, h.session.Credential())
		if err != nil {
			h.backendErrorReply(err)
			return
		}
		h.session.SendResponse(213, info.ModTime.UTC().Format("20060102150405"))
	})
}
