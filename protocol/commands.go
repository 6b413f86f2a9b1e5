package protocol

// command describes one supported verb: its preconditions and its handler.
// The table is built once at startup and never mutated.
type command struct {
	// requireAuth gates execution on a completed login. PASS itself is
	// marked so the dispatcher can apply the auth-failure limiter to it.
	requireAuth bool
	// requireData gates execution on an existing passive data channel.
	requireData bool
	// takesPath marks verbs whose argument is a virtual path and must pass
	// the validator before the handler runs.
	takesPath bool
	handler   func(h *CommandHandler, arg string)
}

// commandTable maps upper-cased verbs to their descriptors.
var commandTable = map[string]command{
	// Login sequence
	"USER": {handler: (*CommandHandler).HandleUSER},
	"PASS": {requireAuth: true, handler: (*CommandHandler).HandlePASS},

	// Session housekeeping
	"QUIT": {handler: (*CommandHandler).HandleQUIT},
	"SYST": {handler: (*CommandHandler).HandleSYST},
	"NOOP": {handler: (*CommandHandler).HandleNOOP},
	"FEAT": {handler: (*CommandHandler).HandleFEAT},
	"OPTS": {handler: (*CommandHandler).HandleOPTS},
	"HELP": {handler: (*CommandHandler).HandleHELP},
	"CLNT": {handler: (*CommandHandler).HandleCLNT},
	"STAT": {takesPath: true, handler: (*CommandHandler).HandleSTAT},
	"TYPE": {requireAuth: true, handler: (*CommandHandler).HandleTYPE},
	"MODE": {requireAuth: true, handler: (*CommandHandler).HandleMODE},
	"STRU": {requireAuth: true, handler: (*CommandHandler).HandleSTRU},
	"ABOR": {requireAuth: true, handler: (*CommandHandler).HandleABOR},

	// Directory navigation
	"PWD":  {requireAuth: true, handler: (*CommandHandler).HandlePWD},
	"XPWD": {requireAuth: true, handler: (*CommandHandler).HandlePWD},
	"CWD":  {requireAuth: true, takesPath: true, handler: (*CommandHandler).HandleCWD},
	"CDUP": {requireAuth: true, handler: (*CommandHandler).HandleCDUP},

	// Data connection setup
	"PASV": {requireAuth: true, handler: (*CommandHandler).HandlePASV},
	"EPSV": {requireAuth: true, handler: (*CommandHandler).HandleEPSV},
	"PORT": {requireAuth: true, handler: (*CommandHandler).HandlePORT},

	// Transfers
	"LIST": {requireAuth: true, requireData: true, takesPath: true, handler: (*CommandHandler).HandleLIST},
	"NLST": {requireAuth: true, requireData: true, takesPath: true, handler: (*CommandHandler).HandleNLST},
	"RETR": {requireAuth: true, requireData: true, takesPath: true, handler: (*CommandHandler).HandleRETR},
	"STOR": {requireAuth: true, requireData: true, takesPath: true, handler: (*CommandHandler).HandleSTOR},
	"APPE": {requireAuth: true, requireData: true, takesPath: true, handler: (*CommandHandler).HandleAPPE},

	// Record metadata and removal
	"DELE": {requireAuth: true, takesPath: true, handler: (*CommandHandler).HandleDELE},
	"SIZE": {requireAuth: true, takesPath: true, handler: (*CommandHandler).HandleSIZE},
	"MDTM": {requireAuth: true, takesPath: true, handler: (*CommandHandler).HandleMDTM},
}
