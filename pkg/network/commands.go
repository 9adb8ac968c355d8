package network

// Recognized command strings. This set is exhaustive: any other
// command name decodes to ErrUnknownCommand.
const (
	CmdVersion = "version"
	CmdVerAck  = "verack"
	CmdPing    = "ping"
	CmdPong    = "pong"
	CmdAddr    = "addr"
	CmdInv     = "inv"
	CmdGetData = "getdata"
	CmdReject  = "reject"
	CmdTx      = "tx"
	CmdGetAddr = "getaddr"
)
