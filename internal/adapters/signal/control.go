package signal

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	ctl.sendJSON(c, typeFrame{Type: "pong"})
}
