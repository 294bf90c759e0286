package collab

func (ctl *Controller) handlePing(conn *wsCollabConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}
