package ports

// IDispatcher is what the transport drives: one call per inbound frame and
// one per closed connection.
type IDispatcher interface {
	HandleMessage(conn Conn, raw []byte)
	HandleDisconnect(conn Conn)
}
