package ports

// Conn is the transport's handle for one live connection. Send must not
// block on the peer and returns an error once the connection is closed.
// Close is idempotent.
type Conn interface {
	Send(payload []byte) error
	Close() error
}
