package types

// ConnectClientEvent is enqueued by the transport when a client connects.
type ConnectClientEvent struct {
	ClientID string
}

// DisconnectClientEvent is enqueued by the transport when a client drops.
type DisconnectClientEvent struct {
	ClientID string
}
