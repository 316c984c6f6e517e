package lx200

// Channel is the duplex byte stream a LinkDriver talks through.
//
// Implementations are not required to be goroutine-safe; a LinkDriver never
// calls a Channel concurrently. Only one LinkDriver may front a Channel.
type Channel interface {
	// Write transmits p and returns the number of bytes written.
	Write(p []byte) (int, error)
	// Read returns up to max bytes that are already available.
	Read(max int) ([]byte, error)
	// BytesAvailable reports how many inbound bytes can be read without waiting.
	BytesAvailable() (int, error)
	// ResetInbound discards unread inbound bytes.
	ResetInbound() error
	// ResetOutbound discards outbound bytes not yet transmitted.
	ResetOutbound() error
}
