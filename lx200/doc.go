// Package lx200 implements the link layer of the LX200 serial command set
// spoken by Meade-style telescope mounts.
//
// # Protocol Overview
//
// The link is point-to-point and half-duplex. Every command is an ASCII frame
//
//	':' <mnemonic 1-3 chars> [<argument>] '#'
//
// and the mount answers with zero or more ASCII bytes. There is no reply
// terminator the driver can rely on: a reply ends when the device goes quiet.
// A single control byte, NAK (0x15), may appear in the inbound stream. It is
// not data; it means the device is busy and needs a full turnaround delay
// before it can continue.
//
// # Exchanges
//
// [LinkDriver] runs one exchange at a time:
//
//	Idle -> Sending -> AwaitingReply -> Draining -> Idle
//
// Sending resets both channel buffers, waits out the pacing interval and
// writes the frame. AwaitingReply waits for the documented response latency.
// Draining polls [Channel.BytesAvailable] and accumulates bytes until the
// device is silent, backing off for the full delay whenever a NAK arrives.
// Every exchange is bounded by a deadline, taken from the context or from
// the configured exchange timeout; exceeding it yields [ErrTimeout].
//
// # Attributes
//
// Readable device attributes are (mnemonic, [Decoder]) pairs. [Resolve]
// performs the exchange and decodes the reply; [Binding] additionally stores
// the last successfully decoded value in a [Slot], leaving it untouched when
// the reply is malformed.
package lx200
