// Package transport provides lx200.Channel implementations.
//
// SerialChannel drives an RS-232 port through go.bug.st/serial.
// LoopbackChannel is an in-memory link whose replies come from a Responder,
// typically the mount simulator in package sim.
//
// Open builds either one from a Config.
package transport
