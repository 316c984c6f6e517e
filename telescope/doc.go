// Package telescope is the device facade for LX200-family mounts.
//
// Mount turns movement, selection and attribute reads into LX200 exchanges
// on a shared lx200.LinkDriver. Every readable attribute is an
// lx200.Binding registered in the mount's lx200.Registry, so the last known
// values survive failed reads and can be listed with Snapshot.
//
// A lost link while the mount is moving is handled as a safety event: the
// mount logs at error level, sends one emergency ":Q#" halt and returns an
// error matching ErrMotionLinkLost.
package telescope
