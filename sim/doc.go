// Package sim implements an in-memory LX200 mount.
//
// Mount answers frames the way an Autostar or LX200 handset does and plugs
// into transport.LoopbackChannel as its Responder. Positions are held in
// equatorial coordinates; altitude and azimuth are derived from the
// simulated clock, site latitude and longitude.
package sim
