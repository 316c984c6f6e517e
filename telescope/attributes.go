package telescope

import (
	"context"
	"errors"

	"github.com/Rodot-/tellascope/lx200"
)

// Altitude reads the current altitude (GA).
func (m *Mount) Altitude(ctx context.Context) (lx200.Angle, error) {
	return m.altitude.Resolve(ctx, m)
}

// Azimuth reads the current azimuth (GZ).
func (m *Mount) Azimuth(ctx context.Context) (lx200.Angle, error) {
	return m.azimuth.Resolve(ctx, m)
}

// RightAscension reads the current right ascension (GR).
func (m *Mount) RightAscension(ctx context.Context) (lx200.Hours, error) {
	return m.rightAscension.Resolve(ctx, m)
}

// Declination reads the current declination (GD).
func (m *Mount) Declination(ctx context.Context) (lx200.Angle, error) {
	return m.declination.Resolve(ctx, m)
}

// TargetRightAscension reads the target right ascension (Gr).
func (m *Mount) TargetRightAscension(ctx context.Context) (lx200.Hours, error) {
	return m.targetRA.Resolve(ctx, m)
}

// TargetDeclination reads the target declination (Gd).
func (m *Mount) TargetDeclination(ctx context.Context) (lx200.Angle, error) {
	return m.targetDec.Resolve(ctx, m)
}

// LocalTime reads the 24 hour local time (GL).
func (m *Mount) LocalTime(ctx context.Context) (lx200.TimeOfDay, error) {
	return m.localTime.Resolve(ctx, m)
}

// LocalTime12 reads the 12 hour local time (Ga).
func (m *Mount) LocalTime12(ctx context.Context) (lx200.TimeOfDay, error) {
	return m.localTime12.Resolve(ctx, m)
}

// SiderealTime reads the local sidereal time (GS).
func (m *Mount) SiderealTime(ctx context.Context) (lx200.Hours, error) {
	return m.siderealTime.Resolve(ctx, m)
}

// Date reads the local calendar date (GC).
func (m *Mount) Date(ctx context.Context) (lx200.Date, error) {
	return m.date.Resolve(ctx, m)
}

// CalendarFormat reads the 12 or 24 hour clock format (Gc).
func (m *Mount) CalendarFormat(ctx context.Context) (int, error) {
	return m.calendarFormat.Resolve(ctx, m)
}

// BrowseMagnitudeLimit reads the brighter magnitude limit of object browsing (Gb).
func (m *Mount) BrowseMagnitudeLimit(ctx context.Context) (float64, error) {
	return m.browseLimit.Resolve(ctx, m)
}

// TrackingRate reads the tracking rate in Hz (GT).
func (m *Mount) TrackingRate(ctx context.Context) (float64, error) {
	return m.trackingRate.Resolve(ctx, m)
}

// Latitude reads the site latitude (Gt).
func (m *Mount) Latitude(ctx context.Context) (lx200.Angle, error) {
	return m.latitude.Resolve(ctx, m)
}

// Longitude reads the site longitude, positive west (Gg).
func (m *Mount) Longitude(ctx context.Context) (lx200.Angle, error) {
	return m.longitude.Resolve(ctx, m)
}

// UTCOffset reads the hours added to local time to get UTC (GG).
func (m *Mount) UTCOffset(ctx context.Context) (float64, error) {
	return m.utcOffset.Resolve(ctx, m)
}

// ProductName reads the product name (GVP).
func (m *Mount) ProductName(ctx context.Context) (string, error) {
	return m.productName.Resolve(ctx, m)
}

// FirmwareVersion reads the firmware version number (GVN).
func (m *Mount) FirmwareVersion(ctx context.Context) (string, error) {
	return m.firmware.Resolve(ctx, m)
}

// FirmwareDate reads the firmware build date (GVD).
func (m *Mount) FirmwareDate(ctx context.Context) (string, error) {
	return m.firmwareDate.Resolve(ctx, m)
}

// Snapshot returns the last known value of every attribute read at least
// once, keyed by mnemonic.
func (m *Mount) Snapshot() map[string]any {
	out := make(map[string]any, m.registry.Len())
	m.registry.Range(func(res lx200.Resolver) bool {
		if v, ok := res.LastAny(); ok {
			out[res.Mnemonic()] = v
		}
		return true
	})

	return out
}

// Refresh reads every attribute in mnemonic order. Decode failures are
// collected and the remaining attributes still read; a link failure stops
// the refresh. The returned error joins everything that went wrong.
func (m *Mount) Refresh(ctx context.Context) error {
	var errs []error

	m.registry.Range(func(res lx200.Resolver) bool {
		_, err := res.ResolveAny(ctx, m)
		if err == nil {
			return true
		}
		errs = append(errs, err)

		return errors.Is(err, lx200.ErrDecode)
	})

	return errors.Join(errs...)
}
