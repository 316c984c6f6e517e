package sim

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/Rodot-/tellascope/internal/clock"
	"github.com/Rodot-/tellascope/logger"
	"github.com/Rodot-/tellascope/lx200"
)

// Catalog prefixes used as object keys.
const (
	CatalogDeepSky = "NGC"
	CatalogMessier = "M"
	CatalogStar    = "STAR"
)

// Object is a catalog entry.
type Object struct {
	Name string
	RA   lx200.Hours
	Dec  lx200.Angle
}

// Mount is a simulated LX200 mount. It is safe for concurrent use.
type Mount struct {
	mu sync.Mutex

	clock  clock.Clock
	logger logger.Logger
	framer *lx200.Framer

	// timeShift is added to the clock by SL and SC.
	timeShift time.Duration

	latitude   float64 // degrees, positive north
	longitude  float64 // degrees, positive west
	utcOffset  float64 // hours added to local time to get UTC
	calendar24 bool

	ra, dec                float64
	targetRA, targetDec    float64
	targetSet              bool
	moving                 map[string]bool
	slewRate               string
	slewReject             string
	browseLimit, trackRate float64

	product, firmware, firmwareDate string

	catalog *xsync.MapOf[string, Object]
	history *xsync.MapOf[string, int]
}

// Option configures a Mount.
type Option func(*Mount)

// WithClock sets the clock the mount derives local and sidereal time from.
func WithClock(c clock.Clock) Option {
	return func(m *Mount) { m.clock = c }
}

// WithSite sets the site latitude (positive north) and longitude (positive
// west) in degrees.
func WithSite(latitude, longitudeWest float64) Option {
	return func(m *Mount) {
		m.latitude = math.Max(-89.9, math.Min(89.9, latitude))
		m.longitude = longitudeWest
	}
}

// WithUTCOffset sets the hours added to local time to get UTC.
func WithUTCOffset(h float64) Option {
	return func(m *Mount) { m.utcOffset = h }
}

// WithProduct sets the product name and firmware strings reported by GVP,
// GVN and GVD.
func WithProduct(name, firmware, date string) Option {
	return func(m *Mount) { m.product, m.firmware, m.firmwareDate = name, firmware, date }
}

// WithLogger sets the logger receiving one debug event per frame.
func WithLogger(l logger.Logger) Option {
	return func(m *Mount) { m.logger = l }
}

// NewMount returns a mount parked at RA 0h, Dec +90 with a few Messier
// objects in its catalog.
func NewMount(opts ...Option) *Mount {
	m := &Mount{
		clock:        clock.Real{},
		logger:       logger.GetLogger(),
		framer:       lx200.NewFramer(nil),
		latitude:     40.0,
		longitude:    105.25,
		utcOffset:    7,
		calendar24:   true,
		dec:          90,
		moving:       make(map[string]bool),
		slewRate:     lx200.CmdRateSlew,
		browseLimit:  5.5,
		trackRate:    60.1,
		product:      "Autostar",
		firmware:     "43Eg",
		firmwareDate: "Apr 04 2008",
		catalog:      xsync.NewMapOf[string, Object](),
		history:      xsync.NewMapOf[string, int](),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.AddObject(CatalogMessier, 31, Object{Name: "M31 Andromeda Galaxy", RA: 0.712, Dec: 41.269})
	m.AddObject(CatalogMessier, 42, Object{Name: "M42 Orion Nebula", RA: 5.588, Dec: -5.391})
	m.AddObject(CatalogMessier, 45, Object{Name: "M45 Pleiades", RA: 3.790, Dec: 24.117})
	m.AddObject(CatalogDeepSky, 7000, Object{Name: "NGC7000 North America Nebula", RA: 20.980, Dec: 44.333})
	m.AddObject(CatalogStar, 1, Object{Name: "Polaris", RA: 2.530, Dec: 89.264})

	return m
}

func catalogKey(catalog string, n int) string {
	return fmt.Sprintf("%s%04d", catalog, n)
}

// AddObject registers obj under catalog number n.
func (m *Mount) AddObject(catalog string, n int, obj Object) {
	m.catalog.Store(catalogKey(catalog, n), obj)
}

// SetPosition places the mount at ra (hours) and dec (degrees).
func (m *Mount) SetPosition(ra lx200.Hours, dec lx200.Angle) {
	m.mu.Lock()
	m.ra, m.dec = float64(ra), float64(dec)
	m.mu.Unlock()
}

// Position returns the current right ascension and declination.
func (m *Mount) Position() (lx200.Hours, lx200.Angle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return lx200.Hours(m.ra), lx200.Angle(m.dec)
}

// Target returns the current target and whether one has been set.
func (m *Mount) Target() (lx200.Hours, lx200.Angle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return lx200.Hours(m.targetRA), lx200.Angle(m.targetDec), m.targetSet
}

// Moving returns the directions currently in motion, as move mnemonics.
func (m *Mount) Moving() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.moving))
	for dir := range m.moving {
		out = append(out, dir)
	}
	slices.Sort(out)

	return out
}

// SlewRate returns the mnemonic of the selected slew rate.
func (m *Mount) SlewRate() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.slewRate
}

// RejectSlews makes MS answer with "1"+reason until called with "".
func (m *Mount) RejectSlews(reason string) {
	m.mu.Lock()
	m.slewReject = reason
	m.mu.Unlock()
}

// Received returns how many frames with the given mnemonic were answered.
func (m *Mount) Received(mnemonic string) int {
	n, _ := m.history.Load(mnemonic)
	return n
}

// Respond answers one frame. Frames that do not parse get no reply.
func (m *Mount) Respond(frame []byte) []byte {
	cmd, err := m.framer.ParseFrame(frame)
	if err != nil {
		m.logger.Debug("sim: ignoring frame", "frame", string(frame), "error", err)
		return nil
	}
	m.history.Compute(cmd.Mnemonic(), func(n int, _ bool) (int, bool) { return n + 1, false })

	m.mu.Lock()
	reply := m.handle(cmd)
	m.mu.Unlock()

	m.logger.Debug("sim: frame answered", "frame", string(frame), "reply", reply)
	if reply == "" {
		return nil
	}

	return []byte(reply)
}

func (m *Mount) now() time.Time {
	return m.clock.Now().UTC().Add(m.timeShift)
}

// local returns the handset's local time.
func (m *Mount) local() time.Time {
	return m.now().Add(-time.Duration(m.utcOffset * float64(time.Hour)))
}

func (m *Mount) horizontal(ra, dec float64) (float64, float64) {
	return horizontal(ra, dec, siderealTime(m.now(), m.longitude), m.latitude)
}

func (m *Mount) handle(cmd lx200.Command) string {
	arg := cmd.Argument()

	switch cmd.Mnemonic() {
	case lx200.CmdGetRightAscension:
		return formatHMS(m.ra) + "#"
	case lx200.CmdGetDeclination:
		return formatDMS(m.dec) + "#"
	case lx200.CmdGetTargetRA:
		return formatHMS(m.targetRA) + "#"
	case lx200.CmdGetTargetDec:
		return formatDMS(m.targetDec) + "#"
	case lx200.CmdGetAltitude:
		alt, _ := m.horizontal(m.ra, m.dec)
		return formatDMS(alt) + "#"
	case lx200.CmdGetAzimuth:
		_, az := m.horizontal(m.ra, m.dec)
		return formatAzimuth(az) + "#"
	case lx200.CmdGetLocalTime24:
		return m.local().Format("15:04:05") + "#"
	case lx200.CmdGetLocalTime12:
		return m.local().Format("03:04:05") + "#"
	case lx200.CmdGetSiderealTime:
		return formatHMS(siderealTime(m.now(), m.longitude)) + "#"
	case lx200.CmdGetDate:
		return m.local().Format("01/02/06") + "#"
	case lx200.CmdGetCalendarFormat:
		if m.calendar24 {
			return "24#"
		}
		return "12#"
	case lx200.CmdGetBrowseMagnitude:
		return fmt.Sprintf("%+05.1f#", m.browseLimit)
	case lx200.CmdGetTrackingRate:
		return fmt.Sprintf("%04.1f#", m.trackRate)
	case lx200.CmdGetLatitude:
		return formatDM(m.latitude, false) + "#"
	case lx200.CmdGetLongitude:
		return formatDM(m.longitude, true) + "#"
	case lx200.CmdGetUTCOffset:
		return formatOffset(m.utcOffset) + "#"
	case lx200.CmdGetProductName:
		return m.product + "#"
	case lx200.CmdGetFirmwareNumber:
		return m.firmware + "#"
	case lx200.CmdGetFirmwareDate:
		return m.firmwareDate + "#"

	case lx200.CmdMoveNorth, lx200.CmdMoveEast, lx200.CmdMoveSouth, lx200.CmdMoveWest:
		m.moving[cmd.Mnemonic()] = true
	case lx200.CmdHaltAll:
		clear(m.moving)
	case lx200.CmdHaltNorth, lx200.CmdHaltEast, lx200.CmdHaltSouth, lx200.CmdHaltWest:
		delete(m.moving, "M"+strings.ToLower(cmd.Mnemonic()[1:]))
	case lx200.CmdSlewToTarget:
		return m.slew()
	case lx200.CmdSyncToTarget:
		if m.targetSet {
			m.ra, m.dec = m.targetRA, m.targetDec
		}
		return "Coordinates matched.        #"
	case lx200.CmdRateGuide, lx200.CmdRateCenter, lx200.CmdRateFind, lx200.CmdRateSlew:
		m.slewRate = cmd.Mnemonic()

	case lx200.CmdSelectDeepSky, lx200.CmdSelectMessier, lx200.CmdSelectStar:
		m.selectObject(cmd.Mnemonic(), arg)
	case lx200.CmdSetTargetRA:
		ra, err := lx200.DecodeRightAscension([]byte(arg))
		if err != nil {
			return "0"
		}
		m.targetRA, m.targetSet = float64(ra), true
		return "1"
	case lx200.CmdSetTargetDec:
		dec, err := lx200.DecodeAngle([]byte(arg))
		if err != nil || math.Abs(float64(dec)) > 90 {
			return "0"
		}
		m.targetDec, m.targetSet = float64(dec), true
		return "1"
	case lx200.CmdSetLocalTime:
		t, err := lx200.DecodeTimeOfDay([]byte(arg))
		if err != nil {
			return "0"
		}
		local := m.local()
		want := time.Date(local.Year(), local.Month(), local.Day(), t.Hour, t.Minute, t.Second, 0, time.UTC)
		m.timeShift += want.Sub(local.Truncate(time.Second))
		return "1"
	case lx200.CmdSetDate:
		d, err := lx200.DecodeDate([]byte(arg))
		if err != nil {
			return "0"
		}
		local := m.local()
		want := time.Date(d.Year, time.Month(d.Month), d.Day, local.Hour(), local.Minute(), local.Second(), 0, time.UTC)
		m.timeShift += want.Sub(local.Truncate(time.Second))
		return "1Updating Planetary Data#                              #"
	}

	return ""
}

func (m *Mount) slew() string {
	if m.slewReject != "" {
		return "1" + m.slewReject + "#"
	}
	if !m.targetSet {
		return "2No Object Selected#"
	}
	if alt, _ := m.horizontal(m.targetRA, m.targetDec); alt < 0 {
		return "1Object Below Horizon#"
	}
	m.ra, m.dec = m.targetRA, m.targetDec

	return "0"
}

func (m *Mount) selectObject(mnemonic, arg string) {
	catalog := map[string]string{
		lx200.CmdSelectDeepSky: CatalogDeepSky,
		lx200.CmdSelectMessier: CatalogMessier,
		lx200.CmdSelectStar:    CatalogStar,
	}[mnemonic]

	obj, ok := m.catalog.Load(catalog + arg)
	if !ok {
		return
	}
	m.targetRA, m.targetDec, m.targetSet = float64(obj.RA), float64(obj.Dec), true
}
