package telescope

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Rodot-/tellascope/internal/clock"
	"github.com/Rodot-/tellascope/logger"
	"github.com/Rodot-/tellascope/lx200"
)

// Mount is the facade for one LX200-family mount.
//
// All exchanges go through the shared link, which serializes them. Mount
// methods are safe for concurrent use.
type Mount struct {
	link     lx200.Exchanger
	logger   logger.Logger
	clock    lx200.Clock
	registry *lx200.Registry

	altitude       *lx200.Binding[lx200.Angle]
	azimuth        *lx200.Binding[lx200.Angle]
	rightAscension *lx200.Binding[lx200.Hours]
	declination    *lx200.Binding[lx200.Angle]
	targetRA       *lx200.Binding[lx200.Hours]
	targetDec      *lx200.Binding[lx200.Angle]
	localTime      *lx200.Binding[lx200.TimeOfDay]
	localTime12    *lx200.Binding[lx200.TimeOfDay]
	siderealTime   *lx200.Binding[lx200.Hours]
	date           *lx200.Binding[lx200.Date]
	calendarFormat *lx200.Binding[int]
	browseLimit    *lx200.Binding[float64]
	trackingRate   *lx200.Binding[float64]
	latitude       *lx200.Binding[lx200.Angle]
	longitude      *lx200.Binding[lx200.Angle]
	utcOffset      *lx200.Binding[float64]
	productName    *lx200.Binding[string]
	firmware       *lx200.Binding[string]
	firmwareDate   *lx200.Binding[string]

	mu      sync.Mutex
	moving  map[Direction]struct{}
	slewing bool
}

var _ lx200.Exchanger = (*Mount)(nil)

// MountOption configures a Mount.
type MountOption func(*Mount)

// WithLogger sets the mount logger. The default is the package-level logger.
func WithLogger(l logger.Logger) MountOption {
	return func(m *Mount) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock sets the clock stamping attribute values. Pass the link's clock.
func WithClock(c lx200.Clock) MountOption {
	return func(m *Mount) {
		if c != nil {
			m.clock = c
		}
	}
}

// NewMount returns a Mount issuing its exchanges on link, usually an
// *lx200.LinkDriver.
func NewMount(link lx200.Exchanger, opts ...MountOption) *Mount {
	m := &Mount{
		link:     link,
		logger:   logger.GetLogger(),
		clock:    clock.Real{},
		registry: lx200.NewRegistry(),
		moving:   make(map[Direction]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.altitude = bind(m, lx200.CmdGetAltitude, lx200.DecodeAngle)
	m.azimuth = bind(m, lx200.CmdGetAzimuth, lx200.DecodeAngle)
	m.rightAscension = bind(m, lx200.CmdGetRightAscension, lx200.DecodeRightAscension)
	m.declination = bind(m, lx200.CmdGetDeclination, lx200.DecodeAngle)
	m.targetRA = bind(m, lx200.CmdGetTargetRA, lx200.DecodeRightAscension)
	m.targetDec = bind(m, lx200.CmdGetTargetDec, lx200.DecodeAngle)
	m.localTime = bind(m, lx200.CmdGetLocalTime24, lx200.DecodeTimeOfDay)
	m.localTime12 = bind(m, lx200.CmdGetLocalTime12, lx200.DecodeTimeOfDay)
	m.siderealTime = bind(m, lx200.CmdGetSiderealTime, lx200.DecodeRightAscension)
	m.date = bind(m, lx200.CmdGetDate, lx200.DecodeDate)
	m.calendarFormat = bind(m, lx200.CmdGetCalendarFormat, lx200.DecodeCalendarFormat)
	m.browseLimit = bind(m, lx200.CmdGetBrowseMagnitude, lx200.DecodeFloat)
	m.trackingRate = bind(m, lx200.CmdGetTrackingRate, lx200.DecodeFloat)
	m.latitude = bind(m, lx200.CmdGetLatitude, lx200.DecodeAngle)
	m.longitude = bind(m, lx200.CmdGetLongitude, lx200.DecodeAngle)
	m.utcOffset = bind(m, lx200.CmdGetUTCOffset, lx200.DecodeUTCOffset)
	m.productName = bind(m, lx200.CmdGetProductName, lx200.DecodeString)
	m.firmware = bind(m, lx200.CmdGetFirmwareNumber, lx200.DecodeString)
	m.firmwareDate = bind(m, lx200.CmdGetFirmwareDate, lx200.DecodeString)

	return m
}

func bind[T any](m *Mount, mnemonic string, decode lx200.Decoder[T]) *lx200.Binding[T] {
	b := lx200.NewBinding(mnemonic, decode, lx200.WithBindingClock(m.clock))
	if err := m.registry.Register(b); err != nil {
		panic(err)
	}

	return b
}

// Attributes returns the registry of attribute bindings.
func (m *Mount) Attributes() *lx200.Registry { return m.registry }

// Exchange runs cmd on the link. A link failure while the mount is in
// motion triggers an emergency halt and yields an error matching both
// ErrMotionLinkLost and the original failure.
func (m *Mount) Exchange(ctx context.Context, cmd lx200.Command) ([]byte, error) {
	reply, err := m.link.Exchange(ctx, cmd)
	if err == nil || !errors.Is(err, lx200.ErrLinkUnavailable) || !m.InMotion() {
		return reply, err
	}

	return nil, m.emergencyHalt(ctx, cmd, err)
}

func (m *Mount) emergencyHalt(ctx context.Context, cmd lx200.Command, cause error) error {
	moving, slewing := m.Motion()
	m.logger.Error("telescope: link lost while in motion, sending emergency halt",
		"command", cmd.String(),
		"moving", moving,
		"slewing", slewing,
		"error", cause,
	)

	// The caller's deadline may be what just expired; the halt gets the
	// link's own exchange timeout instead.
	_, err := m.link.Exchange(context.WithoutCancel(ctx), lx200.NewCommand(lx200.CmdHaltAll, ""))
	if err != nil {
		m.logger.Error("telescope: emergency halt failed", "error", err)
		return fmt.Errorf("%w: %s: %w", ErrMotionLinkLost, cmd, errors.Join(cause, err))
	}

	m.clearMotion()
	m.logger.Warn("telescope: emergency halt sent", "command", cmd.String())

	return fmt.Errorf("%w: %s: %w", ErrMotionLinkLost, cmd, cause)
}

// InMotion reports whether a manual move or a slew is in progress.
func (m *Mount) InMotion() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.moving) > 0 || m.slewing
}

// Motion returns the directions being moved and whether a slew is in progress.
func (m *Mount) Motion() ([]Direction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dirs := make([]Direction, 0, len(m.moving))
	for d := range m.moving {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)

	return dirs, m.slewing
}

func (m *Mount) clearMotion() {
	m.mu.Lock()
	clear(m.moving)
	m.slewing = false
	m.mu.Unlock()
}

// Move starts moving in dir at the current slew rate until Halt.
func (m *Mount) Move(ctx context.Context, dir Direction) error {
	mnemonic, ok := dir.moveMnemonic()
	if !ok {
		return fmt.Errorf("%w: cannot move in direction %s", ErrInvalidArgument, dir)
	}

	// The motor may start even if the exchange fails afterwards.
	m.mu.Lock()
	m.moving[dir] = struct{}{}
	m.mu.Unlock()

	_, err := m.Exchange(ctx, lx200.NewCommand(mnemonic, ""))

	return err
}

// Halt stops motion in dir. DirectionNone stops every axis and any slew.
func (m *Mount) Halt(ctx context.Context, dir Direction) error {
	mnemonic, ok := dir.haltMnemonic()
	if !ok {
		return fmt.Errorf("%w: cannot halt direction %s", ErrInvalidArgument, dir)
	}

	if _, err := m.Exchange(ctx, lx200.NewCommand(mnemonic, "")); err != nil {
		return err
	}

	m.mu.Lock()
	if dir == DirectionNone {
		clear(m.moving)
		m.slewing = false
	} else {
		delete(m.moving, dir)
	}
	m.mu.Unlock()

	return nil
}

// SlewToTarget slews to the current target. A refusal is returned as an
// error matching ErrSlewRejected with the handset's message. A silent
// handset is taken as accepting the slew.
func (m *Mount) SlewToTarget(ctx context.Context) error {
	m.mu.Lock()
	m.slewing = true
	m.mu.Unlock()

	reply, err := m.Exchange(ctx, lx200.NewCommand(lx200.CmdSlewToTarget, ""))
	if err != nil {
		return err
	}

	s := strings.TrimSpace(string(reply))
	if s == "" || strings.HasPrefix(s, "0") {
		return nil
	}

	m.mu.Lock()
	m.slewing = false
	m.mu.Unlock()

	if s[0] == '1' || s[0] == '2' {
		return fmt.Errorf("%w: %s", ErrSlewRejected, strings.Trim(s[1:], "# "))
	}

	return &lx200.DecodeError{
		Mnemonic: lx200.CmdSlewToTarget,
		Payload:  reply,
		Err:      errors.New("want 0, 1 or 2"),
	}
}

// SetSlewRate selects the rate used by subsequent moves.
func (m *Mount) SetSlewRate(ctx context.Context, rate SlewRate) error {
	mnemonic, ok := rate.mnemonic()
	if !ok {
		return fmt.Errorf("%w: slew rate %d", ErrInvalidArgument, rate)
	}
	_, err := m.Exchange(ctx, lx200.NewCommand(mnemonic, ""))

	return err
}

// SelectCatalogObject makes object n of catalog the current target.
func (m *Mount) SelectCatalogObject(ctx context.Context, catalog Catalog, n int) error {
	mnemonic, ok := catalog.mnemonic()
	if !ok {
		return fmt.Errorf("%w: catalog %d", ErrInvalidArgument, catalog)
	}
	if n < 0 || n > MaxCatalogIndex {
		return fmt.Errorf("%w: catalog index %d out of range [0, %d]", ErrInvalidArgument, n, MaxCatalogIndex)
	}

	arg := fmt.Sprintf("%0*d", lx200.CatalogIndexLength, n)
	_, err := m.Exchange(ctx, lx200.NewCommand(mnemonic, arg))

	return err
}

// SetTarget sets the target right ascension and declination.
func (m *Mount) SetTarget(ctx context.Context, ra lx200.Hours, dec lx200.Angle) error {
	if ra < 0 || ra >= 24 || math.IsNaN(float64(ra)) {
		return fmt.Errorf("%w: right ascension %v out of range [0, 24)", ErrInvalidArgument, float64(ra))
	}
	if dec < -90 || dec > 90 || math.IsNaN(float64(dec)) {
		return fmt.Errorf("%w: declination %v out of range [-90, 90]", ErrInvalidArgument, float64(dec))
	}

	if err := m.setAccepted(ctx, lx200.NewCommand(lx200.CmdSetTargetRA, ra.String()), ErrTargetRejected); err != nil {
		return err
	}

	return m.setAccepted(ctx, lx200.NewCommand(lx200.CmdSetTargetDec, targetDecArg(dec)), ErrTargetRejected)
}

// SetLocalTime sets the handset's local time of day.
func (m *Mount) SetLocalTime(ctx context.Context, t time.Time) error {
	return m.setAccepted(ctx, lx200.NewCommand(lx200.CmdSetLocalTime, t.Format("15:04:05")), ErrSettingRejected)
}

// SetDate sets the handset's local calendar date. The handset answers "1"
// followed by progress messages while it recomputes planetary positions.
func (m *Mount) SetDate(ctx context.Context, t time.Time) error {
	cmd := lx200.NewCommand(lx200.CmdSetDate, t.Format("01/02/06"))

	reply, err := m.Exchange(ctx, cmd)
	if err != nil {
		return err
	}

	s := strings.TrimSpace(string(reply))
	switch {
	case strings.HasPrefix(s, "1"):
		return nil
	case strings.HasPrefix(s, "0"):
		return fmt.Errorf("%w: %s", ErrSettingRejected, cmd)
	default:
		return &lx200.DecodeError{Mnemonic: cmd.Mnemonic(), Payload: reply, Err: errors.New("want 0 or 1")}
	}
}

// SyncToTarget tells the mount it is pointing at the current target and
// returns the handset's confirmation text.
func (m *Mount) SyncToTarget(ctx context.Context) (string, error) {
	return lx200.Resolve(ctx, m, lx200.CmdSyncToTarget, lx200.DecodeString)
}

func (m *Mount) setAccepted(ctx context.Context, cmd lx200.Command, rejected error) error {
	reply, err := m.Exchange(ctx, cmd)
	if err != nil {
		return err
	}

	ok, err := lx200.DecodeBool01(reply)
	if err != nil {
		return &lx200.DecodeError{Mnemonic: cmd.Mnemonic(), Payload: reply, Err: err}
	}
	if !ok {
		return fmt.Errorf("%w: %s", rejected, cmd)
	}

	return nil
}

// targetDecArg formats dec as sDD*MM:SS.
func targetDecArg(dec lx200.Angle) string {
	v := float64(dec)
	sign := '+'
	if v < 0 {
		sign, v = '-', -v
	}
	total := int(math.Round(v * 3600))

	return fmt.Sprintf("%c%02d*%02d:%02d", sign, total/3600, total/60%60, total%60)
}
