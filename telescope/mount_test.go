package telescope

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rodot-/tellascope/lx200"
)

func TestMount_MoveAndHalt(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	require.NoError(t, r.mount.Move(ctx, North))
	require.NoError(t, r.mount.Move(ctx, West))
	assert.Equal(t, []string{lx200.CmdMoveNorth, lx200.CmdMoveWest}, r.sim.Moving())

	dirs, slewing := r.mount.Motion()
	assert.Equal(t, []Direction{North, West}, dirs)
	assert.False(t, slewing)

	require.NoError(t, r.mount.Halt(ctx, North))
	assert.Equal(t, []string{lx200.CmdMoveWest}, r.sim.Moving())
	assert.True(t, r.mount.InMotion())

	require.NoError(t, r.mount.Halt(ctx, DirectionNone))
	assert.Empty(t, r.sim.Moving())
	assert.False(t, r.mount.InMotion())

	assert.Equal(t, []string{":Mn#", ":Mw#", ":Qn#", ":Q#"}, r.ch.Frames())
}

func TestMount_InvalidArguments(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	require.ErrorIs(t, r.mount.Move(ctx, DirectionNone), ErrInvalidArgument)
	require.ErrorIs(t, r.mount.Move(ctx, Direction(9)), ErrInvalidArgument)
	require.ErrorIs(t, r.mount.Halt(ctx, Direction(-1)), ErrInvalidArgument)
	require.ErrorIs(t, r.mount.SetSlewRate(ctx, SlewRate(7)), ErrInvalidArgument)
	require.ErrorIs(t, r.mount.SelectCatalogObject(ctx, CatalogMessier, 10000), ErrInvalidArgument)
	require.ErrorIs(t, r.mount.SelectCatalogObject(ctx, CatalogMessier, -1), ErrInvalidArgument)
	require.ErrorIs(t, r.mount.SelectCatalogObject(ctx, Catalog(5), 1), ErrInvalidArgument)
	require.ErrorIs(t, r.mount.SetTarget(ctx, 24, 0), ErrInvalidArgument)
	require.ErrorIs(t, r.mount.SetTarget(ctx, 1, -90.5), ErrInvalidArgument)

	assert.Empty(t, r.ch.Frames())
	assert.False(t, r.mount.InMotion())
}

func TestMount_SlewRate(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.mount.SetSlewRate(context.Background(), RateCenter))
	assert.Equal(t, lx200.CmdRateCenter, r.sim.SlewRate())
}

func TestMount_CatalogSlew(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	require.NoError(t, r.mount.SelectCatalogObject(ctx, CatalogStar, 1))
	require.NoError(t, r.mount.SlewToTarget(ctx))
	assert.Equal(t, []string{":LS0001#", ":MS#"}, r.ch.Frames())

	_, slewing := r.mount.Motion()
	assert.True(t, slewing)

	dec, err := r.mount.Declination(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 89.264, dec.Degrees(), 1.0/3600)

	require.NoError(t, r.mount.Halt(ctx, DirectionNone))
	assert.False(t, r.mount.InMotion())
}

func TestMount_SlewRejected(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	err := r.mount.SlewToTarget(ctx)
	require.ErrorIs(t, err, ErrSlewRejected)
	assert.Contains(t, err.Error(), "No Object Selected")
	assert.False(t, r.mount.InMotion())

	require.NoError(t, r.mount.SelectCatalogObject(ctx, CatalogMessier, 42))
	r.sim.RejectSlews("Object Below Horizon")
	err = r.mount.SlewToTarget(ctx)
	require.ErrorIs(t, err, ErrSlewRejected)
	assert.Contains(t, err.Error(), "Object Below Horizon")

	r.ch.Script([]byte("?#"))
	err = r.mount.SlewToTarget(ctx)
	require.ErrorIs(t, err, lx200.ErrDecode)
	assert.False(t, r.mount.InMotion())
}

func TestMount_SilentSlewAccepted(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.ch.Script([]byte{})
	require.NoError(t, r.mount.SlewToTarget(ctx))

	_, slewing := r.mount.Motion()
	assert.True(t, slewing)

	r.ch.InjectNAKs(1000)
	_, err := r.mount.Altitude(ctx)
	require.ErrorIs(t, err, ErrMotionLinkLost)

	frames := r.ch.Frames()
	assert.Equal(t, ":Q#", frames[len(frames)-1])
	assert.False(t, r.mount.InMotion())
}

func TestMount_SetTarget(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	ra := lx200.Hours(5 + 35.0/60 + 17.0/3600)
	dec := lx200.Angle(-(5 + 23.0/60 + 28.0/3600))
	require.NoError(t, r.mount.SetTarget(ctx, ra, dec))
	assert.Equal(t, []string{":Sr05:35:17#", ":Sd-05*23:28#"}, r.ch.Frames())

	gotRA, err := r.mount.TargetRightAscension(ctx)
	require.NoError(t, err)
	assert.InDelta(t, float64(ra), float64(gotRA), 1.0/3600)

	gotDec, err := r.mount.TargetDeclination(ctx)
	require.NoError(t, err)
	assert.InDelta(t, dec.Degrees(), gotDec.Degrees(), 1.0/3600)

	r.ch.Script([]byte("1"), []byte("0"))
	require.ErrorIs(t, r.mount.SetTarget(ctx, ra, dec), ErrTargetRejected)

	r.ch.Script([]byte("x"))
	require.ErrorIs(t, r.mount.SetTarget(ctx, ra, dec), lx200.ErrDecode)
}

func TestMount_SetClock(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	require.NoError(t, r.mount.SetLocalTime(ctx, time.Date(0, 1, 1, 22, 30, 0, 0, time.UTC)))
	require.NoError(t, r.mount.SetDate(ctx, time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC)))

	tod, err := r.mount.LocalTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, lx200.TimeOfDay{Hour: 22, Minute: 30}, tod)

	date, err := r.mount.Date(ctx)
	require.NoError(t, err)
	assert.Equal(t, lx200.Date{Year: 2023, Month: 12, Day: 24}, date)

	r.ch.Script([]byte("0"))
	require.ErrorIs(t, r.mount.SetDate(ctx, time.Now()), ErrSettingRejected)
	r.ch.Script([]byte("0"))
	require.ErrorIs(t, r.mount.SetLocalTime(ctx, time.Now()), ErrSettingRejected)
}

func TestMount_Sync(t *testing.T) {
	r := newRig(t)

	msg, err := r.mount.SyncToTarget(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Coordinates matched.", msg)
}

func TestMount_EmergencyHaltOnLinkLoss(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	require.NoError(t, r.mount.Move(ctx, East))

	// The handset stays busy past the exchange deadline.
	r.ch.InjectNAKs(1000)
	_, err := r.mount.Altitude(ctx)
	require.ErrorIs(t, err, ErrMotionLinkLost)
	require.ErrorIs(t, err, lx200.ErrTimeout)
	require.ErrorIs(t, err, lx200.ErrLinkUnavailable)

	frames := r.ch.Frames()
	assert.Equal(t, ":Q#", frames[len(frames)-1])
	assert.Empty(t, r.sim.Moving())
	assert.False(t, r.mount.InMotion())

	r.log.AssertCalled(t, "Error", "telescope: link lost while in motion, sending emergency halt", mock.Anything)
	r.log.AssertCalled(t, "Warn", "telescope: emergency halt sent", mock.Anything)

	_, ok := r.mount.Snapshot()[lx200.CmdGetAltitude]
	assert.False(t, ok)
}

func TestMount_EmergencyHaltFails(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	unplugged := errors.New("cable unplugged")

	require.NoError(t, r.mount.SelectCatalogObject(ctx, CatalogStar, 1))
	require.NoError(t, r.mount.SlewToTarget(ctx))

	r.ch.SetFault(unplugged)
	_, err := r.mount.RightAscension(ctx)
	require.ErrorIs(t, err, ErrMotionLinkLost)
	require.ErrorIs(t, err, unplugged)

	r.log.AssertCalled(t, "Error", "telescope: emergency halt failed", mock.Anything)
	assert.True(t, r.mount.InMotion(), "motion state is kept until a halt succeeds")

	r.ch.SetFault(nil)
	require.NoError(t, r.mount.Halt(ctx, DirectionNone))
	assert.False(t, r.mount.InMotion())
}

func TestMount_LinkLossWhileIdle(t *testing.T) {
	r := newRig(t)
	r.ch.SetFault(errors.New("cable unplugged"))

	_, err := r.mount.Altitude(context.Background())
	require.ErrorIs(t, err, lx200.ErrLinkUnavailable)
	require.NotErrorIs(t, err, ErrMotionLinkLost)
	r.log.AssertNotCalled(t, "Error", "telescope: link lost while in motion, sending emergency halt", mock.Anything)
}
