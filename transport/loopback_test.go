package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rodot-/tellascope/lx200"
)

func echoMnemonic(frame []byte) []byte {
	out := append([]byte(nil), frame[1:len(frame)-1]...)
	return append(out, '#')
}

func TestLoopback_FramesAcrossWrites(t *testing.T) {
	ch := NewLoopback(ResponderFunc(echoMnemonic))

	_, err := ch.Write([]byte(":G"))
	require.NoError(t, err)
	n, err := ch.BytesAvailable()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = ch.Write([]byte("A#:GZ#"))
	require.NoError(t, err)
	assert.Equal(t, []string{":GA#", ":GZ#"}, ch.Frames())

	b, err := ch.Read(64)
	require.NoError(t, err)
	assert.Equal(t, "GA#", string(b))

	b, err = ch.Read(64)
	require.NoError(t, err)
	assert.Equal(t, "GZ#", string(b))
}

func TestLoopback_ScriptBeforeResponder(t *testing.T) {
	ch := NewLoopback(ResponderFunc(echoMnemonic))
	d, _ := newTestLink(t, ch)
	ctx := context.Background()

	ch.Script([]byte("scripted#"), nil)

	reply, err := d.Get(ctx, lx200.CmdGetProductName)
	require.NoError(t, err)
	assert.Equal(t, "scripted#", string(reply))

	reply, err = d.Get(ctx, lx200.CmdGetProductName)
	require.NoError(t, err)
	assert.Empty(t, reply)

	reply, err = d.Get(ctx, lx200.CmdGetProductName)
	require.NoError(t, err)
	assert.Equal(t, "GVP#", string(reply))
}

func TestLoopback_InjectNAKs(t *testing.T) {
	ch := NewLoopback(ResponderFunc(echoMnemonic))
	d, fc := newTestLink(t, ch)

	ch.InjectNAKs(3)
	reply, err := d.Get(context.Background(), lx200.CmdGetAltitude)
	require.NoError(t, err)
	assert.Equal(t, "GA#", string(reply))
	assert.EqualValues(t, 3, d.Metrics().NAKCount.Load())

	// One reply wait plus one full delay per NAK.
	assert.Len(t, fc.Sleeps(), 4)
	for _, s := range fc.Sleeps() {
		assert.Equal(t, 10*time.Millisecond, s)
	}
}

func TestLoopback_Fault(t *testing.T) {
	ch := NewLoopback(ResponderFunc(echoMnemonic))
	d, _ := newTestLink(t, ch)
	unplugged := errors.New("cable unplugged")

	ch.SetFault(unplugged)
	_, err := d.Get(context.Background(), lx200.CmdGetAltitude)
	require.ErrorIs(t, err, lx200.ErrLinkUnavailable)
	require.ErrorIs(t, err, unplugged)

	ch.SetFault(nil)
	_, err = d.Get(context.Background(), lx200.CmdGetAltitude)
	require.NoError(t, err)
}

func TestLoopback_ResetDropsStages(t *testing.T) {
	ch := NewLoopback(ResponderFunc(echoMnemonic))
	ch.InjectNAKs(2)

	_, err := ch.Write([]byte(":GA#"))
	require.NoError(t, err)
	require.NoError(t, ch.ResetInbound())

	n, err := ch.BytesAvailable()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen(t *testing.T) {
	ch, closer, err := Open(Config{Kind: KindLoopback, Responder: ResponderFunc(echoMnemonic)})
	require.NoError(t, err)
	require.IsType(t, &LoopbackChannel{}, ch)

	require.NoError(t, closer.Close())
	_, err = ch.Write([]byte(":GA#"))
	require.ErrorIs(t, err, ErrClosed)

	_, _, err = Open(Config{Kind: "usb"})
	require.Error(t, err)

	_, _, err = Open(Config{Kind: KindSerial})
	require.Error(t, err)
}
