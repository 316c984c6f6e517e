package lx200

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTimeOfDay(t *testing.T) {
	v, err := DecodeTimeOfDay([]byte("21:04:59#"))
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 21, Minute: 4, Second: 59}, v)
	assert.Equal(t, "21:04:59", v.String())

	for _, bad := range []string{"", "#", "24:00:00#", "12:60:00", "12:00", "ab:cd:ef#", "12:00:00##"} {
		_, err := DecodeTimeOfDay([]byte(bad))
		assert.Error(t, err, "payload %q", bad)
	}
}

func TestDecodeDate(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"03/01/24#", Date{Year: 2024, Month: 3, Day: 1}},
		{"12/31/99#", Date{Year: 1999, Month: 12, Day: 31}},
		{"01/01/70", Date{Year: 1970, Month: 1, Day: 1}},
		{"01/01/69", Date{Year: 2069, Month: 1, Day: 1}},
		{"02/29/24#", Date{Year: 2024, Month: 2, Day: 29}},
	}
	for _, tt := range tests {
		got, err := DecodeDate([]byte(tt.in))
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	d := Date{Year: 2024, Month: 3, Day: 1}
	assert.Equal(t, "03/01/24", d.String())

	for _, bad := range []string{"13/01/24#", "00/10/24#", "03/32/24#", "02/31/24#", "02/29/23#", "04/31/24#", "3/1/24#", ""} {
		_, err := DecodeDate([]byte(bad))
		assert.Error(t, err, "payload %q", bad)
	}
}

func TestDecodeAngle(t *testing.T) {
	tests := []struct {
		in   []byte
		want float64
	}{
		{[]byte("+45*30'15#"), 45 + 30.0/60 + 15.0/3600},
		{[]byte("-05*23:28#"), -(5 + 23.0/60 + 28.0/3600)},
		{[]byte("+12*30#"), 12.5},
		{[]byte("123*45#"), 123.75},
		{[]byte("359*59'59#"), 359 + 59.0/60 + 59.0/3600},
		{[]byte{'-', '0', '8', 0xDF, '1', '5'}, -8.25},
	}
	for _, tt := range tests {
		got, err := DecodeAngle(tt.in)
		require.NoError(t, err, "%q", tt.in)
		assert.InDelta(t, tt.want, got.Degrees(), 1e-9, "%q", tt.in)
	}

	assert.Equal(t, "+45*30'15", Angle(45+30.0/60+15.0/3600).String())
	assert.Equal(t, "-05*23'28", Angle(-(5 + 23.0/60 + 28.0/3600)).String())

	for _, bad := range []string{"45", "+45*60#", "+45*3", "abc#", "+1000*00#", ""} {
		_, err := DecodeAngle([]byte(bad))
		assert.Error(t, err, "payload %q", bad)
	}
}

func TestDecodeRightAscension(t *testing.T) {
	v, err := DecodeRightAscension([]byte("05:35:17#"))
	require.NoError(t, err)
	assert.InDelta(t, 5+35.0/60+17.0/3600, float64(v), 1e-9)
	assert.Equal(t, "05:35:17", v.String())

	v, err = DecodeRightAscension([]byte("05:35.3#"))
	require.NoError(t, err)
	assert.InDelta(t, 5+35.3/60, float64(v), 1e-9)

	for _, bad := range []string{"24:00:00#", "05:60:00#", "05:35:60#", "5:35:17#", "05:35#"} {
		_, err := DecodeRightAscension([]byte(bad))
		assert.Error(t, err, "payload %q", bad)
	}
}

func TestDecodeScalars(t *testing.T) {
	f, err := DecodeFloat([]byte("+60.1#"))
	require.NoError(t, err)
	assert.InDelta(t, 60.1, f, 1e-9)

	_, err = DecodeFloat([]byte("NaN#"))
	assert.Error(t, err)

	off, err := DecodeUTCOffset([]byte("-05.5#"))
	require.NoError(t, err)
	assert.InDelta(t, -5.5, off, 1e-9)

	for _, bad := range []string{"+25#", "5.25#", "x#"} {
		_, err := DecodeUTCOffset([]byte(bad))
		assert.Error(t, err, "payload %q", bad)
	}

	format, err := DecodeCalendarFormat([]byte("24#"))
	require.NoError(t, err)
	assert.Equal(t, 24, format)
	_, err = DecodeCalendarFormat([]byte("13#"))
	assert.Error(t, err)

	s, err := DecodeString([]byte(" Autostar #"))
	require.NoError(t, err)
	assert.Equal(t, "Autostar", s)
	_, err = DecodeString(nil)
	assert.Error(t, err)

	ok, err := DecodeBool01([]byte("1"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = DecodeBool01([]byte("0#"))
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = DecodeBool01([]byte("2"))
	assert.Error(t, err)
}
