package lx200

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// degreeSign is the byte the handsets use for the degree symbol.
const degreeSign byte = 0xDF

var errEmptyReply = errors.New("empty reply")

var (
	timeRe   = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})$`)
	dateRe   = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{2})$`)
	angleRe  = regexp.MustCompile(`^([+-])?(\d{1,3})\*(\d{2})(?:[':](\d{2}))?$`)
	raRe     = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2})|\.(\d))$`)
	offsetRe = regexp.MustCompile(`^[+-]?\d{1,2}(?:\.\d)?$`)
)

// TimeOfDay is a wall-clock time as reported by the handset.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// String formats t as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Date is a calendar date as reported by the handset.
type Date struct {
	Year, Month, Day int
}

// String formats d as MM/DD/YY.
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%02d", d.Month, d.Day, d.Year%100)
}

// Angle is an angle in decimal degrees.
type Angle float64

// Degrees returns a as a float64.
func (a Angle) Degrees() float64 { return float64(a) }

// String formats a as sDD*MM'SS.
func (a Angle) String() string {
	sign := '+'
	v := float64(a)
	if v < 0 {
		sign, v = '-', -v
	}
	total := int(math.Round(v * 3600))

	return fmt.Sprintf("%c%02d*%02d'%02d", sign, total/3600, total/60%60, total%60)
}

// Hours is a right ascension or hour angle in decimal hours.
type Hours float64

// String formats h as HH:MM:SS.
func (h Hours) String() string {
	total := int(math.Round(float64(h)*3600)) % (24 * 3600)

	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

// normalize trims whitespace and a single trailing '#'.
func normalize(payload []byte) (string, error) {
	s := strings.TrimSpace(string(payload))
	s = strings.TrimSpace(strings.TrimSuffix(s, string(frameEnd)))
	if s == "" {
		return "", errEmptyReply
	}
	if strings.IndexByte(s, frameEnd) >= 0 {
		return "", fmt.Errorf("more than one reply in %q", s)
	}

	return s, nil
}

// DecodeTimeOfDay parses HH:MM:SS.
func DecodeTimeOfDay(payload []byte) (TimeOfDay, error) {
	s, err := normalize(payload)
	if err != nil {
		return TimeOfDay{}, err
	}
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("want HH:MM:SS, got %q", s)
	}
	t := TimeOfDay{Hour: atoi(m[1]), Minute: atoi(m[2]), Second: atoi(m[3])}
	if t.Hour > 23 || t.Minute > 59 || t.Second > 59 {
		return TimeOfDay{}, fmt.Errorf("time %q out of range", s)
	}

	return t, nil
}

// DecodeDate parses MM/DD/YY. Two-digit years below 70 are in the 2000s.
func DecodeDate(payload []byte) (Date, error) {
	s, err := normalize(payload)
	if err != nil {
		return Date{}, err
	}
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return Date{}, fmt.Errorf("want MM/DD/YY, got %q", s)
	}
	d := Date{Month: atoi(m[1]), Day: atoi(m[2]), Year: atoi(m[3])}
	if d.Year < 70 {
		d.Year += 2000
	} else {
		d.Year += 1900
	}

	// time.Date normalizes overflow, so 02/31 comes back as 03/02.
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || t.Month() != time.Month(d.Month) || t.Day() != d.Day {
		return Date{}, fmt.Errorf("date %q out of range", s)
	}

	return d, nil
}

// DecodeAngle parses sDD*MM, sDD*MM'SS, DDD*MM and DDD*MM'SS. The degree
// separator may be '*' or the handset's 0xDF glyph.
func DecodeAngle(payload []byte) (Angle, error) {
	s, err := normalize(payload)
	if err != nil {
		return 0, err
	}
	s = strings.ReplaceAll(s, string([]byte{degreeSign}), "*")

	m := angleRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("want sDD*MM['SS], got %q", s)
	}
	deg, mins := atoi(m[2]), atoi(m[3])
	secs := 0
	if m[4] != "" {
		secs = atoi(m[4])
	}
	if deg > 360 || mins > 59 || secs > 59 {
		return 0, fmt.Errorf("angle %q out of range", s)
	}

	v := float64(deg) + float64(mins)/60 + float64(secs)/3600
	if m[1] == "-" {
		v = -v
	}

	return Angle(v), nil
}

// DecodeRightAscension parses HH:MM:SS or the low precision HH:MM.T.
func DecodeRightAscension(payload []byte) (Hours, error) {
	s, err := normalize(payload)
	if err != nil {
		return 0, err
	}
	m := raRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("want HH:MM:SS or HH:MM.T, got %q", s)
	}
	hh, mm := atoi(m[1]), atoi(m[2])
	if hh > 23 || mm > 59 {
		return 0, fmt.Errorf("right ascension %q out of range", s)
	}

	v := float64(hh) + float64(mm)/60
	switch {
	case m[3] != "":
		ss := atoi(m[3])
		if ss > 59 {
			return 0, fmt.Errorf("right ascension %q out of range", s)
		}
		v += float64(ss) / 3600
	case m[4] != "":
		v += float64(atoi(m[4])) / 600
	}

	return Hours(v), nil
}

// DecodeFloat parses a signed decimal number such as "+05.5" or "60.1".
func DecodeFloat(payload []byte) (float64, error) {
	s, err := normalize(payload)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("want decimal number, got %q", s)
	}

	return v, nil
}

// DecodeUTCOffset parses sHH or sHH.H, the hours added to local time to get UTC.
func DecodeUTCOffset(payload []byte) (float64, error) {
	s, err := normalize(payload)
	if err != nil {
		return 0, err
	}
	if !offsetRe.MatchString(s) {
		return 0, fmt.Errorf("want sHH[.H], got %q", s)
	}
	v, _ := strconv.ParseFloat(s, 64)
	if v < -24 || v > 24 {
		return 0, fmt.Errorf("UTC offset %q out of range", s)
	}

	return v, nil
}

// DecodeCalendarFormat parses the 12/24 hour clock format.
func DecodeCalendarFormat(payload []byte) (int, error) {
	s, err := normalize(payload)
	if err != nil {
		return 0, err
	}
	switch s {
	case "12":
		return 12, nil
	case "24":
		return 24, nil
	default:
		return 0, fmt.Errorf("want 12 or 24, got %q", s)
	}
}

// DecodeString returns the trimmed reply text.
func DecodeString(payload []byte) (string, error) {
	return normalize(payload)
}

// DecodeBool01 parses the single digit acknowledgements "0" and "1".
func DecodeBool01(payload []byte) (bool, error) {
	s, err := normalize(payload)
	if err != nil {
		return false, err
	}
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("want 0 or 1, got %q", s)
	}
}

// atoi is only called on regexp digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
