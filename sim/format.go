package sim

import (
	"fmt"
	"math"
)

// sexagesimal splits v into whole units, minutes and seconds, rounded to the second.
func sexagesimal(v float64) (int, int, int) {
	total := int(math.Round(math.Abs(v) * 3600))
	return total / 3600, total / 60 % 60, total % 60
}

func sign(v float64) byte {
	if v < 0 {
		return '-'
	}
	return '+'
}

// formatHMS formats hours as HH:MM:SS, wrapping at 24.
func formatHMS(h float64) string {
	h = math.Mod(h, 24)
	if h < 0 {
		h += 24
	}
	hh, mm, ss := sexagesimal(h)

	return fmt.Sprintf("%02d:%02d:%02d", hh%24, mm, ss)
}

// formatDMS formats a signed angle as sDD*MM'SS.
func formatDMS(deg float64) string {
	d, m, s := sexagesimal(deg)
	return fmt.Sprintf("%c%02d*%02d'%02d", sign(deg), d, m, s)
}

// formatAzimuth formats an angle in [0, 360) as DDD*MM'SS.
func formatAzimuth(deg float64) string {
	d, m, s := sexagesimal(math.Mod(deg+360, 360))
	return fmt.Sprintf("%03d*%02d'%02d", d%360, m, s)
}

// formatDM formats a signed angle as sDD*MM, or sDDD*MM when wide.
func formatDM(deg float64, wide bool) string {
	total := int(math.Round(math.Abs(deg) * 60))
	if wide {
		return fmt.Sprintf("%c%03d*%02d", sign(deg), total/60, total%60)
	}

	return fmt.Sprintf("%c%02d*%02d", sign(deg), total/60, total%60)
}

// formatOffset formats a UTC offset as sHH, or sHH.H when fractional.
func formatOffset(h float64) string {
	if h == math.Trunc(h) {
		return fmt.Sprintf("%c%02d", sign(h), int(math.Abs(h)))
	}

	return fmt.Sprintf("%+05.1f", h)
}
