package sim

import (
	"math"
	"time"
)

var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// siderealTime returns the local mean sidereal time in hours. Longitude is
// positive west, as the handsets report it.
func siderealTime(utc time.Time, longitudeWest float64) float64 {
	days := utc.Sub(j2000).Hours() / 24
	gmst := 18.697374558 + 24.06570982441908*days
	lst := math.Mod(gmst-longitudeWest/15, 24)
	if lst < 0 {
		lst += 24
	}

	return lst
}

// horizontal converts right ascension (hours) and declination (degrees) into
// altitude and azimuth (degrees, azimuth from north through east).
func horizontal(ra, dec, lst, latitude float64) (alt, az float64) {
	rad := math.Pi / 180
	ha := (lst - ra) * 15 * rad
	d, lat := dec*rad, latitude*rad

	sinAlt := math.Sin(d)*math.Sin(lat) + math.Cos(d)*math.Cos(lat)*math.Cos(ha)
	altR := math.Asin(clamp(sinAlt))

	cosAz := (math.Sin(d) - sinAlt*math.Sin(lat)) / (math.Cos(altR) * math.Cos(lat))
	azR := math.Acos(clamp(cosAz))
	if math.Sin(ha) > 0 {
		azR = 2*math.Pi - azR
	}

	return altR / rad, azR / rad
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
