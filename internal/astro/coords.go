// Package astro provides the small amount of sky math the ambient layer
// needs: where the sun sits for an observer and which phase the moon is in.
package astro

import (
	"math"
	"time"
)

// Observer is a ground location.
type Observer struct {
	LatDeg float64 // north positive
	LonDeg float64 // east positive
}

// Horizontal is an observer-relative direction.
type Horizontal struct {
	AzDeg float64 // 0=N, 90=E, 180=S, 270=W
	ElDeg float64 // 0=horizon, 90=zenith
}

// ToHorizontal converts equatorial RA/Dec (degrees) to azimuth/elevation
// for obs at time t.
func ToHorizontal(raDeg, decDeg float64, obs Observer, t time.Time) Horizontal {
	lat := degToRad(obs.LatDeg)
	dec := degToRad(decDeg)
	ha := degToRad(localSiderealTime(t, obs.LonDeg) - raDeg)

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(clampUnit(sinAlt))

	cosAz := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / (math.Cos(alt) * math.Cos(lat))
	az := math.Acos(clampUnit(cosAz))
	// Positive hour angle puts the body west of the meridian.
	if math.Sin(ha) > 0 {
		az = 2*math.Pi - az
	}

	return Horizontal{AzDeg: radToDeg(az), ElDeg: radToDeg(alt)}
}

// localSiderealTime returns LST in degrees for a longitude.
func localSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalizeAngle360(greenwichMeanSiderealTime(t) + lonDeg)
}

// greenwichMeanSiderealTime returns GMST in degrees (IAU 1982).
func greenwichMeanSiderealTime(t time.Time) float64 {
	jd := julianDate(t)
	T := (jd - 2451545.0) / 36525.0
	gmst := 280.46061837 +
		360.98564736629*(jd-2451545.0) +
		0.000387933*T*T -
		T*T*T/38710000.0
	return normalizeAngle360(gmst)
}

// julianDate returns the Julian Date of t.
func julianDate(t time.Time) float64 {
	return float64(t.UTC().UnixNano())/86400e9 + 2440587.5
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
