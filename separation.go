package inview

import "math"

// DownlinkFrequency returns the frequency received on the ground for a
// satellite transmitting at f, given the range rate in km/s.
func DownlinkFrequency(f, rangeRate float64) float64 {
	return f * (1 - rangeRate/speedOfLight)
}

// UplinkFrequency returns the frequency the ground must transmit for the
// satellite to receive f, given the range rate in km/s.
func UplinkFrequency(f, rangeRate float64) float64 {
	return f * (1 + rangeRate/speedOfLight)
}

// AngularSeparation returns the angle in degrees between two look
// directions from the same station.
func AngularSeparation(a, b AzElRange) float64 {
	return unitLook(a).Angle(unitLook(b)) * rad2deg
}

func unitLook(l AzElRange) Vector {
	az, el := l.Azimuth*deg2rad, l.Elevation*deg2rad
	return Vector{
		X: math.Cos(az) * math.Cos(el),
		Y: math.Sin(az) * math.Cos(el),
		Z: math.Sin(el),
	}
}
