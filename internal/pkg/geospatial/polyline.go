package geospatial

import (
	"math"
	"strings"
)

// LatLng is a decoded polyline vertex.
type LatLng struct {
	Lat float64
	Lng float64
}

// DecodePolyline decodes a Google encoded polyline (1e-5 precision) into
// an ordered sequence of coordinates. Returns nil for an empty string.
func DecodePolyline(encoded string) []LatLng {
	var points []LatLng
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		dLat, next := decodeChunk(encoded, index)
		index = next
		lat += dLat

		dLng, next := decodeChunk(encoded, index)
		index = next
		lng += dLng

		points = append(points, LatLng{
			Lat: float64(lat) / 1e5,
			Lng: float64(lng) / 1e5,
		})
	}

	return points
}

// decodeChunk reads one varint-encoded signed delta starting at index.
func decodeChunk(encoded string, index int) (int, int) {
	shift, result := 0, 0
	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), index
	}
	return result >> 1, index
}

// EncodePolyline encodes coordinates to the Google polyline format.
func EncodePolyline(points []LatLng) string {
	var encoded strings.Builder
	prevLat, prevLng := 0, 0

	for _, p := range points {
		lat := int(math.Round(p.Lat * 1e5))
		lng := int(math.Round(p.Lng * 1e5))

		encodeDiff(&encoded, lat-prevLat)
		encodeDiff(&encoded, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return encoded.String()
}

func encodeDiff(buf *strings.Builder, diff int) {
	if diff < 0 {
		diff = ^(diff << 1)
	} else {
		diff <<= 1
	}

	for diff >= 0x20 {
		buf.WriteByte(byte((diff&0x1f)|0x20) + 63)
		diff >>= 5
	}
	buf.WriteByte(byte(diff) + 63)
}
