package route

import "errors"

var errTruncatedPolyline = errors.New("truncated polyline")

// DecodePolyline decodes an encoded polyline with precision 1e5 and returns
// [lng, lat] pairs.
func DecodePolyline(encoded string) ([][2]float64, error) {
	var (
		coords   [][2]float64
		lat, lng int
		index    int
	)
	for index < len(encoded) {
		dlat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		dlng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next
		lat += dlat
		lng += dlng
		coords = append(coords, [2]float64{float64(lng) / 1e5, float64(lat) / 1e5})
	}
	return coords, nil
}

func decodeValue(s string, index int) (int, int, error) {
	var result, shift int
	for {
		if index >= len(s) {
			return 0, index, errTruncatedPolyline
		}
		b := int(s[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Sample keeps every stride-th point so that roughly target points remain.
// The final point is always retained.
func Sample[T any](points []T, target int) []T {
	if len(points) == 0 {
		return points
	}
	stride := 1
	if target > 0 {
		stride = max(1, len(points)/target)
	}
	out := make([]T, 0, len(points)/stride+1)
	last := len(points) - 1
	for i, p := range points {
		if i%stride == 0 || i == last {
			out = append(out, p)
		}
	}
	return out
}
