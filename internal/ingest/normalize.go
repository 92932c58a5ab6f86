package ingest

// CoordPath is the location of the coordinate object inside an upstream response.
// Both air_pollution and weather payloads report it as {"coord": {"lat": .., "lon": ..}}.
var CoordPath = []string{"coord"}

const (
	latKey = "lat"
	lonKey = "lon"
)

// Normalize returns a copy of resp whose coordinate fields equal c exactly,
// replacing whatever location the upstream service snapped the request to.
// Missing intermediate objects are created. resp itself is not modified.
func Normalize(resp Response, c Coordinate) Response {
	out := make(Response, len(resp)+1)
	for k, v := range resp {
		out[k] = v
	}

	parent := map[string]any(out)
	for i, key := range CoordPath {
		child := copyObject(parent[key])
		if i == len(CoordPath)-1 {
			child[latKey] = c.Lat
			child[lonKey] = c.Lon
		}
		parent[key] = child
		parent = child
	}
	return out
}

// CoordinateOf reads the coordinate stored at CoordPath.
func CoordinateOf(resp Response) (Coordinate, bool) {
	var node any = map[string]any(resp)
	for _, key := range CoordPath {
		obj, ok := node.(map[string]any)
		if !ok {
			return Coordinate{}, false
		}
		node = obj[key]
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return Coordinate{}, false
	}
	lat, okLat := obj[latKey].(float64)
	lon, okLon := obj[lonKey].(float64)
	if !okLat || !okLon {
		return Coordinate{}, false
	}
	return Coordinate{Lat: lat, Lon: lon}, true
}

func copyObject(v any) map[string]any {
	var src map[string]any
	switch t := v.(type) {
	case map[string]any:
		src = t
	case Response:
		src = t
	}
	dst := make(map[string]any, len(src)+2)
	for k, val := range src {
		dst[k] = val
	}
	return dst
}
