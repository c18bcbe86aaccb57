package geo

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"ridewise/internal/types"
)

// DefaultTileTemplate is the OpenStreetMap raster tile endpoint used when no
// static-map provider is configured.
const DefaultTileTemplate = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"

// DefaultStaticMapEndpoint is the primary static-map provider.
const DefaultStaticMapEndpoint = "https://maps.googleapis.com/maps/api/staticmap"

// Tile addresses one square of the Web Mercator slippy-map grid.
type Tile struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Zoom int `json:"zoom"`
}

// TileFor returns the tile containing (lat, lon) at the given zoom:
//
//	x = floor((lon+180)/360 * 2^zoom)
//	y = floor((1 - ln(tan(φ) + sec(φ))/π) / 2 * 2^zoom)
//
// Near the poles tan/sec diverge and the result is undefined.
func TileFor(lat, lon float64, zoom int) Tile {
	n := math.Exp2(float64(zoom))
	latRad := toRadians(lat)
	x := math.Floor((lon + 180) / 360 * n)
	y := math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)
	return Tile{X: int(x), Y: int(y), Zoom: zoom}
}

// TileCenter returns the coordinate at the centre of the tile.
func TileCenter(t Tile) types.Location {
	n := math.Exp2(float64(t.Zoom))
	lon := (float64(t.X)+0.5)/n*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*(float64(t.Y)+0.5)/n)))
	return types.Location{Lat: toDegrees(latRad), Lon: lon}
}

// TileURL expands {z}, {x} and {y} in a tile server template.
func TileURL(template string, t Tile) string {
	if template == "" {
		template = DefaultTileTemplate
	}
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(t.Zoom),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
	)
	return r.Replace(template)
}

// MapImage describes where to fetch a map picture for a location.
type MapImage struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
	Tile     *Tile  `json:"tile,omitempty"`
}

// MapURLBuilder builds static map image URLs, preferring the keyed static-map
// provider and falling back to a public tile server.
type MapURLBuilder struct {
	StaticMapKey      types.SecretString
	StaticMapEndpoint string
	TileTemplate      string
}

// StaticMapURL returns the map image for the point. width and height apply to the
// static-map provider only; tiles are always 256px squares.
func (b MapURLBuilder) StaticMapURL(lat, lon float64, zoom, width, height int) MapImage {
	if b.StaticMapKey.IsSet() {
		endpoint := b.StaticMapEndpoint
		if endpoint == "" {
			endpoint = DefaultStaticMapEndpoint
		}
		center := fmt.Sprintf("%.6f,%.6f", lat, lon)
		q := url.Values{}
		q.Set("center", center)
		q.Set("zoom", strconv.Itoa(zoom))
		q.Set("size", fmt.Sprintf("%dx%d", width, height))
		q.Set("markers", "color:red|"+center)
		q.Set("key", b.StaticMapKey.Unmask())
		return MapImage{URL: endpoint + "?" + q.Encode(), Provider: "static"}
	}

	t := TileFor(lat, lon, zoom)
	return MapImage{URL: TileURL(b.TileTemplate, t), Provider: "tile", Tile: &t}
}
