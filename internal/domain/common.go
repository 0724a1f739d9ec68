package domain

type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat" db:"min_lat"`
	MinLon float64 `json:"min_lon" db:"min_lon"`
	MaxLat float64 `json:"max_lat" db:"max_lat"`
	MaxLon float64 `json:"max_lon" db:"max_lon"`
}

// PointBox возвращает вырожденную рамку из одной точки
func PointBox(p Point) BoundingBox {
	return BoundingBox{MinLat: p.Lat, MinLon: p.Lon, MaxLat: p.Lat, MaxLon: p.Lon}
}

// Extend расширяет рамку, чтобы она включала точку
func (b BoundingBox) Extend(p Point) BoundingBox {
	b.MinLat = min(b.MinLat, p.Lat)
	b.MinLon = min(b.MinLon, p.Lon)
	b.MaxLat = max(b.MaxLat, p.Lat)
	b.MaxLon = max(b.MaxLon, p.Lon)
	return b
}
