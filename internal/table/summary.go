package table

import (
	"github.com/twpayne/go-geom"
)

// Summary is a headline count of a dataset or view.
type Summary struct {
	Records   int     `json:"records"`
	Customers int     `json:"customers"`
	Packages  int     `json:"packages"`
	TotalQty  int64   `json:"total_qty"`
	Geocoded  int     `json:"geocoded"`
	Extent    *Extent `json:"extent,omitempty"`
}

// Extent is the bounding box and mean centre of the geocoded records.
type Extent struct {
	MinLat    float64 `json:"min_lat"`
	MinLon    float64 `json:"min_lon"`
	MaxLat    float64 `json:"max_lat"`
	MaxLon    float64 `json:"max_lon"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
}

// Summarize counts records, distinct customers and packages, total quantity
// (non-numeric quantities count as zero, truncated after summing) and the
// spread of valid coordinates.
func Summarize(ds *Dataset) Summary {
	s := Summary{
		Records:   ds.Len(),
		Customers: len(ds.Distinct(ColCustomer)),
		Packages:  len(ds.Distinct(ColPackage)),
	}

	bounds := geom.NewBounds(geom.XY)
	var sumLat, sumLon, qty float64
	for _, r := range ds.rows {
		if q, ok := r.Value(ColQty).Float(); ok {
			qty += q
		}
		lat, lon, ok := r.Coordinates()
		if !ok {
			continue
		}
		s.Geocoded++
		sumLat += lat
		sumLon += lon
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{lon, lat}))
	}

	s.TotalQty = int64(qty)

	if s.Geocoded > 0 {
		s.Extent = &Extent{
			MinLat:    bounds.Min(1),
			MinLon:    bounds.Min(0),
			MaxLat:    bounds.Max(1),
			MaxLon:    bounds.Max(0),
			CenterLat: sumLat / float64(s.Geocoded),
			CenterLon: sumLon / float64(s.Geocoded),
		}
	}
	return s
}
