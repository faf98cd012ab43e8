// Package zonal overlays derived flood rasters with agricultural field
// polygons and produces the per-field statistics table.
package zonal

import (
	"fmt"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Field is one agricultural parcel from the fields layer
type Field struct {
	ID       string
	Geometry orb.Geometry
}

// LoadFields reads field polygons from a GeoJSON feature collection.
// idProperty names the feature property carrying the field identifier;
// features without it fall back to their feature id, then to their
// ordinal position.
func LoadFields(path, idProperty string) ([]Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fields layer: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	fields := make([]Field, 0, len(fc.Features))
	for i, feat := range fc.Features {
		switch feat.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("feature %d: geometry type %s is not a polygon", i, feat.Geometry.GeoJSONType())
		}

		id := propertyID(feat, idProperty)
		if id == "" {
			id = strconv.Itoa(i)
		}
		fields = append(fields, Field{ID: id, Geometry: feat.Geometry})
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%s contains no features", path)
	}
	return fields, nil
}

func propertyID(feat *geojson.Feature, key string) string {
	if key != "" {
		switch v := feat.Properties[key].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	switch v := feat.ID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
