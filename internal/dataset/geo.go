package dataset

import (
	"context"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
)

// NameProperties are the feature properties tried, in order, for a country name.
var NameProperties = []string{"name", "NAME", "ADMIN", "name_long"}

// CodeProperties are the feature properties tried, in order, for an ISO alpha-3 code.
var CodeProperties = []string{"iso_a3", "ISO_A3", "ADM0_A3", "id"}

// LoadGeo fetches and decodes a GeoJSON FeatureCollection.
func (f *Fetcher) LoadGeo(ctx context.Context, src Source) (*geojson.FeatureCollection, error) {
	data, err := f.Bytes(ctx, src)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", src.Name, ErrMalformed, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%s: %w", src.Name, ErrEmpty)
	}
	return fc, nil
}

// FeatureName returns the first non-empty name property of a feature.
func FeatureName(f *geojson.Feature) string {
	return firstProperty(f, NameProperties)
}

// FeatureCode returns the feature's ISO code from its properties or its id.
func FeatureCode(f *geojson.Feature) string {
	if code := firstProperty(f, CodeProperties); code != "" {
		return code
	}
	if s, ok := f.ID.(string); ok {
		return s
	}
	return ""
}

func firstProperty(f *geojson.Feature, keys []string) string {
	for _, k := range keys {
		if v, err := f.PropertyString(k); err == nil && v != "" {
			return v
		}
	}
	return ""
}
