// Package transform converts (latitude, longitude) datasets into 3-D
// earth-centered earth-fixed (ECEF) coordinates, so that Euclidean distance
// over the transformed vectors is line-of-sight distance.
package transform

import (
	"fmt"
	"math"

	"github.com/mikiec84/vafile/dataset"
)

// EarthRadius is the mean earth radius in meters of the spherical model.
const EarthRadius = 6371009.0

// LatLngToECEF converts latitude/longitude in degrees to ECEF (X, Y, Z)
// meters on a spherical earth model.
func LatLngToECEF(lat, lng float64) (x, y, z float64) {
	latRad := lat * math.Pi / 180
	lngRad := lng * math.Pi / 180
	cosLat := math.Cos(latRad)
	x = EarthRadius * cosLat * math.Cos(lngRad)
	y = EarthRadius * cosLat * math.Sin(lngRad)
	z = EarthRadius * math.Sin(latRad)
	return x, y, z
}

// ECEFDataset projects a 2-D (latitude, longitude) dataset to a 3-D ECEF
// dataset with the same identifiers.
func ECEFDataset(data dataset.Dataset) (*dataset.Slice, error) {
	if data.Dimensionality() != 2 {
		return nil, fmt.Errorf("transform: expected 2-d (lat, lng) dataset, got %d dimensions", data.Dimensionality())
	}

	vectors := make([][]float32, 0, data.Size())
	for _, v := range data.All() {
		x, y, z := LatLngToECEF(float64(v[0]), float64(v[1]))
		vectors = append(vectors, []float32{float32(x), float32(y), float32(z)})
	}
	return dataset.NewSlice(vectors)
}
