// Package vafile implements a Vector Approximation File (VA-file) similarity
// index for exact range and k-nearest-neighbor search over fixed-dimensional
// vectors.
//
// The index compresses every vector into a per-dimension cell index
// ("approximation") over a quantile grid. Queries run in two phases: a cheap
// filter pass computes lower/upper Lp distance bounds from the approximations
// alone and prunes candidates, then a refine pass computes exact distances
// only for the survivors. Results are identical to a brute-force scan; the
// approximations only reduce how many exact distances must be computed.
//
// # Quick Start
//
//	data, _ := dataset.NewSlice(vectors)
//	idx, _ := vafile.New(data, distance.Euclidean(), vafile.WithPartitions(8))
//	_ = idx.Build(ctx)
//
//	nearest, _ := idx.KNNSearch(ctx, query, 10, nil)
//	inRange, _ := idx.RangeSearch(ctx, query, 0.5, nil)
//
// # Metric Support
//
// Bound estimation is only sound for Minkowski (Lp-norm) distances. New
// rejects any other metric with ErrUnsupportedMetric; callers should fall
// back to the exhaustive linearscan.Searcher, which accepts any metric:
//
//	idx, err := vafile.New(data, distance.Cosine{})
//	if errors.Is(err, vafile.ErrUnsupportedMetric) {
//	    s := linearscan.New(data, distance.Cosine{})
//	    results, _ := s.KNNSearch(ctx, query, 10, nil)
//	}
//
// # Lifecycle
//
// The index is built exactly once from a static dataset snapshot and is
// immutable afterwards; queries may then run concurrently without locking.
// There is no incremental insert, delete, or persistence.
//
// Reference: R. Weber, S. Blott: An approximation based data structure for
// similarity search. Report TR1997b, ETH Zentrum, Zurich, Switzerland.
package vafile
