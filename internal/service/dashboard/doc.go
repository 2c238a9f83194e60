// Package dashboard builds the sales overview and customer insight views.
//
// Each view fans its store reads out concurrently, then runs the pure
// aggregations from the analytics package over the fetched records. Views
// are cached per period and reference instant; a cache failure degrades to
// a recomputation and never fails the request.
package dashboard
