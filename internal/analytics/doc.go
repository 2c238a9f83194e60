// Package analytics turns materialized record sets into dashboard-ready
// aggregates: totals and growth, histograms, time series, rankings and age
// bands.
//
// Every function here is pure and synchronous. Time-relative computations
// take an explicit reference instant; nothing reads the wall clock. Division
// by zero is defined away (the result is 0) and empty input yields empty or
// zero output rather than an error.
package analytics
