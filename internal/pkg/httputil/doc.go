// Package httputil holds the JSON and file response helpers shared by the
// API handlers, plus strict request body decoding. Error bodies always use
// the ErrorResponse envelope.
package httputil
