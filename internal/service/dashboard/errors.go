package dashboard

import "errors"

// ErrFetch wraps any store read failure. A view is never built from a
// partial read.
var ErrFetch = errors.New("dashboard data fetch failed")
