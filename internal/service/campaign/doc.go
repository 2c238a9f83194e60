// Package campaign implements campaign management.
//
// Campaigns tie a sales channel and a customer segment to a budget and a
// date range. The service layer validates input and depends on the
// Repository interface defined here; the PostgreSQL implementation lives in
// repository/postgres/.
package campaign
