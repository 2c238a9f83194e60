// Package export writes segment members as CSV, either to a caller's
// writer or to S3 with a manifest record in DynamoDB.
package export
