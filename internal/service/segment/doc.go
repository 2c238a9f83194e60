// Package segment manages persisted customer segments.
//
// Creation resolves every member first and then writes the segment and its
// membership in one unit, so a failed fetch or write never leaves a partial
// segment behind. Deletion is refused while any campaign references the
// segment.
package segment
