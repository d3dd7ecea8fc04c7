// Package notification holds the canonical notification record submitted to the
// platform, the error kinds shared by the scheduling layer, and the Builder that
// assembles records from loosely specified options.
//
// The Builder performs no I/O. Action types bundled by a build are returned next
// to the request in a Submission; registering them is the notifier's job.
package notification
