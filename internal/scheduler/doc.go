// Package scheduler closes surveys whose deadline has passed. A single
// sweeper goroutine wakes on a fixed interval, lists open surveys past
// their due date and closes each one through the survey service.
package scheduler
