// Package runs builds simulator run records and hands them to an executor.
//
// A run is created once with status created, then Submit moves it to queued
// and on to whatever the executor observed (running, succeeded or failed).
// Runs never return to an earlier status.
package runs
