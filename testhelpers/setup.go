// Package testhelpers provides shared utilities for testing fuzzysql
package testhelpers

import (
	"os"
	"testing"

	"go.uber.org/goleak"
)

// LeakOptions are the goleak options shared by every TestMain. database/sql
// keeps an opener goroutine per pool until Close, which tests always call.
func LeakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	}
}

// AssertNoLeaks verifies no goroutine leaks occurred during the test
func AssertNoLeaks(t *testing.T) {
	t.Helper()

	if err := goleak.Find(append(LeakOptions(), goleak.IgnoreCurrent())...); err != nil {
		t.Errorf("Goroutine leak detected: %v", err)
	}
}

// SkipIfShort skips the test if -short flag is provided
func SkipIfShort(t *testing.T, reason string) {
	t.Helper()
	if testing.Short() {
		t.Skipf("Skipping in short mode: %s", reason)
	}
}

// SkipInCI skips the test if running in CI environment
func SkipInCI(t *testing.T, reason string) {
	t.Helper()
	if os.Getenv("CI") != "" {
		t.Skipf("Skipping in CI: %s", reason)
	}
}
