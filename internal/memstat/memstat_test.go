package memstat

import "testing"

func TestRSSMB(t *testing.T) {
	// A running test process always has a nonzero footprint; the exact value
	// depends on the platform.
	if got := RSSMB(); got == 0 {
		t.Skip("resident set not measurable on this platform")
	}
}

func TestStatmRSS(t *testing.T) {
	rss, ok := statmRSS()
	if !ok {
		t.Skip("/proc/self/statm not available")
	}
	if rss == 0 {
		t.Error("statm reported zero resident bytes")
	}
}
