package logging

import "testing"

func TestInitLeavesUsableLogger(t *testing.T) {
	if Logger == nil {
		t.Fatal("Logger must be non-nil before Init")
	}
	Init(false)
	if Logger == nil {
		t.Fatal("Logger must be non-nil after Init")
	}
	Init(true)
	Logger.Debugf("debug output works: %d", 1)
	Sync()
}
