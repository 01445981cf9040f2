package monitoring

import (
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op logger
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("no-op logger should not have triggered callback")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}

func TestDebugf(t *testing.T) {
	original := Logf
	originalVerbose := Verbose
	defer func() {
		Logf = original
		Verbose = originalVerbose
	}()

	var messages []string
	SetLogger(func(format string, v ...interface{}) {
		messages = append(messages, format)
	})

	Verbose = false
	Debugf("quiet")
	if len(messages) != 0 {
		t.Errorf("Debugf logged %d messages with Verbose off, want 0", len(messages))
	}

	Verbose = true
	Debugf("loud")
	if len(messages) != 1 {
		t.Errorf("Debugf logged %d messages with Verbose on, want 1", len(messages))
	}
}
