package browser

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestLogOnlyRecordsURL(t *testing.T) {
	logger, hook := test.NewNullLogger()

	if err := (LogOnly{Logger: logger}).Open("https://pay.example/checkout?id=1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Data["url"] != "https://pay.example/checkout?id=1" {
		t.Fatalf("expected url field, got %+v", entry)
	}
}

func TestOpenRejectsNonHTTPURLs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	for _, raw := range []string{"file:///etc/passwd", "javascript:alert(1)", "://bad"} {
		if err := (LogOnly{Logger: logger}).Open(raw); err == nil {
			t.Errorf("expected %q to be rejected", raw)
		}
		if err := (System{}).Open(raw); err == nil {
			t.Errorf("expected %q to be rejected by System", raw)
		}
	}
}
