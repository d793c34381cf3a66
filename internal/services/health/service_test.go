package health

import "testing"

func TestStatus(t *testing.T) {
	svc := NewService("gemini-1.5-flash-latest", func() bool { return true })
	got := svc.Status()
	if !got.OK || !got.APIKeyConfigured || got.Model != "gemini-1.5-flash-latest" {
		t.Fatalf("unexpected status %+v", got)
	}

	noKey := NewService("m", nil).Status()
	if !noKey.OK || noKey.APIKeyConfigured {
		t.Fatalf("unexpected status %+v", noKey)
	}
}
