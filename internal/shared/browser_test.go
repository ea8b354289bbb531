package shared

import (
	"strings"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	t.Run("Unsupported Platform", func(t *testing.T) {
		original := getRuntime
		getRuntime = func() string { return "plan9" }
		t.Cleanup(func() { getRuntime = original })

		err := OpenBrowser("https://accounts.spotify.com/authorize")
		if err == nil {
			t.Fatal("expected error for unsupported platform")
		}
		if !strings.Contains(err.Error(), "plan9") {
			t.Errorf("expected platform in error, got %v", err)
		}
	})
}
