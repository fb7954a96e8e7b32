package version

import "testing"

func withVersion(t *testing.T, v, commit string) {
	t.Helper()
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })
	Version, Commit = v, commit
}

func TestIsDev(t *testing.T) {
	tests := []struct {
		version  string
		expected bool
	}{
		{"dev", true},
		{"1.0.0", false},
		{"v1.2.3", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			withVersion(t, tt.version, "none")
			if got := IsDev(); got != tt.expected {
				t.Errorf("IsDev() with Version=%q = %v, want %v", tt.version, got, tt.expected)
			}
		})
	}
}

func TestFull(t *testing.T) {
	withVersion(t, "dev", "none")
	if got := Full(); got != "hubstaff version dev (built from source)" {
		t.Errorf("Full() with dev = %q", got)
	}

	withVersion(t, "1.2.3", "none")
	if got := Full(); got != "hubstaff version 1.2.3" {
		t.Errorf("Full() with 1.2.3 = %q", got)
	}

	withVersion(t, "1.2.3", "0123456789abcdef")
	if got := Full(); got != "hubstaff version 1.2.3 (0123456)" {
		t.Errorf("Full() with commit = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	withVersion(t, "dev", "none")
	if got := UserAgent(); got != "hubstaff-cli/dev" {
		t.Errorf("UserAgent() with dev = %q", got)
	}

	withVersion(t, "1.0.0", "none")
	if got := UserAgent(); got != "hubstaff-cli/1.0.0" {
		t.Errorf("UserAgent() with 1.0.0 = %q", got)
	}
}
