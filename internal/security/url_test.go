package security

import "testing"

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		url  string
		safe bool
	}{
		{"https://example.com/feed.xml", true},
		{"http://news.example.org", true},
		{"https://8.8.8.8/rss", true},
		{"", false},
		{"not a url", false},
		{"ftp://example.com/file", false},
		{"file:///etc/passwd", false},
		{"javascript:alert(1)", false},
		{"http://localhost/admin", false},
		{"http://LOCALHOST/admin", false},
		{"http://127.0.0.1:8080/", false},
		{"http://0.0.0.0/", false},
		{"http://[::1]/", false},
		{"http://10.0.0.5/internal", false},
		{"http://172.16.0.1/", false},
		{"http://192.168.1.1/router", false},
		{"http://169.254.169.254/latest/meta-data/", false},
		{"http://224.0.0.1/", false},
		{"https://", false},
	}

	for _, tt := range tests {
		if got := IsSafeURL(tt.url); got != tt.safe {
			t.Errorf("IsSafeURL(%q) = %v, want %v", tt.url, got, tt.safe)
		}
	}
}
