package match

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"twitter.com", "https://twitter.com/user", "twitter.com/user"},
		{"x.com normalized to twitter.com", "https://x.com/user", "twitter.com/user"},
		{"http protocol", "http://twitter.com/user", "twitter.com/user"},
		{"trailing slash", "https://twitter.com/user/", "twitter.com/user"},
		{"www prefix", "https://www.twitter.com/user", "twitter.com/user"},
		{"uppercase", "https://Twitter.com/User", "twitter.com/user"},
		{"linkedin", "https://linkedin.com/in/user", "linkedin.com/in/user"},
		{"not a subdomain of x.com", "https://box.com/user", "box.com/user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeURL(tt.url); got != tt.want {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.linkedin.com/in/jane", "linkedin"},
		{"https://x.com/jane", "twitter"},
		{"https://twitter.com/jane/status/1", "twitter"},
		{"https://m.youtube.com/@jane", "youtube"},
		{"https://www.tiktok.com/@jane", "tiktok"},
		{"https://instagram.com/jane", "instagram"},
		{"https://example.com/jane", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := Platform(tt.url); got != tt.want {
				t.Errorf("Platform(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNormalizeLinkedInURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.linkedin.com/in/jane-doe/", "https://linkedin.com/in/jane-doe"},
		{"linkedin.com/in/jane-doe?trk=abc", "https://linkedin.com/in/jane-doe"},
		{"https://linkedin.com/company/acme", "https://linkedin.com/company/acme"},
		{"https://linkedin.com/", ""},
		{"https://example.com/in/jane", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeLinkedInURL(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeLinkedInURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got != "" && !IsLinkedInProfileURL(got) {
				t.Errorf("normalized URL %q is not a valid profile URL", got)
			}
		})
	}
}

func TestNormalizeTwitterHandle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@jane_doe", "jane_doe"},
		{"jane_doe", "jane_doe"},
		{"https://x.com/JaneDoe", "janedoe"},
		{"https://twitter.com/janedoe/status/123", "janedoe"},
		{"https://www.twitter.com/janedoe?lang=en", "janedoe"},
		{"https://linkedin.com/in/janedoe", ""},
		{"way_too_long_handle_for_twitter", ""},
		{"bad handle", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeTwitterHandle(tt.in); got != tt.want {
				t.Errorf("NormalizeTwitterHandle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
	if !IsTwitterProfileURL("https://x.com/janedoe") {
		t.Error("IsTwitterProfileURL rejected a canonical x.com URL")
	}
}
