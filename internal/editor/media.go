package editor

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"highrise/internal/richtext"
)

var videoID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)

// YouTubeID extracts the video id from a youtu.be/<id> or
// youtube.com/watch?v=<id> URL.
func YouTubeID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidEmbedURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEmbedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEmbedURL, u.Scheme)
	}

	var id string
	switch strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com":
		if u.Path != "/watch" {
			return "", fmt.Errorf("%w: expected a /watch link", ErrInvalidEmbedURL)
		}
		id = u.Query().Get("v")
	default:
		return "", fmt.Errorf("%w: %s is not a YouTube host", ErrInvalidEmbedURL, u.Hostname())
	}
	if !videoID.MatchString(id) {
		return "", fmt.Errorf("%w: no video id", ErrInvalidEmbedURL)
	}
	return id, nil
}

// EmbedFragment renders the markup inserted into a post body for a video.
func EmbedFragment(id string) string {
	return `<div class="video-embed"><iframe width="560" height="315" src="` + richtext.YouTubeEmbedPrefix + id +
		`" title="YouTube video" frameborder="0" allowfullscreen></iframe></div>`
}

// ImageTag renders an inline image for a post body.
func ImageTag(src, alt string) string {
	return `<p><img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(alt) + `"></p>`
}

func validImageURL(raw string) bool {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
