package transcript

import (
	"regexp"
	"strings"
)

var (
	videoIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/|shorts/|live/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	paramIDPattern = regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`)
)

// ExtractVideoID pulls the 11-character video ID out of the URL shapes
// YouTube serves: watch, shorts, embed, live, youtu.be, and bare v= params.
func ExtractVideoID(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if m := videoIDPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	if m := paramIDPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	return "", false
}
