// internal/workers/marketing/asset-generate/suggest.go
package assetgenerate

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"time"
)

const maxHashtags = 8

var defaultHashtags = map[string][]string{
	"instagram": {"#handmade", "#supportlocal", "#craft", "#artisan", "#madeinindia"},
	"facebook":  {"#handmade", "#localbusiness", "#crafts"},
	"whatsapp":  {},
	"x":         {"#Handmade", "#Artisan"},
	"youtube":   {"#handmade", "#craft"},
}

// SuggestHashtags merges the channel defaults with caller-supplied tags.
// Tags are prefixed with "#" when missing, deduplicated, and capped.
func SuggestHashtags(channel string, extra []string) []string {
	base, ok := defaultHashtags[strings.ToLower(channel)]
	if !ok {
		base = defaultHashtags["instagram"]
	}

	tags := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, tag := range base {
		tags = append(tags, tag)
		seen[tag] = true
	}
	for _, tag := range extra {
		t := strings.TrimSpace(tag)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") {
			t = "#" + t
		}
		if !seen[t] {
			tags = append(tags, t)
			seen[t] = true
		}
	}

	if len(tags) > maxHashtags {
		tags = tags[:maxHashtags]
	}
	return tags
}

// SuggestBestTime returns the next 19:00 IST (13:30 UTC) after now.
// Rule-based until real engagement stats back this.
func SuggestBestTime(now time.Time) string {
	now = now.UTC()
	target := now.Truncate(24 * time.Hour).Add(13*time.Hour + 30*time.Minute)
	if !target.After(now) {
		target = target.Add(24 * time.Hour)
	}
	return target.Format(time.RFC3339)
}

// placeholderImage is a 1x1 transparent PNG uploaded until rendered
// creatives exist.
var placeholderImage = func() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		return nil
	}
	return buf.Bytes()
}()
