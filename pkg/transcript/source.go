// Package transcript fetches caption text for a video reference.
package transcript

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"video-rag-chat-be/pkg/rag/failure"
)

// Source turns a video reference into its flattened transcript.
type Source interface {
	Fetch(ctx context.Context, videoRef string) (string, error)
}

// Segment is one timed caption line.
type Segment struct {
	Start    float64
	Duration float64
	Text     string
}

// JoinSegments orders segments chronologically and joins their text with
// single spaces.
func JoinSegments(segments []Segment) string {
	ordered := make([]Segment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	parts := make([]string, 0, len(ordered))
	for _, s := range ordered {
		if text := strings.Join(strings.Fields(s.Text), " "); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	bareIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ExtractVideoID derives the video id from a watch URL, a youtu.be link, a
// shorts/embed/live path, a bare id, or as a last resort the text after the
// first "=" up to the next "&" or "#".
func ExtractVideoID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", failure.New(failure.ErrTranscriptUnavailable, "transcript.video_id", "empty video reference")
	}
	if bareIDPattern.MatchString(ref) {
		return ref, nil
	}

	if id := fromURL(ref); id != "" {
		return validID(ref, id)
	}

	if _, after, ok := strings.Cut(ref, "="); ok {
		if i := strings.IndexAny(after, "&#"); i >= 0 {
			after = after[:i]
		}
		return validID(ref, after)
	}

	return "", failure.New(failure.ErrTranscriptUnavailable, "transcript.video_id", "no video id in %q", ref)
}

func fromURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "youtu.be" && segments[0] != "" {
		return segments[0]
	}
	if len(segments) >= 2 {
		switch segments[0] {
		case "shorts", "embed", "live", "v":
			return segments[1]
		}
	}
	return ""
}

func validID(ref, id string) (string, error) {
	if !videoIDPattern.MatchString(id) {
		return "", failure.New(failure.ErrTranscriptUnavailable, "transcript.video_id", "malformed video id in %q", ref)
	}
	return id, nil
}
