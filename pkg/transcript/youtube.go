package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/rag/failure"
)

const (
	logModule      = "TRANSCRIPT"
	defaultBaseURL = "https://www.youtube.com"
	maxBodyBytes   = 8 << 20
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// YouTubeSource reads the caption track list off the watch page and
// downloads the chosen timedtext document.
type YouTubeSource struct {
	baseURL  string
	language string
	client   *http.Client
	logger   logger.ILogger
}

var _ Source = (*YouTubeSource)(nil)

func NewYouTubeSource(baseURL, language string, timeout time.Duration, log logger.ILogger) *YouTubeSource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if language == "" {
		language = "en"
	}
	return &YouTubeSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		client:   &http.Client{Timeout: timeout},
		logger:   log,
	}
}

func (y *YouTubeSource) Fetch(ctx context.Context, videoRef string) (string, error) {
	id, err := ExtractVideoID(videoRef)
	if err != nil {
		return "", err
	}

	page, err := y.get(ctx, y.baseURL+"/watch?v="+url.QueryEscape(id))
	if err != nil {
		return "", failure.Wrap(failure.ErrTranscriptUnavailable, "transcript.watch_page", err)
	}

	tracks, err := parseCaptionTracks(page)
	if err != nil {
		return "", failure.Wrap(failure.ErrTranscriptUnavailable, "transcript.tracks", err)
	}
	track := pickTrack(tracks, y.language)

	doc, err := y.get(ctx, y.resolve(track.BaseURL))
	if err != nil {
		return "", failure.Wrap(failure.ErrTranscriptUnavailable, "transcript.timedtext", err)
	}

	segments, err := parseTimedText(doc)
	if err != nil {
		return "", failure.Wrap(failure.ErrTranscriptUnavailable, "transcript.timedtext", err)
	}

	// A track without any text is an empty transcript, not a missing one
	text := JoinSegments(segments)
	if text == "" {
		y.logger.Warn(logModule, "Caption track is empty", map[string]interface{}{
			"video_id": id,
			"language": track.LanguageCode,
		})
		return "", nil
	}

	y.logger.Info(logModule, "Fetched transcript", map[string]interface{}{
		"video_id": id,
		"language": track.LanguageCode,
		"segments": len(segments),
		"chars":    len(text),
	})
	return text, nil
}

func (y *YouTubeSource) resolve(ref string) string {
	if strings.HasPrefix(ref, "/") {
		return y.baseURL + ref
	}
	return ref
}

func (y *YouTubeSource) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", y.language+",en;q=0.8")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", req.URL.Path, resp.StatusCode)
	}
	return body, nil
}

// parseCaptionTracks pulls the captionTracks JSON array out of the player
// response embedded in the watch page.
func parseCaptionTracks(page []byte) ([]captionTrack, error) {
	const marker = `"captionTracks":`
	s := string(page)
	i := strings.Index(s, marker)
	if i < 0 {
		return nil, fmt.Errorf("video has no captions")
	}
	raw, err := sliceJSONArray(s[i+len(marker):])
	if err != nil {
		return nil, err
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("video has no captions")
	}
	return tracks, nil
}

// sliceJSONArray returns the leading JSON array of s, honouring strings.
func sliceJSONArray(s string) (string, error) {
	s = strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(s, "[") {
		return "", fmt.Errorf("caption tracks are not an array")
	}
	depth, inString, escaped := 0, false, false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
		case r == '[' || r == '{':
			depth++
		case r == ']' || r == '}':
			depth--
			if depth == 0 {
				return s[:i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated caption tracks array")
}

// pickTrack prefers a manual track in lang, then an auto-generated one, then
// whatever comes first.
func pickTrack(tracks []captionTrack, lang string) captionTrack {
	var auto *captionTrack
	for i := range tracks {
		t := &tracks[i]
		if !strings.EqualFold(t.LanguageCode, lang) && !strings.HasPrefix(strings.ToLower(t.LanguageCode), strings.ToLower(lang)+"-") {
			continue
		}
		if t.Kind != "asr" {
			return *t
		}
		if auto == nil {
			auto = t
		}
	}
	if auto != nil {
		return *auto
	}
	return tracks[0]
}

type timedTextV1 struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

type timedTextV3 struct {
	Paragraphs []struct {
		T     int64  `xml:"t,attr"`
		D     int64  `xml:"d,attr"`
		Body  string `xml:",chardata"`
		Words []struct {
			Body string `xml:",chardata"`
		} `xml:"s"`
	} `xml:"body>p"`
}

// parseTimedText understands both the legacy <transcript><text> layout and
// the srv3 <timedtext><body><p> layout.
func parseTimedText(doc []byte) ([]Segment, error) {
	if len(strings.TrimSpace(string(doc))) == 0 {
		return nil, nil
	}

	var v1 timedTextV1
	if err := xml.Unmarshal(doc, &v1); err == nil && len(v1.Texts) > 0 {
		segments := make([]Segment, 0, len(v1.Texts))
		for _, t := range v1.Texts {
			segments = append(segments, Segment{
				Start:    parseSeconds(t.Start),
				Duration: parseSeconds(t.Dur),
				Text:     html.UnescapeString(t.Body),
			})
		}
		return segments, nil
	}

	var v3 timedTextV3
	if err := xml.Unmarshal(doc, &v3); err != nil {
		return nil, fmt.Errorf("decode timedtext: %w", err)
	}
	segments := make([]Segment, 0, len(v3.Paragraphs))
	for _, p := range v3.Paragraphs {
		text := p.Body
		for _, w := range p.Words {
			text += w.Body
		}
		segments = append(segments, Segment{
			Start:    float64(p.T) / 1000,
			Duration: float64(p.D) / 1000,
			Text:     html.UnescapeString(text),
		})
	}
	return segments, nil
}

func parseSeconds(s string) float64 {
	var f float64
	_, _ = fmt.Sscanf(s, "%g", &f)
	return f
}
