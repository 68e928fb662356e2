package youtube

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	ToolTranscript = "get_youtube_transcript"
	ToolSearch     = "search_youtube_videos"
	ToolChannel    = "get_channel_info"
	ToolComments   = "get_youtube_comments"

	MaxSearchResults  = 50
	MaxCommentResults = 100
)

var ErrInvalidArguments = errors.New("invalid tool arguments")

// Arguments is the validated argument set of one tool call.
type Arguments interface {
	ToolName() string
	// Map returns the arguments in the shape sent to the tool server.
	Map() map[string]any
}

type TranscriptArgs struct {
	VideoID  string
	Language string
}

func (a TranscriptArgs) ToolName() string { return ToolTranscript }

func (a TranscriptArgs) Map() map[string]any {
	m := map[string]any{"video_id": a.VideoID}
	if a.Language != "" {
		m["language"] = a.Language
	}
	return m
}

type SearchArgs struct {
	Query string
	// MaxResults is zero when the model left it to the server default.
	MaxResults int
}

func (a SearchArgs) ToolName() string { return ToolSearch }

func (a SearchArgs) Map() map[string]any {
	m := map[string]any{"query": a.Query}
	if a.MaxResults > 0 {
		m["max_results"] = a.MaxResults
	}
	return m
}

type ChannelArgs struct {
	ChannelID string
}

func (a ChannelArgs) ToolName() string { return ToolChannel }

func (a ChannelArgs) Map() map[string]any {
	return map[string]any{"channel_id": a.ChannelID}
}

type CommentsArgs struct {
	VideoID    string
	MaxResults int
}

func (a CommentsArgs) ToolName() string { return ToolComments }

func (a CommentsArgs) Map() map[string]any {
	m := map[string]any{"video_id": a.VideoID}
	if a.MaxResults > 0 {
		m["max_results"] = a.MaxResults
	}
	return m
}

// RawArguments carries calls to tools outside the known catalog unchanged.
type RawArguments struct {
	Name string
	Args map[string]any
}

func (a RawArguments) ToolName() string { return a.Name }

func (a RawArguments) Map() map[string]any {
	if a.Args == nil {
		return map[string]any{}
	}
	return a.Args
}

// ParseArguments validates raw model arguments for the named tool.
func ParseArguments(name string, raw map[string]any) (Arguments, error) {
	switch name {
	case ToolTranscript:
		id, err := videoIDArg(raw)
		if err != nil {
			return nil, err
		}
		lang, err := optionalString(raw, "language")
		if err != nil {
			return nil, err
		}
		return TranscriptArgs{VideoID: id, Language: lang}, nil

	case ToolSearch:
		q, err := requiredString(raw, "query")
		if err != nil {
			return nil, err
		}
		n, err := optionalInt(raw, "max_results", 1, MaxSearchResults)
		if err != nil {
			return nil, err
		}
		return SearchArgs{Query: q, MaxResults: n}, nil

	case ToolChannel:
		id, err := requiredString(raw, "channel_id")
		if err != nil {
			return nil, err
		}
		return ChannelArgs{ChannelID: id}, nil

	case ToolComments:
		id, err := videoIDArg(raw)
		if err != nil {
			return nil, err
		}
		n, err := optionalInt(raw, "max_results", 1, MaxCommentResults)
		if err != nil {
			return nil, err
		}
		return CommentsArgs{VideoID: id, MaxResults: n}, nil
	}

	return RawArguments{Name: name, Args: raw}, nil
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NormalizeVideoID accepts a bare video id or a watch, youtu.be, shorts, embed or live URL.
func NormalizeVideoID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: video_id is required", ErrInvalidArguments)
	}
	if videoIDPattern.MatchString(s) {
		return s, nil
	}

	raw := s
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: cannot parse video %q", ErrInvalidArguments, s)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtu.be":
		id = segments[0]
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		switch segments[0] {
		case "watch":
			id = u.Query().Get("v")
		case "shorts", "embed", "live", "v":
			if len(segments) > 1 {
				id = segments[1]
			}
		}
	}

	if id == "" || !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: no video id in %q", ErrInvalidArguments, s)
	}
	return id, nil
}

func videoIDArg(raw map[string]any) (string, error) {
	v, err := requiredString(raw, "video_id")
	if err != nil {
		return "", err
	}
	return NormalizeVideoID(v)
}

func requiredString(raw map[string]any, key string) (string, error) {
	v, err := optionalString(raw, key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArguments, key)
	}
	return v, nil
}

func optionalString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArguments, key)
	}
	return strings.TrimSpace(s), nil
}

// optionalInt reads a whole number in [min, max]. Models send numbers as floats or strings.
func optionalInt(raw map[string]any, key string, min, max int) (int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}

	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArguments, key)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArguments, key)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArguments, key)
	}

	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be a whole number", ErrInvalidArguments, key)
	}
	if f < float64(min) || f > float64(max) {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidArguments, key, min, max)
	}
	return int(f), nil
}
