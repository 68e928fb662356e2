// Package mcpstub serves the YouTube tools from fixture data, for local runs and tests
// without YouTube API access.
package mcpstub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/tube-agent/youtube"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Video struct {
	ID         string   `json:"video_id"`
	Title      string   `json:"title"`
	ChannelID  string   `json:"channel_id"`
	Transcript []string `json:"-"`
	Comments   []string `json:"-"`
}

type Channel struct {
	ID          string `json:"channel_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Subscribers int    `json:"subscriber_count"`
	Videos      int    `json:"video_count"`
}

// Fixtures is the data the stub answers from.
type Fixtures struct {
	Videos   []Video
	Channels []Channel
}

func DefaultFixtures() Fixtures {
	return Fixtures{
		Videos: []Video{
			{
				ID:        "dQw4w9WgXcQ",
				Title:     "Go concurrency patterns in 10 minutes",
				ChannelID: "UCgopher",
				Transcript: []string{
					"Today we look at goroutines and channels.",
					"A worker pool bounds concurrency with a buffered channel.",
					"Always pass a context so work can be cancelled.",
				},
				Comments: []string{
					"Best explanation of worker pools I've seen.",
					"Could you cover errgroup next?",
					"The context part finally clicked for me.",
				},
			},
			{
				ID:         "abcDEF12345",
				Title:      "Profiling Go services with pprof",
				ChannelID:  "UCgopher",
				Transcript: []string{"pprof ships with the standard library.", "Start with a CPU profile."},
				Comments:   []string{"Flame graphs are great."},
			},
		},
		Channels: []Channel{
			{
				ID:          "UCgopher",
				Title:       "Gopher Academy Clips",
				Description: "Short talks about Go in production.",
				Subscribers: 48200,
				Videos:      2,
			},
		},
	}
}

// NewServer registers the four YouTube tools over fx.
func NewServer(fx Fixtures) *server.MCPServer {
	s := server.NewMCPServer(
		"youtube-stub",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := &handler{fx: fx}

	s.AddTool(mcp.NewTool(youtube.ToolTranscript,
		mcp.WithDescription("Fetch the transcript of a YouTube video."),
		mcp.WithString("video_id", mcp.Required(), mcp.Description("Video id or full YouTube URL")),
		mcp.WithString("language", mcp.Description("Preferred transcript language code")),
	), h.transcript)

	s.AddTool(mcp.NewTool(youtube.ToolSearch,
		mcp.WithDescription("Search YouTube videos by keyword."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")),
		mcp.WithNumber("max_results", mcp.Description("Number of videos to return (1-50)")),
	), h.search)

	s.AddTool(mcp.NewTool(youtube.ToolChannel,
		mcp.WithDescription("Get channel metadata."),
		mcp.WithString("channel_id", mcp.Required(), mcp.Description("YouTube channel id")),
	), h.channel)

	s.AddTool(mcp.NewTool(youtube.ToolComments,
		mcp.WithDescription("Fetch top-level comments of a YouTube video."),
		mcp.WithString("video_id", mcp.Required(), mcp.Description("Video id or full YouTube URL")),
		mcp.WithNumber("max_results", mcp.Description("Number of comments to return (1-100)")),
	), h.comments)

	return s
}

type handler struct {
	fx Fixtures
}

func (h *handler) transcript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := youtube.ParseArguments(youtube.ToolTranscript, req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, ok := h.video(args.(youtube.TranscriptArgs).VideoID)
	if !ok {
		return mcp.NewToolResultError("video not found"), nil
	}
	return mcp.NewToolResultText(strings.Join(v.Transcript, "\n")), nil
}

func (h *handler) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := youtube.ParseArguments(youtube.ToolSearch, req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	search := args.(youtube.SearchArgs)

	limit := search.MaxResults
	if limit == 0 {
		limit = 5
	}
	terms := strings.Fields(strings.ToLower(search.Query))
	results := []Video{}
	for _, v := range h.fx.Videos {
		if len(results) == limit {
			break
		}
		if matchesAny(strings.ToLower(v.Title), terms) {
			results = append(results, v)
		}
	}
	return jsonResult(map[string]any{"query": search.Query, "results": results})
}

func (h *handler) channel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := youtube.ParseArguments(youtube.ToolChannel, req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := args.(youtube.ChannelArgs).ChannelID
	for _, c := range h.fx.Channels {
		if c.ID == id {
			return jsonResult(c)
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("channel %s not found", id)), nil
}

func (h *handler) comments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := youtube.ParseArguments(youtube.ToolComments, req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ca := args.(youtube.CommentsArgs)
	v, ok := h.video(ca.VideoID)
	if !ok {
		return mcp.NewToolResultError("video not found"), nil
	}

	comments := v.Comments
	if ca.MaxResults > 0 && ca.MaxResults < len(comments) {
		comments = comments[:ca.MaxResults]
	}
	return jsonResult(map[string]any{"video_id": v.ID, "comments": comments})
}

func (h *handler) video(id string) (Video, bool) {
	for _, v := range h.fx.Videos {
		if v.ID == id {
			return v, true
		}
	}
	return Video{}, false
}

func matchesAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
