// Package youtube declares the YouTube analysis tools and validates their arguments
// before they reach the tool server.
package youtube

import (
	"github.com/SaiNageswarS/tube-agent/agentboot"
	"github.com/ollama/ollama/api"
)

// Catalog returns the built-in declarations of the four known tools.
func Catalog() []agentboot.MCPTool {
	return []agentboot.MCPTool{
		agentboot.NewMCPToolBuilder(ToolTranscript,
			"Fetch the transcript of a YouTube video.").
			StringParam("video_id", "Video id or full YouTube URL", true).
			StringParam("language", "Preferred transcript language code, e.g. en", false).
			WithNormalizer(Normalizer(ToolTranscript)).
			Build(),

		agentboot.NewMCPToolBuilder(ToolSearch,
			"Search YouTube videos by keyword and return their ids, titles and channels.").
			StringParam("query", "Search terms", true).
			IntParam("max_results", "Number of videos to return", 1, MaxSearchResults, false).
			WithNormalizer(Normalizer(ToolSearch)).
			Build(),

		agentboot.NewMCPToolBuilder(ToolChannel,
			"Get a channel's title, description, subscriber count and video count.").
			StringParam("channel_id", "YouTube channel id", true).
			WithNormalizer(Normalizer(ToolChannel)).
			Build(),

		agentboot.NewMCPToolBuilder(ToolComments,
			"Fetch top-level comments of a YouTube video.").
			StringParam("video_id", "Video id or full YouTube URL", true).
			IntParam("max_results", "Number of comments to return", 1, MaxCommentResults, false).
			WithNormalizer(Normalizer(ToolComments)).
			Build(),
	}
}

// Bind attaches argument validation to declarations discovered on the server.
func Bind(decls []api.Tool) []agentboot.MCPTool {
	out := make([]agentboot.MCPTool, 0, len(decls))
	for _, d := range decls {
		out = append(out, agentboot.MCPTool{
			Tool:      d,
			Normalize: Normalizer(d.Function.Name),
		})
	}
	return out
}

// Normalizer validates arguments for the named tool and returns the server payload.
func Normalizer(name string) func(api.ToolCallFunctionArguments) (map[string]any, error) {
	return func(args api.ToolCallFunctionArguments) (map[string]any, error) {
		parsed, err := ParseArguments(name, map[string]any(args))
		if err != nil {
			return nil, err
		}
		return parsed.Map(), nil
	}
}
