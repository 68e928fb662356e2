package prompts

import (
	"strings"
	"testing"
)

func TestRenderSystemPrompt(t *testing.T) {
	systemPrompt, err := RenderSystemPrompt([]ToolInfo{
		{Name: "get_youtube_transcript", Description: "Fetch a video transcript"},
		{Name: "search_youtube_videos", Description: "Search videos"},
	})
	if err != nil {
		t.Fatalf("Failed to render system prompt: %v", err)
	}

	expectedContent := []string{
		"YouTube data analysis expert",
		"`get_youtube_transcript`: Fetch a video transcript",
		"`search_youtube_videos`: Search videos",
		"Do not invent numbers",
	}

	for _, expected := range expectedContent {
		if !strings.Contains(systemPrompt, expected) {
			t.Errorf("System prompt should contain '%s'", expected)
		}
	}
}

func TestRenderSystemPromptWithoutTools(t *testing.T) {
	systemPrompt, err := RenderSystemPrompt(nil)
	if err != nil {
		t.Fatalf("Failed to render system prompt: %v", err)
	}

	if strings.Contains(systemPrompt, "You can call these tools") {
		t.Error("System prompt should not list tools when none are available")
	}
}

func TestRenderRoundLimitPrompt(t *testing.T) {
	prompt, err := RenderRoundLimitPrompt(5)
	if err != nil {
		t.Fatalf("Failed to render round limit prompt: %v", err)
	}

	for _, expected := range []string{"(5 rounds)", "Do not\nrequest any more tools", "data gathered"} {
		if !strings.Contains(prompt, expected) {
			t.Errorf("Round limit prompt should contain '%s'", expected)
		}
	}
}
