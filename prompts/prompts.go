package prompts

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// ToolInfo is the part of a tool declaration shown in the system prompt.
type ToolInfo struct {
	Name        string
	Description string
}

// RenderSystemPrompt renders the YouTube analyst persona with the available tools listed.
func RenderSystemPrompt(tools []ToolInfo) (string, error) {
	data := struct {
		Tools []ToolInfo
	}{
		Tools: tools,
	}
	return render("youtube_analyst_system", "templates/youtube_analyst_system.md", data)
}

// RenderRoundLimitPrompt renders the instruction appended when the tool round cap is hit.
func RenderRoundLimitPrompt(maxRounds int) (string, error) {
	data := struct {
		MaxRounds int
	}{
		MaxRounds: maxRounds,
	}
	return render("round_limit", "templates/round_limit.md", data)
}

func render(name, path string, data any) (string, error) {
	content, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
