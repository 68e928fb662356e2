package agentboot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/tube-agent/llm"
	"github.com/SaiNageswarS/tube-agent/memory"
	"github.com/SaiNageswarS/tube-agent/prompts"
	"github.com/SaiNageswarS/tube-agent/schema"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Execute runs one user turn against a stored session. The user message is appended
// before the model runs; when generation fails the session is truncated back to its
// pre-turn length so a failed turn leaves no trace.
func (a *Agent) Execute(ctx context.Context, reporter ProgressReporter, req *schema.GenerateAnswerRequest) (*schema.StreamComplete, error) {
	if reporter == nil {
		reporter = &NoOpProgressReporter{}
	}
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		err := fmt.Errorf("%w: question is empty", memory.ErrInvalidMessage)
		send(reporter, NewStreamError(err.Error(), "invalid_request"))
		return nil, err
	}

	cm := a.config.ConversationManager
	if cm == nil {
		cm = memory.NewConversationManager(memory.NewMemoryStore(), 0)
		a.config.ConversationManager = cm
	}
	store := cm.Store()

	session, err := cm.LoadSession(ctx, req.SessionId)
	if err != nil {
		send(reporter, NewStreamError(err.Error(), "session_load_failed"))
		return nil, err
	}

	unlock := a.lockSession(session.ID)
	defer unlock()

	// reload under the lock; another turn may have finished in between
	session, err = store.GetSession(ctx, session.ID)
	if err != nil {
		send(reporter, NewStreamError(err.Error(), "session_load_failed"))
		return nil, err
	}
	preTurnLen := len(session.Messages)

	userMsg := llm.UserMessage(question)
	if err := store.Append(ctx, session.ID, userMsg); err != nil {
		send(reporter, NewStreamError(err.Error(), "session_save_failed"))
		return nil, err
	}

	history := cm.ModelHistory(append(session.Messages, userMsg))
	result, err := a.Respond(ctx, reporter, history)
	if err != nil {
		logger.Error("Failed to run inference", zap.String("session", session.ID), zap.Error(err))
		if rbErr := store.Truncate(context.WithoutCancel(ctx), session.ID, preTurnLen); rbErr != nil {
			logger.Error("Failed to roll back session", zap.String("session", session.ID), zap.Error(rbErr))
		}
		send(reporter, NewStreamError(err.Error(), "inference_failed"))
		return nil, err
	}

	if err := store.Append(ctx, session.ID, result.Messages...); err != nil {
		logger.Error("Failed to save turn", zap.String("session", session.ID), zap.Error(err))
		if rbErr := store.Truncate(context.WithoutCancel(ctx), session.ID, preTurnLen); rbErr != nil {
			logger.Error("Failed to roll back session", zap.String("session", session.ID), zap.Error(rbErr))
		}
		send(reporter, NewStreamError(err.Error(), "session_save_failed"))
		return nil, err
	}

	response := &schema.StreamComplete{
		SessionId:      session.ID,
		Answer:         result.Answer,
		ToolsUsed:      result.ToolsUsed,
		Rounds:         result.Rounds,
		Truncated:      result.Truncated,
		ProcessingTime: time.Since(start).Milliseconds(),
		Metadata: map[string]string{
			"model":  a.config.Model.GetModel(),
			"rounds": strconv.Itoa(result.Rounds),
		},
	}
	if response.ToolsUsed == nil {
		response.ToolsUsed = []string{}
	}

	send(reporter, NewAnswerChunk(response.Answer))
	send(reporter, NewStreamComplete(response))
	return response, nil
}

// Respond runs the tool-calling loop over history and returns the new entries it produced.
// It never writes to a store. A history that already ends in a final assistant answer is
// returned as is, without calling the model or any tool.
func (a *Agent) Respond(ctx context.Context, reporter ProgressReporter, history []llm.Message) (*TurnResult, error) {
	if reporter == nil {
		reporter = &NoOpProgressReporter{}
	}
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	last := history[len(history)-1]
	if last.Role == llm.RoleAssistant && !last.IsToolCallEcho() {
		return &TurnResult{Answer: last.Content, ToolsUsed: []string{}}, nil
	}
	if a.config.Model == nil {
		return nil, errors.New("agent has no model configured")
	}

	msgs := make([]llm.Message, len(history), len(history)+8)
	copy(msgs, history)

	result := &TurnResult{ToolsUsed: []string{}}
	tools := a.tools.declarations()

	for {
		send(reporter, NewProgressUpdate(schema.Stage_generating_answer, fmt.Sprintf("generating (round %d)", result.Rounds+1)))

		content, toolCalls, err := a.generate(ctx, msgs, tools)
		if err != nil {
			return nil, err
		}

		if len(toolCalls) == 0 {
			return finish(result, content), nil
		}

		if result.Rounds >= a.config.MaxTurns {
			return a.forceFinalAnswer(ctx, reporter, msgs, result)
		}
		result.Rounds++

		echo := llm.ToolCallMessage(content, toolCalls)
		msgs = append(msgs, echo)
		result.Messages = append(result.Messages, echo)

		for _, tr := range a.runTools(ctx, reporter, toolCalls, result) {
			msgs = append(msgs, tr)
			result.Messages = append(result.Messages, tr)
		}
	}
}

// forceFinalAnswer asks for an answer without tools once the round cap is exhausted.
func (a *Agent) forceFinalAnswer(ctx context.Context, reporter ProgressReporter, msgs []llm.Message, result *TurnResult) (*TurnResult, error) {
	send(reporter, NewProgressUpdate(schema.Stage_round_limit_reached,
		fmt.Sprintf("tool round limit (%d) reached, answering with the data gathered so far", a.config.MaxTurns)))

	instruction, err := prompts.RenderRoundLimitPrompt(a.config.MaxTurns)
	if err != nil {
		return nil, fmt.Errorf("error rendering round limit prompt: %w", err)
	}

	request := make([]llm.Message, len(msgs), len(msgs)+1)
	copy(request, msgs)
	request = append(request, llm.UserMessage(instruction))

	content, _, err := a.generate(ctx, request, nil)
	if err != nil {
		return nil, err
	}

	result.Truncated = true
	return finish(result, content), nil
}

func (a *Agent) generate(ctx context.Context, msgs []llm.Message, tools []api.Tool) (string, []llm.ToolCall, error) {
	opts := []llm.LLMOption{
		llm.WithTemperature(0),
		llm.WithMaxTokens(a.config.MaxTokens),
		llm.WithSystemPrompt(a.config.SystemPrompt),
	}

	var content strings.Builder
	var toolCalls []llm.ToolCall
	var err error
	if len(tools) == 0 {
		err = a.config.Model.GenerateInference(ctx, msgs,
			func(chunk string) error {
				content.WriteString(chunk)
				return nil
			},
			opts...,
		)
	} else {
		err = a.config.Model.GenerateInferenceWithTools(ctx, msgs,
			func(chunk string) error {
				content.WriteString(chunk)
				return nil
			},
			func(calls []llm.ToolCall) error {
				toolCalls = append(toolCalls, calls...)
				return nil
			},
			append(opts, llm.WithTools(tools))...,
		)
	}
	if err != nil {
		return "", nil, fmt.Errorf("generation failed: %w", err)
	}

	return content.String(), toolCalls, nil
}

func finish(result *TurnResult, answer string) *TurnResult {
	result.Answer = answer
	result.Messages = append(result.Messages, llm.AssistantMessage(answer))
	return result
}
