package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/zhouzirui/eliza/backend/internal/analysis/emotion"
	"github.com/zhouzirui/eliza/backend/internal/config"
)

// ErrEmptyReply is returned when the model produced no usable text.
var ErrEmptyReply = errors.New("ai: empty reply")

// Service generates fallback replies when no scripted rule matches.
type Service struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewService creates a new AI service instance backed by the configured Ark model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	svc, err := NewServiceWithModel(ctx, chatModel)
	if err != nil {
		return nil, err
	}
	svc.timeout = cfg.Timeout
	return svc, nil
}

// NewServiceWithModel wires an arbitrary chat model into the prompt chain.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

// Generate implements eliza.FallbackGenerator.
func (s *Service) Generate(ctx context.Context, sessionID, text string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	input := map[string]any{
		"system": buildSystemPrompt(emotion.Analyze(text).Emotion),
		"query":  text,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	reply := firstLine(response.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}

	log.Printf("[ai] generated fallback for session=%s, length=%d", sessionID, len(reply))
	return reply, nil
}

// firstLine keeps replies to a single chat turn.
func firstLine(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = strings.TrimSpace(content[:idx])
	}
	return content
}
