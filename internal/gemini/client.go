// Package gemini drafts code changes for tasks using the Gemini API.
// Task processing is two-phase: Analyze produces a plan naming the files to
// touch, Generate turns the plan into exact edits.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/taskpilot/taskpilot/internal/config"
	"github.com/taskpilot/taskpilot/internal/logging"
	"github.com/taskpilot/taskpilot/internal/retry"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// Generation defaults. Low temperature keeps the JSON contracts stable.
const (
	defaultTemperature     = 0.2
	defaultMaxOutputTokens = 8192
)

// Service handles interactions with the Gemini API.
type Service struct {
	client      *genai.Client
	model       string
	retryConfig retry.Config
}

// NewService creates a Gemini service using configuration from environment
// variables.
func NewService(ctx context.Context) (*Service, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.ValidateGeminiConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	logging.Info("gemini configuration",
		"model", cfg.Gemini.Model,
		"api_key", logging.MaskSensitive(cfg.Gemini.APIKey))

	return &Service{
		client:      client,
		model:       cfg.Gemini.Model,
		retryConfig: retry.DefaultConfig(),
	}, nil
}

// generate sends a prompt to the model and returns the raw response text.
// Transient errors (rate limits, quota, server errors) are retried with
// exponential backoff.
func (s *Service) generate(ctx context.Context, operation, prompt string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](defaultTemperature),
		MaxOutputTokens: defaultMaxOutputTokens,
	}

	response, err := retry.WithBackoff(ctx, s.retryConfig, operation, isRetryableError, func() (*genai.GenerateContentResponse, error) {
		return s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), genConfig)
	})
	if err != nil {
		return "", fmt.Errorf("gemini %s request failed: %w", operation, err)
	}

	text := response.Text()
	if text == "" {
		return "", fmt.Errorf("gemini %s returned no text content", operation)
	}

	logging.Debug("gemini response received",
		"operation", operation,
		"model", s.model,
		"response_length", len(text))

	return text, nil
}

// Analyze asks the model what changes a task requires, grounded in the
// repository context.
func (s *Service) Analyze(ctx context.Context, task models.Task, repoCtx models.RepoContext) (models.Analysis, error) {
	prompt := buildAnalysisPrompt(task, repoCtx)

	text, err := s.generate(ctx, "analyze", prompt)
	if err != nil {
		return models.Analysis{}, err
	}

	analysis, err := Decode[models.Analysis](text)
	if err != nil {
		logging.Error("failed to parse analysis response", "task", task.Key, "error", err)
		return models.Analysis{}, fmt.Errorf("failed to parse analysis for %s: %w", task.Key, err)
	}

	if len(analysis.FilesToModify) == 0 && len(analysis.FilesToCreate) == 0 {
		return models.Analysis{}, fmt.Errorf("analysis for %s names no files to modify or create", task.Key)
	}

	return analysis, nil
}

// Generate asks the model for the exact edits implementing an analysis.
// The files map carries the current content of every file the analysis wants
// to modify.
func (s *Service) Generate(ctx context.Context, task models.Task, analysis models.Analysis, repoCtx models.RepoContext, files map[string]string) (models.ChangeSet, error) {
	prompt := buildGenerationPrompt(task, analysis, repoCtx, files)

	text, err := s.generate(ctx, "generate", prompt)
	if err != nil {
		return models.ChangeSet{}, err
	}

	changes, err := Decode[models.ChangeSet](text)
	if err != nil {
		logging.Error("failed to parse generation response", "task", task.Key, "error", err)
		return models.ChangeSet{}, fmt.Errorf("failed to parse code changes for %s: %w", task.Key, err)
	}

	if changes.Empty() {
		return models.ChangeSet{}, fmt.Errorf("gemini produced an empty change set for %s", task.Key)
	}

	return changes, nil
}

// isRetryableError checks if an error is a retryable Gemini API error.
// Returns true for rate limit, quota exhaustion, and transient server errors.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "Resource exhausted") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "Overloaded") ||
		strings.Contains(errStr, "Internal error") ||
		strings.Contains(errStr, "server error")
}
