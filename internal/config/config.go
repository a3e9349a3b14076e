// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// DefaultModel is the Gemini model used when GEMINI_MODEL is not set.
const DefaultModel = "gemini-1.5-pro"

// DefaultTaskLabel is the marker label that flags a task for automated processing.
const DefaultTaskLabel = "ai-task"

// Config holds all configuration parameters for the application.
type Config struct {
	Jira   JiraConfig
	GitHub GitHubConfig
	Gemini GeminiConfig

	// TaskLabel is the marker label that selects tasks for processing
	TaskLabel string
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL      string
	Email    string
	APIToken string
	Project  string
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
}

// GeminiConfig holds Gemini API specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// LoadConfig initializes and loads configuration from environment variables.
// A .env file in the working directory, when present, is loaded first and
// overrides existing process environment, matching the agent's deployment
// convention.
func LoadConfig() (*Config, error) {
	// Seed environment from .env if present
	if _, err := os.Stat(".env"); err == nil {
		if err := gotenv.OverLoad(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	// Initialize Viper for environment variables
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.email", "JIRA_EMAIL")
	v.BindEnv("jira.api_token", "JIRA_API_TOKEN")
	v.BindEnv("jira.project", "JIRA_PROJECT")
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("gemini.model", "GEMINI_MODEL")
	v.BindEnv("task.label", "TASK_LABEL")

	// Create config structure
	config := &Config{
		Jira: JiraConfig{
			URL:      v.GetString("jira.url"),
			Email:    v.GetString("jira.email"),
			APIToken: v.GetString("jira.api_token"),
			Project:  v.GetString("jira.project"),
		},
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("gemini.api_key"),
			Model:  v.GetString("gemini.model"),
		},
		TaskLabel: v.GetString("task.label"),
	}

	// Apply defaults
	if config.GitHub.Domain == "" {
		config.GitHub.Domain = "github.com"
	}
	if config.Gemini.Model == "" {
		config.Gemini.Model = DefaultModel
	}
	if config.TaskLabel == "" {
		config.TaskLabel = DefaultTaskLabel
	}

	return config, nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Email == "" {
		missingVars = append(missingVars, "JIRA_EMAIL")
	}
	if config.Jira.APIToken == "" {
		missingVars = append(missingVars, "JIRA_API_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// ValidateGitHubConfig validates GitHub-specific configuration.
func ValidateGitHubConfig(config *Config) error {
	if config.GitHub.Token == "" {
		return fmt.Errorf("missing required environment variables: [GITHUB_TOKEN]")
	}
	return nil
}

// ValidateGeminiConfig validates Gemini-specific configuration.
func ValidateGeminiConfig(config *Config) error {
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("missing required environment variables: [GEMINI_API_KEY]")
	}
	return nil
}
