// Package jira provides functionality for interacting with the JIRA API.
package jira

import (
	"fmt"
	"strings"

	jira "github.com/andygrunwald/go-jira"

	"github.com/taskpilot/taskpilot/internal/config"
	"github.com/taskpilot/taskpilot/internal/logging"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// searchPageSize is the page size used when searching for tasks.
const searchPageSize = 50

// Client handles interactions with the JIRA API.
type Client struct {
	client *jira.Client
}

// NewClient creates a new JIRA client using configuration from environment
// variables. It authenticates with basic auth (email + API token) and verifies
// the credentials immediately so that a misconfigured agent fails fast.
func NewClient() (*Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.ValidateJiraConfig(cfg); err != nil {
		return nil, err
	}

	logging.Info("jira configuration",
		"url", cfg.Jira.URL,
		"email", cfg.Jira.Email,
		"api_token", logging.MaskSensitive(cfg.Jira.APIToken))

	// Create JIRA authentication transport
	tp := jira.BasicAuthTransport{
		Username: cfg.Jira.Email,
		Password: cfg.Jira.APIToken,
	}

	client, err := jira.NewClient(tp.Client(), cfg.Jira.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	// Verify authentication immediately
	user, resp, err := client.User.GetSelf()
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, fmt.Errorf("jira authentication failed: %v (status: %d)", err, status)
	}

	logging.Info("jira authentication successful", "user", user.DisplayName)

	return &Client{client: client}, nil
}

// buildJQL renders the search filters into a JQL query. Empty filters are
// omitted; results are always ordered newest first.
func buildJQL(project, label, status string) string {
	var clauses []string
	if project != "" {
		clauses = append(clauses, fmt.Sprintf("project = %q", project))
	}
	if label != "" {
		clauses = append(clauses, fmt.Sprintf("labels = %q", label))
	}
	if status != "" {
		clauses = append(clauses, fmt.Sprintf("status = %q", status))
	}
	return strings.Join(clauses, " AND ") + " ORDER BY created DESC"
}

// toTask converts a JIRA API issue to our internal model.
func toTask(issue jira.Issue) models.Task {
	task := models.Task{
		Key:         issue.Key,
		Summary:     issue.Fields.Summary,
		Description: issue.Fields.Description,
		Labels:      issue.Fields.Labels,
	}
	if issue.Fields.Status != nil {
		task.Status = issue.Fields.Status.Name
	}
	return task
}

// SearchTasks retrieves all tasks matching the given project, label and
// status filters, newest first. Empty filters are omitted from the query.
// Results are paginated transparently.
func (c *Client) SearchTasks(project, label, status string) ([]models.Task, error) {
	if c.client == nil {
		return nil, fmt.Errorf("jira client not initialized")
	}

	jql := buildJQL(project, label, status)
	logging.Debug("searching jira tasks", "jql", jql)

	var tasks []models.Task
	searchOpts := &jira.SearchOptions{
		StartAt:    0,
		MaxResults: searchPageSize,
	}

	for {
		issues, resp, err := c.client.Issue.Search(jql, searchOpts)
		if err != nil {
			code := 0
			if resp != nil {
				code = resp.StatusCode
			}
			return nil, fmt.Errorf("failed to search jira tasks: %v (status: %d)", err, code)
		}

		for _, issue := range issues {
			tasks = append(tasks, toTask(issue))
		}

		searchOpts.StartAt += len(issues)
		if len(issues) == 0 || searchOpts.StartAt >= resp.Total {
			break
		}
	}

	logging.Debug("found jira tasks", "count", len(tasks), "jql", jql)
	return tasks, nil
}

// GetTask retrieves a single task by key.
func (c *Client) GetTask(key string) (models.Task, error) {
	if c.client == nil {
		return models.Task{}, fmt.Errorf("jira client not initialized")
	}

	issue, resp, err := c.client.Issue.Get(key, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return models.Task{}, fmt.Errorf("failed to get jira task %s: %v (status: %d)", key, err, status)
	}

	return toTask(*issue), nil
}

// GetComments retrieves the comment bodies on a task, oldest first.
func (c *Client) GetComments(key string) ([]string, error) {
	if c.client == nil {
		return nil, fmt.Errorf("jira client not initialized")
	}

	issue, resp, err := c.client.Issue.Get(key, nil)
	if err != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		return nil, fmt.Errorf("failed to get comments for %s: %v (status: %d)", key, err, code)
	}

	if issue.Fields == nil || issue.Fields.Comments == nil {
		return nil, nil
	}

	var bodies []string
	for _, comment := range issue.Fields.Comments.Comments {
		bodies = append(bodies, comment.Body)
	}
	return bodies, nil
}

// findTransition picks the transition whose target status matches the wanted
// status name, case-insensitively. Matching falls back to the transition name
// for workflows where the two differ.
func findTransition(transitions []jira.Transition, status string) (string, bool) {
	for _, t := range transitions {
		if strings.EqualFold(t.To.Name, status) {
			return t.ID, true
		}
	}
	for _, t := range transitions {
		if strings.EqualFold(t.Name, status) {
			return t.ID, true
		}
	}
	return "", false
}

// TransitionTask moves a task to the given workflow status by resolving and
// executing the matching transition.
func (c *Client) TransitionTask(key, status string) error {
	if c.client == nil {
		return fmt.Errorf("jira client not initialized")
	}

	transitions, resp, err := c.client.Issue.GetTransitions(key)
	if err != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		return fmt.Errorf("failed to get transitions for %s: %v (status: %d)", key, err, code)
	}

	transitionID, found := findTransition(transitions, status)
	if !found {
		return fmt.Errorf("no transition to status %q available for %s", status, key)
	}

	if _, err := c.client.Issue.DoTransition(key, transitionID); err != nil {
		return fmt.Errorf("failed to transition %s to %q: %v", key, status, err)
	}

	logging.Info("transitioned task", "key", key, "status", status)
	return nil
}

// AddComment posts a comment on a task.
func (c *Client) AddComment(key, body string) error {
	if c.client == nil {
		return fmt.Errorf("jira client not initialized")
	}

	_, resp, err := c.client.Issue.AddComment(key, &jira.Comment{Body: body})
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return fmt.Errorf("failed to add comment to %s: %v (status: %d)", key, err, status)
	}

	return nil
}
