// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/taskpilot/taskpilot/internal/config"
	"github.com/taskpilot/taskpilot/internal/logging"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client using configuration from environment
// variables. It initializes the client with the appropriate base URL, authenticates
// with the GitHub API, and tests the connection. It returns the configured client
// or an error if initialization fails.
func NewClient() (*Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.ValidateGitHubConfig(cfg); err != nil {
		return nil, err
	}
	token := cfg.GitHub.Token

	// Get domain from config, default to github.com
	domain := cfg.GitHub.Domain
	if domain == "" {
		domain = "github.com"
	}

	// Construct API URL based on domain
	var apiURL string
	if domain == "github.com" {
		apiURL = "https://api.github.com/"
	} else {
		apiURL = fmt.Sprintf("https://%s/api/v3/", domain)
	}

	logging.Info("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(token))

	// Create the oauth2 client
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	// Create GitHub client with custom base URL
	client := github.NewClient(tc)

	// If not using default GitHub.com, set custom API endpoint
	if domain != "github.com" {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}

		client.BaseURL = parsedURL

		// For GitHub Enterprise, set the upload URL to the same endpoint
		client.UploadURL = parsedURL
	}

	// Test the token
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, resp, err := client.Users.Get(ctx, "")
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logging.Error("failed to test github token",
			"error", err,
			"status_code", status)
		return nil, fmt.Errorf("error testing github token: %w", err)
	}

	logging.Info("github authentication successful",
		"username", user.GetLogin())

	return &Client{client: client}, nil
}

// DefaultBranch returns the default branch of a repository (e.g., "main").
func (c *Client) DefaultBranch(repo models.Repository) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("github client not initialized")
	}

	ctx := context.Background()

	repository, _, err := c.client.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s: %v", repo, err)
	}

	branch := repository.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}
	return branch, nil
}

// CreateBranch creates a new branch at the head of the base branch. A branch
// that already exists is not an error; the agent reuses it on re-runs.
func (c *Client) CreateBranch(repo models.Repository, branch, base string) error {
	if c.client == nil {
		return fmt.Errorf("github client not initialized")
	}

	ctx := context.Background()

	baseRef, _, err := c.client.Git.GetRef(ctx, repo.Owner, repo.Name, "refs/heads/"+base)
	if err != nil {
		return fmt.Errorf("failed to get base branch %q of %s: %v", base, repo, err)
	}

	newRef := &github.Reference{
		Ref: github.String("refs/heads/" + branch),
		Object: &github.GitObject{
			SHA: baseRef.Object.SHA,
		},
	}

	_, resp, err := c.client.Git.CreateRef(ctx, repo.Owner, repo.Name, newRef)
	if err != nil {
		if resp != nil && resp.StatusCode == 422 && strings.Contains(err.Error(), "already exists") {
			logging.Debug("branch already exists, reusing", "repository", repo.String(), "branch", branch)
			return nil
		}
		return fmt.Errorf("failed to create branch %q in %s: %v", branch, repo, err)
	}

	logging.Info("created branch", "repository", repo.String(), "branch", branch, "base", base)
	return nil
}

// GetFileContent retrieves the decoded content of a file at the given ref.
func (c *Client) GetFileContent(repo models.Repository, path, ref string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("github client not initialized")
	}

	ctx := context.Background()

	opts := &github.RepositoryContentGetOptions{Ref: ref}
	fileContent, _, _, err := c.client.Repositories.GetContents(ctx, repo.Owner, repo.Name, path, opts)
	if err != nil {
		return "", fmt.Errorf("failed to get content of %s in %s: %v", path, repo, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("%s in %s is not a file", path, repo)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode content of %s in %s: %v", path, repo, err)
	}
	return content, nil
}

// CommitFile writes content to a file on the given branch with create-or-update
// semantics: the file is created when absent and updated in place otherwise.
func (c *Client) CommitFile(repo models.Repository, branch, path, content, message string) error {
	if c.client == nil {
		return fmt.Errorf("github client not initialized")
	}

	ctx := context.Background()

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
		Branch:  github.String(branch),
	}

	// Look up the existing file to determine create vs update
	getOpts := &github.RepositoryContentGetOptions{Ref: branch}
	existing, _, resp, err := c.client.Repositories.GetContents(ctx, repo.Owner, repo.Name, path, getOpts)
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		_, _, err = c.client.Repositories.UpdateFile(ctx, repo.Owner, repo.Name, path, opts)
	case err == nil:
		// GetContents returned a directory listing instead of a file
		return fmt.Errorf("%s in %s is a directory, not a file", path, repo)
	case resp != nil && resp.StatusCode == 404:
		_, _, err = c.client.Repositories.CreateFile(ctx, repo.Owner, repo.Name, path, opts)
	default:
		return fmt.Errorf("failed to check existing file %s in %s: %v", path, repo, err)
	}

	if err != nil {
		return fmt.Errorf("failed to commit %s to %s@%s: %v", path, repo, branch, err)
	}

	logging.Debug("committed file", "repository", repo.String(), "branch", branch, "path", path)
	return nil
}

// CreatePullRequest opens a pull request from branch to base.
func (c *Client) CreatePullRequest(repo models.Repository, branch, base, title, body string) (models.PullRequest, error) {
	if c.client == nil {
		return models.PullRequest{}, fmt.Errorf("github client not initialized")
	}

	ctx := context.Background()

	newPR := &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(branch),
		Base:  github.String(base),
		Body:  github.String(body),
	}

	pr, resp, err := c.client.PullRequests.Create(ctx, repo.Owner, repo.Name, newPR)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return models.PullRequest{}, fmt.Errorf("failed to create pull request for %s: %v (status: %d)", repo, err, status)
	}

	result := models.PullRequest{
		Number: pr.GetNumber(),
		URL:    pr.GetHTMLURL(),
		Branch: branch,
	}

	logging.Info("created pull request",
		"repository", repo.String(),
		"number", result.Number,
		"url", result.URL)

	return result, nil
}

// ListRepositoryFiles returns the paths of all blobs reachable from the given
// ref, using the git tree API recursively.
func (c *Client) ListRepositoryFiles(repo models.Repository, ref string) ([]string, error) {
	if c.client == nil {
		return nil, fmt.Errorf("github client not initialized")
	}

	ctx := context.Background()

	branchRef, _, err := c.client.Git.GetRef(ctx, repo.Owner, repo.Name, "refs/heads/"+ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ref %q of %s: %v", ref, repo, err)
	}

	tree, _, err := c.client.Git.GetTree(ctx, repo.Owner, repo.Name, branchRef.GetObject().GetSHA(), true)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree of %s@%s: %v", repo, ref, err)
	}

	var paths []string
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			paths = append(paths, entry.GetPath())
		}
	}

	if tree.GetTruncated() {
		logging.Warn("repository tree truncated by api", "repository", repo.String(), "files_listed", len(paths))
	}

	return paths, nil
}
