// Package processor drives the task pipeline: it selects eligible tasks from
// the tracker, asks the language model service for a change plan and exact
// edits, applies them to the target repository on a fresh branch, and opens a
// pull request. Failures are isolated per task; one broken task never aborts
// the run.
package processor

import (
	"context"
	"fmt"
	"sort"

	"github.com/taskpilot/taskpilot/internal/labels"
	"github.com/taskpilot/taskpilot/internal/logging"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// Workflow statuses the agent moves tasks through.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusInReview   = "In Review"
)

// PRCommentPrefix starts the tracker comment that links an opened pull
// request back to its task.
const PRCommentPrefix = "Automated pull request opened for this task:"

// Tracker is the subset of the issue tracker client used by the processor.
type Tracker interface {
	SearchTasks(project, label, status string) ([]models.Task, error)
	GetTask(key string) (models.Task, error)
	TransitionTask(key, status string) error
	AddComment(key, body string) error
}

// CodeHost is the subset of the code host client used by the processor.
type CodeHost interface {
	DefaultBranch(repo models.Repository) (string, error)
	CreateBranch(repo models.Repository, branch, base string) error
	GetFileContent(repo models.Repository, path, ref string) (string, error)
	CommitFile(repo models.Repository, branch, path, content, message string) error
	CreatePullRequest(repo models.Repository, branch, base, title, body string) (models.PullRequest, error)
}

// Analyzer is the language model service interface used by the processor.
type Analyzer interface {
	Analyze(ctx context.Context, task models.Task, repoCtx models.RepoContext) (models.Analysis, error)
	Generate(ctx context.Context, task models.Task, analysis models.Analysis, repoCtx models.RepoContext, files map[string]string) (models.ChangeSet, error)
}

// ContextLoader gathers repository context for the analyzer.
type ContextLoader interface {
	Load(repo models.Repository, ref string) (models.RepoContext, error)
}

// Options configures a processing run.
type Options struct {
	// Project restricts the task search to a tracker project key
	Project string

	// Label is the marker label tasks must carry
	Label string

	// MaxTasks caps how many tasks are processed; 0 means no cap
	MaxTasks int

	// DryRun plans and logs without writing to the tracker or code host
	DryRun bool
}

// Result records the outcome for a single task.
type Result struct {
	Task        models.Task
	Repository  models.Repository
	Branch      string
	PullRequest models.PullRequest
	Skipped     bool
	Err         error
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	Results   []Result
}

// Processor orchestrates the task pipeline.
type Processor struct {
	tracker  Tracker
	host     CodeHost
	analyzer Analyzer
	loader   ContextLoader
}

// New creates a processor from its collaborators.
func New(tracker Tracker, host CodeHost, analyzer Analyzer, loader ContextLoader) *Processor {
	return &Processor{
		tracker:  tracker,
		host:     host,
		analyzer: analyzer,
		loader:   loader,
	}
}

// Run executes one pass over all eligible tasks. It returns an error only
// when the tracker cannot be queried at all; per-task failures are recorded
// in the summary.
func (p *Processor) Run(ctx context.Context, opts Options) (Summary, error) {
	tasks, err := p.tracker.SearchTasks(opts.Project, opts.Label, StatusToDo)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to search tasks: %w", err)
	}

	logging.Info("found tasks to process",
		"count", len(tasks),
		"label", opts.Label,
		"dry_run", opts.DryRun)

	var summary Summary
	for _, task := range tasks {
		if opts.MaxTasks > 0 && summary.Processed+summary.Failed >= opts.MaxTasks {
			logging.Info("task cap reached", "max_tasks", opts.MaxTasks)
			break
		}

		result := p.processTask(ctx, task, opts)
		summary.Results = append(summary.Results, result)

		switch {
		case result.Skipped:
			summary.Skipped++
		case result.Err != nil:
			summary.Failed++
			logging.Error("task failed",
				"task", task.Key,
				"error", result.Err)
		default:
			summary.Processed++
		}
	}

	logging.Info("run complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	return summary, nil
}

// processTask runs the pipeline for one task. Any failure after the task was
// moved to "In Progress" attempts to move it back to "To Do" so a later run
// can retry it.
func (p *Processor) processTask(ctx context.Context, task models.Task, opts Options) Result {
	result := Result{Task: task}

	repo, found, err := labels.FindRepository(task.Labels)
	if err != nil {
		logging.Warn("skipping task with malformed repository label",
			"task", task.Key,
			"error", err)
		result.Skipped = true
		return result
	}
	if !found {
		logging.Warn("skipping task without repository label",
			"task", task.Key,
			"labels", task.Labels)
		result.Skipped = true
		return result
	}
	result.Repository = repo
	result.Branch = BranchName(task.Key, task.Summary)

	logging.Info("processing task",
		"task", task.Key,
		"summary", task.Summary,
		"repository", repo.String(),
		"branch", result.Branch)

	if opts.DryRun {
		logging.Info("dry run, not processing",
			"task", task.Key,
			"repository", repo.String(),
			"branch", result.Branch)
		result.Skipped = true
		return result
	}

	// Re-fetch the task right before taking it: searches are snapshots, and
	// another run or a human may have moved it in the meantime.
	current, err := p.tracker.GetTask(task.Key)
	if err != nil {
		result.Err = fmt.Errorf("failed to refresh task: %w", err)
		return result
	}
	if current.Status != StatusToDo {
		logging.Info("skipping task no longer in to do",
			"task", task.Key,
			"status", current.Status)
		result.Skipped = true
		return result
	}

	if err := p.tracker.TransitionTask(task.Key, StatusInProgress); err != nil {
		result.Err = fmt.Errorf("failed to move task to %q: %w", StatusInProgress, err)
		return result
	}

	pr, err := p.execute(ctx, task, repo, result.Branch)
	if err != nil {
		// Hand the task back so a later run can pick it up again.
		if revertErr := p.tracker.TransitionTask(task.Key, StatusToDo); revertErr != nil {
			logging.Warn("failed to move task back to to do",
				"task", task.Key,
				"error", revertErr)
		}
		result.Err = err
		return result
	}
	result.PullRequest = pr

	// Best effort: link the PR on the task and move it to review. The PR
	// already exists, so failures here must not fail the task.
	comment := fmt.Sprintf("%s %s", PRCommentPrefix, pr.URL)
	if err := p.tracker.AddComment(task.Key, comment); err != nil {
		logging.Warn("failed to comment pull request on task",
			"task", task.Key,
			"error", err)
	}
	if err := p.tracker.TransitionTask(task.Key, StatusInReview); err != nil {
		logging.Warn("failed to move task to review",
			"task", task.Key,
			"error", err)
	}

	return result
}

// execute performs the code-change half of the pipeline: branch, context,
// analysis, generation, commits, pull request.
func (p *Processor) execute(ctx context.Context, task models.Task, repo models.Repository, branch string) (models.PullRequest, error) {
	base, err := p.host.DefaultBranch(repo)
	if err != nil {
		return models.PullRequest{}, fmt.Errorf("failed to resolve default branch: %w", err)
	}

	if err := p.host.CreateBranch(repo, branch, base); err != nil {
		return models.PullRequest{}, fmt.Errorf("failed to create branch: %w", err)
	}

	repoCtx, err := p.loader.Load(repo, base)
	if err != nil {
		return models.PullRequest{}, fmt.Errorf("failed to load repository context: %w", err)
	}

	analysis, err := p.analyzer.Analyze(ctx, task, repoCtx)
	if err != nil {
		return models.PullRequest{}, fmt.Errorf("analysis failed: %w", err)
	}
	logging.Info("task analysis complete",
		"task", task.Key,
		"files_to_modify", len(analysis.FilesToModify),
		"files_to_create", len(analysis.FilesToCreate))

	// Fetch current content of the files the analysis wants to modify.
	// A file the model expects but the repo lacks is treated as empty,
	// the model may still create it.
	files := make(map[string]string, len(analysis.FilesToModify))
	for _, mod := range analysis.FilesToModify {
		content, err := p.host.GetFileContent(repo, mod.Path, base)
		if err != nil {
			logging.Warn("planned file not readable, treating as empty",
				"task", task.Key,
				"path", mod.Path,
				"error", err)
			content = ""
		}
		files[mod.Path] = content
	}

	changes, err := p.analyzer.Generate(ctx, task, analysis, repoCtx, files)
	if err != nil {
		return models.PullRequest{}, fmt.Errorf("generation failed: %w", err)
	}

	applied, err := ApplyChanges(changes, files)
	if err != nil {
		return models.PullRequest{}, fmt.Errorf("failed to apply changes: %w", err)
	}
	if len(applied) == 0 {
		return models.PullRequest{}, fmt.Errorf("change set for %s produced no files", task.Key)
	}

	// Commit in path order so re-runs produce the same history.
	paths := make([]string, 0, len(applied))
	for path := range applied {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		message := CommitMessage(task.Key, path)
		if err := p.host.CommitFile(repo, branch, path, applied[path], message); err != nil {
			return models.PullRequest{}, fmt.Errorf("failed to commit %s: %w", path, err)
		}
		logging.Info("committed changes", "task", task.Key, "path", path)
	}

	title := fmt.Sprintf("%s: %s", task.Key, task.Summary)
	body := BuildPRBody(task, analysis)
	pr, err := p.host.CreatePullRequest(repo, branch, base, title, body)
	if err != nil {
		return models.PullRequest{}, fmt.Errorf("failed to create pull request: %w", err)
	}

	return pr, nil
}
