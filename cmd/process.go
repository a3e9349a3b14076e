package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/internal/config"
	"github.com/taskpilot/taskpilot/internal/gemini"
	"github.com/taskpilot/taskpilot/internal/github"
	"github.com/taskpilot/taskpilot/internal/jira"
	"github.com/taskpilot/taskpilot/internal/logging"
	"github.com/taskpilot/taskpilot/internal/processor"
	"github.com/taskpilot/taskpilot/internal/repocontext"
)

// processCmd runs one full pass of the task pipeline.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process eligible tasks into pull requests",
	Long: `Process all eligible tasks in one pass.

For every task carrying the marker label, a valid repository label, and status
"To Do", taskpilot:

1. Moves the task to "In Progress"
2. Creates a branch named after the task key and summary
3. Analyzes the task against the repository with the Gemini API
4. Commits the generated changes to the branch
5. Opens a pull request against the default branch
6. Comments the pull request URL on the task and moves it to "In Review"

A failure in one task moves it back to "To Do" and processing continues with
the next task. The command fails only when the tracker cannot be queried or a
client cannot authenticate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := gatherOptions(cmd)
		if err != nil {
			return err
		}

		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}
		opts.DryRun = dryRun

		maxTasks, err := cmd.Flags().GetInt("max-tasks")
		if err != nil {
			return err
		}
		if maxTasks < 0 {
			return fmt.Errorf("--max-tasks cannot be negative")
		}
		opts.MaxTasks = maxTasks

		logging.Info("starting processing run",
			"label", opts.Label,
			"project", opts.Project,
			"dry_run", opts.DryRun,
			"max_tasks", opts.MaxTasks)

		// Initialize clients
		jiraClient, err := jira.NewClient()
		if err != nil {
			return fmt.Errorf("failed to initialize jira client: %v", err)
		}

		githubClient, err := github.NewClient()
		if err != nil {
			return fmt.Errorf("failed to initialize github client: %v", err)
		}

		geminiService, err := gemini.NewService(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize gemini service: %v", err)
		}

		loader := repocontext.NewLoader(githubClient)
		proc := processor.New(jiraClient, githubClient, geminiService, loader)

		summary, err := proc.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		for _, result := range summary.Results {
			if result.PullRequest.URL != "" {
				fmt.Printf("%s: %s\n", result.Task.Key, result.PullRequest.URL)
			}
		}
		fmt.Printf("Processed %d, skipped %d, failed %d\n",
			summary.Processed, summary.Skipped, summary.Failed)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().Bool("dry-run", false, "Plan and log without writing to the tracker or code host")
	processCmd.Flags().Int("max-tasks", 0, "Maximum number of tasks to process (0 = all)")
}

// gatherOptions resolves the shared flags against the environment config.
func gatherOptions(cmd *cobra.Command) (processor.Options, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return processor.Options{}, fmt.Errorf("failed to load configuration: %v", err)
	}

	label, err := cmd.Flags().GetString("label")
	if err != nil {
		return processor.Options{}, err
	}
	if label == "" {
		label = cfg.TaskLabel
	}

	project, err := cmd.Flags().GetString("project")
	if err != nil {
		return processor.Options{}, err
	}
	if project == "" {
		project = cfg.Jira.Project
	}

	return processor.Options{
		Project: project,
		Label:   label,
	}, nil
}
