package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/internal/jira"
	"github.com/taskpilot/taskpilot/internal/labels"
	"github.com/taskpilot/taskpilot/internal/logging"
	"github.com/taskpilot/taskpilot/internal/processor"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// statusCmd summarizes where marker-labeled tasks sit in the workflow.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the processing status of labeled tasks",
	Long: `This command displays statistics about tasks carrying the marker label:
how many are waiting, in progress, or in review, how many in-progress tasks
already have a pull request linked in their comments, and how many are missing
a valid repository label.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := gatherOptions(cmd)
		if err != nil {
			return err
		}

		jiraClient, err := jira.NewClient()
		if err != nil {
			return fmt.Errorf("failed to initialize jira client: %v", err)
		}

		// All marker-labeled tasks regardless of status
		tasks, err := jiraClient.SearchTasks(opts.Project, opts.Label, "")
		if err != nil {
			return fmt.Errorf("failed to fetch tasks: %v", err)
		}

		byStatus := make(map[string]int)
		eligible := 0
		unrouted := 0
		for _, task := range tasks {
			byStatus[task.Status]++

			_, found, parseErr := labels.FindRepository(task.Labels)
			routed := found && parseErr == nil
			if !routed {
				unrouted++
			}
			if task.Status == processor.StatusToDo && routed {
				eligible++
			}
		}

		fmt.Printf("Tasks labeled '%s': %d\n\n", opts.Label, len(tasks))

		statuses := make([]string, 0, len(byStatus))
		for status := range byStatus {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)

		fmt.Println("By status:")
		for _, status := range statuses {
			fmt.Printf("- %s: %d\n", status, byStatus[status])
		}

		fmt.Printf("\nEligible for processing now: %d\n", eligible)
		if byStatus[processor.StatusInProgress] > 0 {
			linked := countLinkedInProgress(tasks, jiraClient)
			fmt.Printf("In progress with a pull request linked: %d\n", linked)
		}
		if unrouted > 0 {
			fmt.Printf("Missing or invalid repository label: %d\n", unrouted)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// commentLister is the subset of the tracker client needed for the report.
type commentLister interface {
	GetComments(key string) ([]string, error)
}

// countLinkedInProgress counts the in-progress tasks that already carry the
// agent's pull-request comment. These are typically tasks whose move to
// "In Review" failed after the pull request was opened.
func countLinkedInProgress(tasks []models.Task, lister commentLister) int {
	count := 0
	for _, task := range tasks {
		if task.Status != processor.StatusInProgress {
			continue
		}
		comments, err := lister.GetComments(task.Key)
		if err != nil {
			logging.Warn("failed to fetch comments", "task", task.Key, "error", err)
			continue
		}
		for _, comment := range comments {
			if strings.Contains(comment, processor.PRCommentPrefix) {
				count++
				break
			}
		}
	}
	return count
}
