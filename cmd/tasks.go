package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/internal/jira"
	"github.com/taskpilot/taskpilot/internal/labels"
	"github.com/taskpilot/taskpilot/internal/processor"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// tasksCmd lists the tasks a processing run would pick up.
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks eligible for processing",
	Long: `List all tasks that carry the marker label and are in status "To Do",
along with the target repository parsed from their labels. Tasks without a
valid repository label are shown so the label can be fixed on the board.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := gatherOptions(cmd)
		if err != nil {
			return err
		}

		jiraClient, err := jira.NewClient()
		if err != nil {
			return fmt.Errorf("failed to initialize jira client: %v", err)
		}

		tasks, err := jiraClient.SearchTasks(opts.Project, opts.Label, processor.StatusToDo)
		if err != nil {
			return fmt.Errorf("failed to fetch tasks: %v", err)
		}

		if len(tasks) == 0 {
			fmt.Println("No eligible tasks found.")
			return nil
		}

		fmt.Printf("Found %d eligible tasks:\n\n", len(tasks))
		for _, task := range tasks {
			target := "<no repository label>"
			if repo, found, err := labels.FindRepository(task.Labels); err != nil {
				target = fmt.Sprintf("<invalid: %v>", err)
			} else if found {
				target = repo.String()
			}

			fmt.Println(formatTaskRow(task, target))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}

// formatTaskRow renders one line of the task listing: key, summary, status,
// target repository.
func formatTaskRow(task models.Task, target string) string {
	return fmt.Sprintf("%-12s %-50s %-12s %s", task.Key, truncateSummary(task.Summary), task.Status, target)
}

// truncateSummary keeps the task listing readable on one line. Truncation
// counts runes so multibyte summaries are never cut mid-character.
func truncateSummary(summary string) string {
	const width = 50
	runes := []rune(summary)
	if len(runes) <= width {
		return summary
	}
	return string(runes[:width-3]) + "..."
}
