// Package cmd provides the command-line interface for the taskpilot agent.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Taskpilot turns labeled tracker tasks into pull requests",
	Long: `Taskpilot is an agent that polls a JIRA board for tasks labeled for
automated processing, asks the Gemini API to draft the code changes the task
describes, applies them to the target GitHub repository on a fresh branch, and
opens a pull request.

Tasks opt in with a marker label ('ai-task' by default) and name their target
repository with a label in the form 'repo:owner/name' or
'repo-owner:owner/name'. Only tasks in status "To Do" are picked up; taskpilot
moves them to "In Progress" while it works and to "In Review" once a pull
request is open.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Persistent flags available to all commands. Empty values fall back to
	// the TASK_LABEL and JIRA_PROJECT environment variables.
	rootCmd.PersistentFlags().StringP("label", "l", "", "Marker label that selects tasks (default from TASK_LABEL)")
	rootCmd.PersistentFlags().StringP("project", "p", "", "JIRA project key to search (default from JIRA_PROJECT)")
}
