// Package models defines data structures shared across the application.
package models

// Task represents an issue-tracker record selected for automated processing.
type Task struct {
	// Key is the full ticket identifier (e.g., "ABC-123")
	Key string

	// Summary is the ticket's summary field
	Summary string

	// Description is the full body text of the ticket
	Description string

	// Status is the current workflow status name (e.g., "To Do")
	Status string

	// Labels is a slice of label names attached to the ticket
	Labels []string
}

// Repository identifies a code repository on the code host.
type Repository struct {
	Owner string
	Name  string
}

// String returns the repository in "owner/name" form.
func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// FileToModify describes a planned modification to an existing file.
type FileToModify struct {
	Path    string `json:"path"`
	Changes string `json:"changes"`
}

// FileToCreate describes a planned new file.
type FileToCreate struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Reason  string `json:"reason,omitempty"`
}

// Analysis is the first-phase output of the language model: a plan for
// which files need to change and why.
type Analysis struct {
	FilesToModify []FileToModify `json:"files_to_modify"`
	FilesToCreate []FileToCreate `json:"files_to_create"`
	Explanation   string         `json:"explanation"`
}

// Replacement is a single exact-match edit within an existing file.
type Replacement struct {
	// Type is the kind of edit; currently always "update"
	Type string `json:"type"`

	// Context is an exact substring of the file used to locate the edit
	Context string `json:"context,omitempty"`

	// OldCode is the exact code to replace
	OldCode string `json:"old_code"`

	// NewCode is the code to insert in its place
	NewCode string `json:"new_code"`
}

// FileModification carries the concrete edits for one existing file.
type FileModification struct {
	Path         string        `json:"path"`
	Replacements []Replacement `json:"changes"`
}

// FileCreation carries the complete content for one new file.
type FileCreation struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ChangeSet is the second-phase output of the language model: the exact
// edits to apply to the target repository.
type ChangeSet struct {
	FilesToModify []FileModification `json:"files_to_modify"`
	FilesToCreate []FileCreation     `json:"files_to_create"`
}

// Empty reports whether the change set contains no work at all.
func (c ChangeSet) Empty() bool {
	return len(c.FilesToModify) == 0 && len(c.FilesToCreate) == 0
}

// RepoContext is a snapshot of the target repository used to ground the
// language model's analysis.
type RepoContext struct {
	// ProjectType is the detected project flavor (react, angular, nodejs,
	// python, java or unknown)
	ProjectType string

	// Structure is an indented listing of the repository's source files
	Structure string

	// Files maps repository paths to the content of key and config files
	Files map[string]string
}

// PullRequest summarizes a pull request opened by the agent.
type PullRequest struct {
	Number int
	URL    string
	Branch string
}
