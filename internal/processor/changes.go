package processor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/taskpilot/taskpilot/pkg/models"
)

// maxSlugLength caps the summary-derived part of a branch name.
const maxSlugLength = 30

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)

// BranchName derives a branch name from a task key and summary, e.g.
// "PROJ-42-add-retry-to-uploads". The summary is lowercased, spaces become
// hyphens, all other characters outside [a-z0-9-] are dropped, and the slug
// is capped at 30 characters.
func BranchName(key, summary string) string {
	slug := strings.ToLower(summary)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return key
	}
	return key + "-" + slug
}

// CommitMessage builds the commit message for one changed file.
func CommitMessage(key, path string) string {
	return fmt.Sprintf("%s: Update %s", key, path)
}

// BuildPRBody renders the pull request description from the task and the
// model's analysis.
func BuildPRBody(task models.Task, analysis models.Analysis) string {
	var b strings.Builder

	b.WriteString("## Task Details\n")
	fmt.Fprintf(&b, "- **Key**: %s\n", task.Key)
	fmt.Fprintf(&b, "- **Summary**: %s\n", task.Summary)
	fmt.Fprintf(&b, "- **Status**: %s\n", task.Status)
	fmt.Fprintf(&b, "- **Labels**: %s\n", strings.Join(task.Labels, ", "))

	b.WriteString("\n## Description\n")
	b.WriteString(task.Description)
	b.WriteString("\n")

	if analysis.Explanation != "" {
		b.WriteString("\n## Analysis\n")
		b.WriteString(analysis.Explanation)
		b.WriteString("\n")
	}

	b.WriteString("\n## Changes\n")
	fmt.Fprintf(&b, "This PR implements the changes required for task %s. ", task.Key)
	b.WriteString("The changes were generated from an automated analysis of the task requirements.\n")

	return b.String()
}

// ApplyChanges materializes a change set against the current file contents.
// For modifications, every replacement's old_code (and context, when present)
// must occur in the file; a miss fails the whole change set rather than
// committing a wrong file. The returned map holds the final content for every
// file to commit.
func ApplyChanges(changes models.ChangeSet, files map[string]string) (map[string]string, error) {
	applied := make(map[string]string)

	for _, mod := range changes.FilesToModify {
		if len(mod.Replacements) == 0 {
			continue
		}

		content, ok := files[mod.Path]
		if !ok {
			return nil, fmt.Errorf("no current content for %s, analysis and change set disagree", mod.Path)
		}

		for i, r := range mod.Replacements {
			if r.OldCode == "" {
				return nil, fmt.Errorf("empty old_code in change %d for %s", i, mod.Path)
			}
			if r.Context != "" && !strings.Contains(content, r.Context) {
				return nil, fmt.Errorf("context not found in %s: %q", mod.Path, truncate(r.Context, 80))
			}
			if !strings.Contains(content, r.OldCode) {
				return nil, fmt.Errorf("old_code not found in %s: %q", mod.Path, truncate(r.OldCode, 80))
			}
			content = strings.Replace(content, r.OldCode, r.NewCode, 1)
		}

		applied[mod.Path] = content
	}

	for _, creation := range changes.FilesToCreate {
		if creation.Path == "" {
			return nil, fmt.Errorf("file creation with empty path")
		}
		if _, exists := applied[creation.Path]; exists {
			return nil, fmt.Errorf("file %s is both modified and created", creation.Path)
		}
		applied[creation.Path] = creation.Content
	}

	return applied, nil
}

// truncate shortens a string for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
