// Package labels implements the label conventions used to select and route
// tasks: a marker label flags a task for automated processing, and a
// repository label encodes the target repository.
package labels

import (
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot/pkg/models"
)

// Prefixes accepted for repository labels. Both encode the same
// "owner/name" payload.
const (
	repoPrefix      = "repo:"
	repoOwnerPrefix = "repo-owner:"
)

// HasLabel checks if a label list contains a label using case-insensitive matching.
func HasLabel(labels []string, targetLabel string) bool {
	for _, label := range labels {
		if strings.EqualFold(label, targetLabel) {
			return true
		}
	}
	return false
}

// ParseRepository parses a repository label value into a Repository.
// Accepted formats are "repo:owner/name" and "repo-owner:owner/name".
func ParseRepository(label string) (models.Repository, error) {
	var payload string
	switch {
	case strings.HasPrefix(label, repoOwnerPrefix):
		payload = strings.TrimPrefix(label, repoOwnerPrefix)
	case strings.HasPrefix(label, repoPrefix):
		payload = strings.TrimPrefix(label, repoPrefix)
	default:
		return models.Repository{}, fmt.Errorf("not a repository label: %q", label)
	}

	parts := strings.Split(payload, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return models.Repository{}, fmt.Errorf("invalid repository label %q, expected format: %sowner/name", label, repoPrefix)
	}

	return models.Repository{Owner: parts[0], Name: parts[1]}, nil
}

// FindRepository scans a task's labels for a repository label and returns the
// parsed repository. It returns false when no label carries a repository
// prefix; a label with a prefix but a malformed payload is an error.
func FindRepository(taskLabels []string) (models.Repository, bool, error) {
	for _, label := range taskLabels {
		if !strings.HasPrefix(label, repoPrefix) && !strings.HasPrefix(label, repoOwnerPrefix) {
			continue
		}
		repo, err := ParseRepository(label)
		if err != nil {
			return models.Repository{}, false, err
		}
		return repo, true, nil
	}
	return models.Repository{}, false, nil
}
