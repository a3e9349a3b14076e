package cmd

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskpilot/taskpilot/internal/processor"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// fakeCommentLister serves canned comment bodies per task key.
type fakeCommentLister struct {
	comments map[string][]string
	err      error
}

func (f *fakeCommentLister) GetComments(key string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.comments[key], nil
}

func TestCountLinkedInProgress(t *testing.T) {
	tasks := []models.Task{
		{Key: "POC-1", Status: processor.StatusInProgress},
		{Key: "POC-2", Status: processor.StatusInProgress},
		{Key: "POC-3", Status: processor.StatusToDo},
		{Key: "POC-4", Status: processor.StatusInReview},
	}
	lister := &fakeCommentLister{
		comments: map[string][]string{
			"POC-1": {
				"Looks good to me",
				processor.PRCommentPrefix + " https://github.com/octocat/game/pull/42",
			},
			"POC-2": {"Just a discussion comment"},
			// POC-3 has the PR comment but is not in progress
			"POC-3": {processor.PRCommentPrefix + " https://github.com/octocat/game/pull/7"},
		},
	}

	assert.Equal(t, 1, countLinkedInProgress(tasks, lister))
}

func TestCountLinkedInProgressNoInProgressTasks(t *testing.T) {
	tasks := []models.Task{
		{Key: "POC-1", Status: processor.StatusToDo},
	}
	assert.Equal(t, 0, countLinkedInProgress(tasks, &fakeCommentLister{}))
}

func TestCountLinkedInProgressFetchErrorSkipsTask(t *testing.T) {
	tasks := []models.Task{
		{Key: "POC-1", Status: processor.StatusInProgress},
	}
	lister := &fakeCommentLister{err: fmt.Errorf("jira down")}

	assert.Equal(t, 0, countLinkedInProgress(tasks, lister))
}
