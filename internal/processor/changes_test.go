package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/pkg/models"
)

func TestBranchName(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		summary string
		want    string
	}{
		{
			name:    "simple summary",
			key:     "POC-7",
			summary: "Change default player count",
			want:    "POC-7-change-default-player-count",
		},
		{
			name:    "special characters dropped",
			key:     "POC-8",
			summary: "Fix login (OAuth2) & session [bug!]",
			want:    "POC-8-fix-login-oauth2--session-bug",
		},
		{
			name:    "long summary capped at 30",
			key:     "POC-9",
			summary: "This is a very long summary that should definitely be truncated",
			want:    "POC-9-this-is-a-very-long-summary-th",
		},
		{
			name:    "empty slug falls back to key",
			key:     "POC-10",
			summary: "!!! ???",
			want:    "POC-10",
		},
		{
			name:    "empty summary",
			key:     "POC-11",
			summary: "",
			want:    "POC-11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BranchName(tt.key, tt.summary)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), len(tt.key)+1+30)
		})
	}
}

func TestCommitMessage(t *testing.T) {
	assert.Equal(t, "POC-7: Update src/app.py", CommitMessage("POC-7", "src/app.py"))
}

func TestBuildPRBody(t *testing.T) {
	task := models.Task{
		Key:         "POC-7",
		Summary:     "Change default player count",
		Description: "Lobby should default to 8 players.",
		Status:      "In Progress",
		Labels:      []string{"ai-task", "repo:octocat/game"},
	}
	analysis := models.Analysis{
		Explanation: "A single constant drives the default.",
	}

	body := BuildPRBody(task, analysis)

	assert.Contains(t, body, "## Task Details")
	assert.Contains(t, body, "**Key**: POC-7")
	assert.Contains(t, body, "ai-task, repo:octocat/game")
	assert.Contains(t, body, "Lobby should default to 8 players.")
	assert.Contains(t, body, "## Analysis")
	assert.Contains(t, body, "A single constant drives the default.")
	assert.Contains(t, body, "## Changes")
}

func TestBuildPRBodyWithoutExplanation(t *testing.T) {
	body := BuildPRBody(models.Task{Key: "POC-7"}, models.Analysis{})
	assert.NotContains(t, body, "## Analysis")
}

func TestApplyChanges(t *testing.T) {
	files := map[string]string{
		"src/app.py": "MAX_PLAYERS = 10\nMIN_PLAYERS = 2\n",
	}

	changes := models.ChangeSet{
		FilesToModify: []models.FileModification{
			{
				Path: "src/app.py",
				Replacements: []models.Replacement{
					{
						Type:    "update",
						Context: "MAX_PLAYERS = 10",
						OldCode: "MAX_PLAYERS = 10",
						NewCode: "MAX_PLAYERS = 8",
					},
				},
			},
		},
		FilesToCreate: []models.FileCreation{
			{Path: "src/limits.py", Content: "MAX_TEAMS = 4\n"},
		},
	}

	applied, err := ApplyChanges(changes, files)
	require.NoError(t, err)

	assert.Equal(t, "MAX_PLAYERS = 8\nMIN_PLAYERS = 2\n", applied["src/app.py"])
	assert.Equal(t, "MAX_TEAMS = 4\n", applied["src/limits.py"])
	assert.Len(t, applied, 2)
}

func TestApplyChangesSequentialReplacements(t *testing.T) {
	files := map[string]string{
		"config.js": "const a = 1;\nconst b = 2;\n",
	}
	changes := models.ChangeSet{
		FilesToModify: []models.FileModification{
			{
				Path: "config.js",
				Replacements: []models.Replacement{
					{OldCode: "const a = 1;", NewCode: "const a = 10;"},
					{OldCode: "const b = 2;", NewCode: "const b = 20;"},
				},
			},
		},
	}

	applied, err := ApplyChanges(changes, files)
	require.NoError(t, err)
	assert.Equal(t, "const a = 10;\nconst b = 20;\n", applied["config.js"])
}

func TestApplyChangesErrors(t *testing.T) {
	files := map[string]string{
		"src/app.py": "MAX_PLAYERS = 10\n",
	}

	t.Run("old_code not found", func(t *testing.T) {
		changes := models.ChangeSet{
			FilesToModify: []models.FileModification{
				{
					Path:         "src/app.py",
					Replacements: []models.Replacement{{OldCode: "MAX_PLAYERS = 99", NewCode: "MAX_PLAYERS = 8"}},
				},
			},
		}
		_, err := ApplyChanges(changes, files)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "old_code not found")
	})

	t.Run("context not found", func(t *testing.T) {
		changes := models.ChangeSet{
			FilesToModify: []models.FileModification{
				{
					Path: "src/app.py",
					Replacements: []models.Replacement{
						{Context: "def setup():", OldCode: "MAX_PLAYERS = 10", NewCode: "MAX_PLAYERS = 8"},
					},
				},
			},
		}
		_, err := ApplyChanges(changes, files)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "context not found")
	})

	t.Run("empty old_code", func(t *testing.T) {
		changes := models.ChangeSet{
			FilesToModify: []models.FileModification{
				{Path: "src/app.py", Replacements: []models.Replacement{{NewCode: "x"}}},
			},
		}
		_, err := ApplyChanges(changes, files)
		assert.Error(t, err)
	})

	t.Run("unknown file", func(t *testing.T) {
		changes := models.ChangeSet{
			FilesToModify: []models.FileModification{
				{Path: "src/other.py", Replacements: []models.Replacement{{OldCode: "a", NewCode: "b"}}},
			},
		}
		_, err := ApplyChanges(changes, files)
		assert.Error(t, err)
	})

	t.Run("modified and created collision", func(t *testing.T) {
		changes := models.ChangeSet{
			FilesToModify: []models.FileModification{
				{
					Path:         "src/app.py",
					Replacements: []models.Replacement{{OldCode: "MAX_PLAYERS = 10", NewCode: "MAX_PLAYERS = 8"}},
				},
			},
			FilesToCreate: []models.FileCreation{{Path: "src/app.py", Content: "boom"}},
		}
		_, err := ApplyChanges(changes, files)
		assert.Error(t, err)
	})
}

func TestApplyChangesSkipsEmptyModifications(t *testing.T) {
	changes := models.ChangeSet{
		FilesToModify: []models.FileModification{
			{Path: "src/app.py"}, // no replacements
		},
	}
	applied, err := ApplyChanges(changes, map[string]string{"src/app.py": "x"})
	require.NoError(t, err)
	assert.Empty(t, applied)
}
