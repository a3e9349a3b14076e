package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot/internal/repocontext"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// dumpJSON renders a value as indented JSON for inclusion in a prompt.
// Marshal errors cannot happen for the map and struct types used here.
func dumpJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// patternSection renders the project-specific file patterns shared by both
// prompts.
func patternSection(projectType string) string {
	patterns, _ := repocontext.Patterns(projectType)
	return fmt.Sprintf(`Project-specific patterns:
- Source files: %s
- Config files: %s
- Key files: %s`,
		strings.Join(patterns.SourceFiles, ", "),
		strings.Join(patterns.ConfigFiles, ", "),
		strings.Join(patterns.KeyFiles, ", "))
}

// buildAnalysisPrompt asks the model to plan the changes a task requires.
func buildAnalysisPrompt(task models.Task, repoCtx models.RepoContext) string {
	projectType := strings.ToUpper(repoCtx.ProjectType)

	return fmt.Sprintf(`You are an expert software developer analyzing a task for a %s application.
Here is the current codebase structure and relevant files:

Project Type: %s
Project Structure:
%s

Relevant Files:
%s

%s

Now, analyze this task and determine what code changes are needed:

Task Key: %s
Summary: %s
Description: %s
Status: %s
Labels: %s

Please provide:
1. A list of files that need to be modified (based on the existing codebase structure)
2. The specific changes needed for each file
3. Any new files that need to be created
4. A detailed explanation of the changes

Important:
- Follow %s best practices and conventions
- Consider the project type when suggesting changes
- Make the best architectural decision for implementing the changes
- You can either modify existing files, create new files, or both
- When modifying existing files, preserve their structure and style
- When creating new files, follow the project's patterns and conventions

Format your response in JSON like this:
{
    "files_to_modify": [
        {
            "path": "path/to/file",
            "changes": "detailed description of changes"
        }
    ],
    "files_to_create": [
        {
            "path": "path/to/new/file",
            "content": "file content",
            "reason": "explanation of why this new file is needed"
        }
    ],
    "explanation": "detailed explanation of all changes and architectural decisions"
}
`,
		projectType,
		projectType,
		repoCtx.Structure,
		dumpJSON(repoCtx.Files),
		patternSection(repoCtx.ProjectType),
		task.Key,
		task.Summary,
		task.Description,
		task.Status,
		strings.Join(task.Labels, ", "),
		projectType)
}

// buildGenerationPrompt asks the model for the exact edits implementing an
// analysis. The files map holds the current content of every file the
// analysis plans to modify.
func buildGenerationPrompt(task models.Task, analysis models.Analysis, repoCtx models.RepoContext, files map[string]string) string {
	projectType := strings.ToUpper(repoCtx.ProjectType)

	return fmt.Sprintf(`Based on this task analysis and the existing %s codebase, generate the specific code changes needed.

Task: %s - %s
Analysis: %s

Files to modify:
%s

%s

Important:
- Follow %s best practices and conventions
- Maintain the existing code style
- Consider the project's architecture when making changes
- For existing files:
  - Only modify the specific parts that need to change
  - Preserve all other code
  - Include enough context around changes to locate them
  - Make sure the context string EXACTLY matches a part of the file content
  - The old_code must EXACTLY match what's in the file
- For new files:
  - Follow the project's file structure and naming conventions
  - Include all necessary imports and dependencies
  - Add proper documentation and types
  - Make sure the new file integrates well with existing code

Please provide the code changes in this format:
{
    "files_to_modify": [
        {
            "path": "path/to/file",
            "changes": [
                {
                    "type": "update",
                    "context": "exact string from the file that helps locate where to make the change",
                    "old_code": "exact code to replace",
                    "new_code": "new code to insert"
                }
            ]
        }
    ],
    "files_to_create": [
        {
            "path": "path/to/new/file",
            "content": "complete file content with imports, types, and documentation"
        }
    ]
}

Example of a good change:
{
    "files_to_modify": [
        {
            "path": "src/pages/SettingsPage.tsx",
            "changes": [
                {
                    "type": "update",
                    "context": "const [playerCount, setPlayerCount] = useState(10);",
                    "old_code": "useState(10)",
                    "new_code": "useState(8)"
                }
            ]
        }
    ]
}
`,
		projectType,
		task.Key,
		task.Summary,
		dumpJSON(analysis),
		dumpJSON(files),
		patternSection(repoCtx.ProjectType),
		projectType)
}
