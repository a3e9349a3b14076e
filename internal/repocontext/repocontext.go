// Package repocontext gathers a snapshot of a target repository so the
// language model can ground its analysis: detected project type, a source
// file listing, and the content of key and config files.
package repocontext

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/taskpilot/taskpilot/internal/logging"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// maxContextFiles caps how many file contents are loaded into the context.
const maxContextFiles = 30

// maxFileSize skips files unlikely to be hand-written source (lockfiles,
// bundles, vendored blobs).
const maxFileSize = 100 * 1024

// Host is the subset of the code host client needed to gather context.
type Host interface {
	GetFileContent(repo models.Repository, path, ref string) (string, error)
	ListRepositoryFiles(repo models.Repository, ref string) ([]string, error)
}

// FilePatterns describes where a project type keeps its interesting files.
type FilePatterns struct {
	SourceFiles []string
	ConfigFiles []string
	KeyFiles    []string
}

// patternsByType mirrors the conventions of the project types the agent
// understands. Unknown projects fall back to a catch-all.
var patternsByType = map[string]FilePatterns{
	"react": {
		SourceFiles: []string{"src/**/*.tsx", "src/**/*.ts", "src/**/*.jsx", "src/**/*.js"},
		ConfigFiles: []string{"package.json", "tsconfig.json", "vite.config.ts"},
		KeyFiles:    []string{"src/App.tsx", "src/main.tsx", "src/index.tsx", "src/constants.ts", "src/config.ts"},
	},
	"angular": {
		SourceFiles: []string{"src/**/*.ts", "src/**/*.html", "src/**/*.scss"},
		ConfigFiles: []string{"package.json", "angular.json", "tsconfig.json"},
		KeyFiles:    []string{"src/app/app.component.ts", "src/app/app.module.ts"},
	},
	"nodejs": {
		SourceFiles: []string{"src/**/*.js", "src/**/*.ts"},
		ConfigFiles: []string{"package.json", "tsconfig.json"},
		KeyFiles:    []string{"src/index.js", "src/app.js", "src/server.js"},
	},
	"python": {
		SourceFiles: []string{"src/**/*.py"},
		ConfigFiles: []string{"requirements.txt", "setup.py"},
		KeyFiles:    []string{"src/main.py", "src/app.py", "src/routes.py"},
	},
	"java": {
		SourceFiles: []string{"src/**/*.java"},
		ConfigFiles: []string{"pom.xml", "application.properties"},
		KeyFiles:    []string{"src/main/java/**/*.java"},
	},
	"unknown": {
		SourceFiles: []string{"src/**/*"},
		ConfigFiles: []string{"*"},
		KeyFiles:    []string{"src/**/*"},
	},
}

// Loader gathers repository context through a code host client.
type Loader struct {
	host Host
}

// NewLoader creates a context loader backed by the given code host.
func NewLoader(host Host) *Loader {
	return &Loader{host: host}
}

// packageJSON is the subset of package.json needed for type detection.
type packageJSON struct {
	Dependencies map[string]string `json:"dependencies"`
}

// detectProjectType classifies the repository by its manifest files.
func (l *Loader) detectProjectType(repo models.Repository, ref string, paths []string) string {
	pathSet := make(map[string]bool, len(paths))
	for _, p := range paths {
		pathSet[p] = true
	}

	if pathSet["package.json"] {
		content, err := l.host.GetFileContent(repo, "package.json", ref)
		if err != nil {
			logging.Warn("failed to read package.json for type detection", "repository", repo.String(), "error", err)
			return "nodejs"
		}
		var pkg packageJSON
		if err := json.Unmarshal([]byte(content), &pkg); err != nil {
			logging.Warn("failed to parse package.json", "repository", repo.String(), "error", err)
			return "nodejs"
		}
		if _, ok := pkg.Dependencies["react"]; ok {
			return "react"
		}
		if _, ok := pkg.Dependencies["angular"]; ok {
			return "angular"
		}
		return "nodejs"
	}

	if pathSet["requirements.txt"] {
		return "python"
	}

	if pathSet["pom.xml"] {
		return "java"
	}

	return "unknown"
}

// Patterns returns the file patterns for a project type, falling back to the
// catch-all for unrecognized types.
func Patterns(projectType string) (FilePatterns, bool) {
	p, ok := patternsByType[projectType]
	if !ok {
		return patternsByType["unknown"], false
	}
	return p, true
}

// matchPattern reports whether a repository path matches a glob-style pattern.
// "**/" matches any number of directories, "*" matches within one path segment.
func matchPattern(pattern, path string) bool {
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\*\*/`, `(.*/)?`)
	quoted = strings.ReplaceAll(quoted, `\*\*`, `.*`)
	quoted = strings.ReplaceAll(quoted, `\*`, `[^/]*`)
	re, err := regexp.Compile("^" + quoted + "$")
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// matchAny reports whether a path matches any of the patterns.
func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// buildStructure renders an indented listing of the paths matching the source
// patterns, the way a developer would skim a tree.
func buildStructure(paths []string, sourcePatterns []string) string {
	var lines []string
	for _, path := range paths {
		if !matchAny(sourcePatterns, path) {
			continue
		}
		indent := strings.Repeat("    ", strings.Count(path, "/"))
		lines = append(lines, indent+path)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// Load gathers the repository context at the given ref.
func (l *Loader) Load(repo models.Repository, ref string) (models.RepoContext, error) {
	paths, err := l.host.ListRepositoryFiles(repo, ref)
	if err != nil {
		return models.RepoContext{}, fmt.Errorf("failed to list repository files: %w", err)
	}

	projectType := l.detectProjectType(repo, ref, paths)
	patterns, _ := Patterns(projectType)

	logging.Info("detected project type",
		"repository", repo.String(),
		"project_type", projectType,
		"file_count", len(paths))

	// Load key and config file contents
	files := make(map[string]string)
	wanted := append(append([]string{}, patterns.KeyFiles...), patterns.ConfigFiles...)
	for _, path := range paths {
		if len(files) >= maxContextFiles {
			logging.Warn("context file cap reached", "repository", repo.String(), "cap", maxContextFiles)
			break
		}
		if !matchAny(wanted, path) {
			continue
		}
		content, err := l.host.GetFileContent(repo, path, ref)
		if err != nil {
			logging.Warn("failed to read context file", "repository", repo.String(), "path", path, "error", err)
			continue
		}
		if len(content) > maxFileSize {
			logging.Debug("skipping oversized context file", "path", path, "size", len(content))
			continue
		}
		files[path] = content
	}

	return models.RepoContext{
		ProjectType: projectType,
		Structure:   buildStructure(paths, patterns.SourceFiles),
		Files:       files,
	}, nil
}
