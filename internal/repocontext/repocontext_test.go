package repocontext

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/pkg/models"
)

// fakeHost serves a fixed file tree from memory.
type fakeHost struct {
	files map[string]string
}

func (f *fakeHost) GetFileContent(repo models.Repository, path, ref string) (string, error) {
	content, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("not found: %s", path)
	}
	return content, nil
}

func (f *fakeHost) ListRepositoryFiles(repo models.Repository, ref string) ([]string, error) {
	var paths []string
	for path := range f.files {
		paths = append(paths, path)
	}
	return paths, nil
}

var testRepo = models.Repository{Owner: "octocat", Name: "game"}

func TestDetectProjectType(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name: "react via package.json dependency",
			files: map[string]string{
				"package.json": `{"dependencies": {"react": "^18.0.0"}}`,
			},
			want: "react",
		},
		{
			name: "angular via package.json dependency",
			files: map[string]string{
				"package.json": `{"dependencies": {"angular": "^1.8.0"}}`,
			},
			want: "angular",
		},
		{
			name: "plain nodejs",
			files: map[string]string{
				"package.json": `{"dependencies": {"express": "^4.0.0"}}`,
			},
			want: "nodejs",
		},
		{
			name: "malformed package.json still counts as nodejs",
			files: map[string]string{
				"package.json": "{not json",
			},
			want: "nodejs",
		},
		{
			name: "python via requirements.txt",
			files: map[string]string{
				"requirements.txt": "flask==2.0\n",
			},
			want: "python",
		},
		{
			name: "java via pom.xml",
			files: map[string]string{
				"pom.xml": "<project/>",
			},
			want: "java",
		},
		{
			name: "unknown",
			files: map[string]string{
				"Makefile": "all:\n",
			},
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(&fakeHost{files: tt.files})
			paths, err := loader.host.ListRepositoryFiles(testRepo, "main")
			require.NoError(t, err)

			assert.Equal(t, tt.want, loader.detectProjectType(testRepo, "main", paths))
		})
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"src/**/*.py", "src/main.py", true},
		{"src/**/*.py", "src/api/routes.py", true},
		{"src/**/*.py", "src/a/b/c.py", true},
		{"src/**/*.py", "main.py", false},
		{"src/**/*.py", "src/main.go", false},
		{"package.json", "package.json", true},
		{"package.json", "sub/package.json", false},
		{"*", "README.md", true},
		{"*", "src/main.py", false},
		{"src/**/*", "src/anything.txt", true},
		{"src/main/java/**/*.java", "src/main/java/com/app/App.java", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" vs "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, matchPattern(tt.pattern, tt.path))
		})
	}
}

func TestLoad(t *testing.T) {
	host := &fakeHost{files: map[string]string{
		"requirements.txt": "flask==2.0\n",
		"src/main.py":      "print('hello')\n",
		"src/app.py":       "app = Flask(__name__)\n",
		"src/util/io.py":   "def read(): pass\n",
		"README.md":        "# game\n",
	}}

	loader := NewLoader(host)
	repoCtx, err := loader.Load(testRepo, "main")
	require.NoError(t, err)

	assert.Equal(t, "python", repoCtx.ProjectType)

	// Structure lists source files only
	assert.Contains(t, repoCtx.Structure, "src/main.py")
	assert.Contains(t, repoCtx.Structure, "src/util/io.py")
	assert.NotContains(t, repoCtx.Structure, "README.md")

	// Key and config files are loaded
	assert.Equal(t, "print('hello')\n", repoCtx.Files["src/main.py"])
	assert.Equal(t, "flask==2.0\n", repoCtx.Files["requirements.txt"])
	assert.NotContains(t, repoCtx.Files, "README.md")
}

func TestPatternsFallsBackToUnknown(t *testing.T) {
	patterns, known := Patterns("cobol")
	assert.False(t, known)
	assert.Equal(t, []string{"src/**/*"}, patterns.SourceFiles)

	_, known = Patterns("python")
	assert.True(t, known)
}
