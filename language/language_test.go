package language

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryContainsAllLanguages(t *testing.T) {
	reg := NewRegistry()

	ids := []string{"python", "javascript", "ruby", "go", "java", "c", "cpp"}
	for _, id := range ids {
		spec, ok := reg.Get(id)
		require.True(t, ok, "missing language %q", id)
		assert.Equal(t, id, spec.ID)
		assert.NotEmpty(t, spec.Label)
		assert.NotEmpty(t, spec.SourceFileName)
	}

	_, ok := reg.Get("brainfuck")
	assert.False(t, ok)
}

func TestRegistryListOrderAndShape(t *testing.T) {
	reg := NewRegistry()
	infos := reg.List()

	require.Len(t, infos, 7)
	assert.Equal(t, "python", infos[0].ID)
	assert.Equal(t, "cpp", infos[6].ID)

	// Interpreted languages carry dependency display hints, the rest do not.
	for _, info := range infos {
		if info.SupportsDependencies {
			assert.NotEmpty(t, info.DependencyFieldLabel, info.ID)
			assert.NotEmpty(t, info.DependencyPlaceholder, info.ID)
		} else {
			assert.Empty(t, info.DependencyFieldLabel, info.ID)
		}
	}
}

func TestBuildCommand(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		id   string
		deps []string
		want string
	}{
		{
			id:   "python",
			want: "cp /code/main.py . && python main.py",
		},
		{
			id:   "python",
			deps: []string{"requests", "numpy"},
			want: "cp /code/main.py . && pip install requests numpy && python main.py",
		},
		{
			id:   "javascript",
			deps: []string{"lodash"},
			want: "cp /code/index.js . && npm install lodash && node index.js",
		},
		{
			id:   "ruby",
			deps: []string{"json"},
			want: "cp /code/main.rb . && gem install json && ruby main.rb",
		},
		{
			id:   "go",
			want: "cp /code/main.go . && go run main.go",
		},
		{
			id:   "java",
			want: "cp /code/Main.java . && javac Main.java && java Main",
		},
		{
			id:   "c",
			want: "cp /code/main.c . && gcc -o main main.c -lm && ./main",
		},
		{
			id:   "cpp",
			want: "cp /code/main.cpp . && g++ -o main main.cpp -lm && ./main",
		},
	}

	for _, tt := range tests {
		t.Run(tt.id+"/"+strings.Join(tt.deps, "_"), func(t *testing.T) {
			spec, ok := reg.Get(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.want, spec.BuildCommand(tt.deps))
		})
	}
}

func TestBuildCommandEmptyDepsHasNoInstallStage(t *testing.T) {
	reg := NewRegistry()
	for _, info := range reg.List() {
		spec, _ := reg.Get(info.ID)
		cmd := spec.BuildCommand(nil)
		assert.NotContains(t, cmd, "install", info.ID)
	}
}

func TestBuildCommandIgnoresDepsForUnsupportedLanguages(t *testing.T) {
	reg := NewRegistry()
	spec, _ := reg.Get("go")
	assert.Equal(t, spec.BuildCommand(nil), spec.BuildCommand([]string{"left-pad"}))
}

func TestSplitDependencies(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{" a, b  c ,", []string{"a", "b", "c"}},
		{"", nil},
		{",,, ,", nil},
		{"requests", []string{"requests"}},
		{"a,b,c", []string{"a", "b", "c"}},
		{"a\t b\nc", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := SplitDependencies(tt.raw)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
