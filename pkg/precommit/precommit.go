// Package precommit reads .pre-commit-config.yaml hook manifests.
//
// groupsync never runs hooks; it only checks that the manifest is well
// formed, so that a broken hook declaration is caught before pre-commit
// itself fails on a developer's machine.
package precommit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/groupsync/pkg/errors"
)

// DefaultFile is the conventional hook manifest name.
const DefaultFile = ".pre-commit-config.yaml"

// Special repository names that carry no revision.
const (
	RepoLocal = "local"
	RepoMeta  = "meta"
)

// Config is the top-level hook manifest.
type Config struct {
	DefaultStages []string `yaml:"default_stages,omitempty"`
	FailFast      bool     `yaml:"fail_fast,omitempty"`
	Exclude       string   `yaml:"exclude,omitempty"`
	Repos         []Repo   `yaml:"repos"`
}

// Repo is a hook repository pinned to a revision.
type Repo struct {
	URL   string `yaml:"repo"`
	Rev   string `yaml:"rev,omitempty"`
	Hooks []Hook `yaml:"hooks"`
	Line  int    `yaml:"-"`
}

// Hook is a single hook declaration.
type Hook struct {
	ID                     string   `yaml:"id"`
	Name                   string   `yaml:"name,omitempty"`
	Entry                  string   `yaml:"entry,omitempty"`
	Language               string   `yaml:"language,omitempty"`
	Args                   []string `yaml:"args,omitempty"`
	Files                  string   `yaml:"files,omitempty"`
	Exclude                string   `yaml:"exclude,omitempty"`
	Stages                 []string `yaml:"stages,omitempty"`
	AdditionalDependencies []string `yaml:"additional_dependencies,omitempty"`
}

// Load reads and parses the hook manifest at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "hook manifest %s", path)
	}
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidHooks, err, "parse %s", path)
	}
	return cfg, nil
}

// Parse decodes hook manifest content, recording each repo's source line.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	var cfg Config
	if err := root.Decode(&cfg); err != nil {
		return nil, err
	}
	if lines := repoLines(&root); len(lines) == len(cfg.Repos) {
		for i := range cfg.Repos {
			cfg.Repos[i].Line = lines[i]
		}
	}
	return &cfg, nil
}

func repoLines(root *yaml.Node) []int {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "repos" && doc.Content[i+1].Kind == yaml.SequenceNode {
			var lines []int
			for _, n := range doc.Content[i+1].Content {
				lines = append(lines, n.Line)
			}
			return lines
		}
	}
	return nil
}

// RepoHook is a hook together with the repository that declares it.
type RepoHook struct {
	Repo string
	Rev  string
	Hook Hook
}

// Hooks returns every hook in declaration order.
func (c *Config) Hooks() []RepoHook {
	var out []RepoHook
	for _, r := range c.Repos {
		for _, h := range r.Hooks {
			out = append(out, RepoHook{Repo: r.URL, Rev: r.Rev, Hook: h})
		}
	}
	return out
}

// Problem is a manifest defect.
type Problem struct {
	Error   bool // false for warnings
	Repo    string
	Line    int
	Message string
}

func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", p.Line, p.Repo, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Repo, p.Message)
}

// Check validates the manifest:
//   - remote repos must pin a rev; local and meta repos must not
//   - every repo declares at least one hook
//   - hook ids are non-empty and unique within their repo
//   - local hooks declare entry and language
func (c *Config) Check() []Problem {
	var out []Problem
	if len(c.Repos) == 0 {
		out = append(out, Problem{Repo: "(root)", Message: "no repos declared"})
	}
	for _, r := range c.Repos {
		add := func(isErr bool, format string, args ...any) {
			out = append(out, Problem{Error: isErr, Repo: r.URL, Line: r.Line, Message: fmt.Sprintf(format, args...)})
		}
		special := r.URL == RepoLocal || r.URL == RepoMeta
		switch {
		case r.URL == "":
			add(true, "repo URL is empty")
		case special && r.Rev != "":
			add(true, "%s repo must not set rev", r.URL)
		case !special && r.Rev == "":
			add(true, "rev is required for remote repos")
		}
		if len(r.Hooks) == 0 {
			add(false, "repo declares no hooks")
		}
		seen := make(map[string]bool)
		for _, h := range r.Hooks {
			if h.ID == "" {
				add(true, "hook without id")
				continue
			}
			if seen[h.ID] {
				add(true, "duplicate hook id %q", h.ID)
			}
			seen[h.ID] = true
			if r.URL == RepoLocal && (h.Entry == "" || h.Language == "") {
				add(true, "local hook %q needs entry and language", h.ID)
			}
		}
	}
	return out
}
