// Package skills loads SKILL.md descriptors that extend the agent's
// capabilities with free-form markdown instructions plus metadata
// controlling when a skill is always loaded and whether it's usable on the
// current host.
package skills

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Requires lists binaries and environment variables a skill needs present
// on the host to be usable.
type Requires struct {
	Bins []string `yaml:"bins"`
	Env  []string `yaml:"env"`
}

// nanobotMetadata is the recognized shape of the frontmatter `metadata`
// key's nested `nanobot` object.
type nanobotMetadata struct {
	Always   bool     `yaml:"always"`
	Requires Requires `yaml:"requires"`
}

type frontmatterMetadata struct {
	Nanobot nanobotMetadata `yaml:"nanobot"`
}

// Skill is one loaded SKILL.md descriptor.
type Skill struct {
	Name        string
	Description string
	Path        string // directory containing SKILL.md
	Body        string // markdown body after frontmatter
	Always      bool
	Requires    Requires
}

// Available reports whether every required binary is on PATH and every
// required environment variable is set and non-empty.
func (s Skill) Available() bool {
	for _, bin := range s.Requires.Bins {
		if _, err := exec.LookPath(bin); err != nil {
			return false
		}
	}
	for _, env := range s.Requires.Env {
		if strings.TrimSpace(os.Getenv(env)) == "" {
			return false
		}
	}
	return true
}

// MissingRequirements describes what's unavailable, for display in the
// skills manifest.
func (s Skill) MissingRequirements() string {
	var missing []string
	for _, bin := range s.Requires.Bins {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, "bin:"+bin)
		}
	}
	for _, env := range s.Requires.Env {
		if strings.TrimSpace(os.Getenv(env)) == "" {
			missing = append(missing, "env:"+env)
		}
	}
	return strings.Join(missing, ", ")
}

// Loader enumerates skills from a workspace directory and a builtin
// directory, with workspace skills shadowing builtins of the same name.
type Loader struct {
	workspaceDir string
	builtinDir   string
}

func NewLoader(workspace, builtinDir string) *Loader {
	return &Loader{
		workspaceDir: filepath.Join(workspace, "skills"),
		builtinDir:   filepath.Join(builtinDir, "skills"),
	}
}

// Load enumerates every SKILL.md under both roots, sorted by name, with
// workspace entries taking priority over identically-named builtins.
func (l *Loader) Load() []Skill {
	byName := make(map[string]Skill)

	loadDir(l.builtinDir, byName)
	loadDir(l.workspaceDir, byName) // workspace overrides builtin

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Skill, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out
}

func loadDir(root string, into map[string]Skill) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		descriptorPath := filepath.Join(root, e.Name(), "SKILL.md")
		skill, err := parseDescriptor(descriptorPath, e.Name())
		if err != nil {
			continue
		}
		into[skill.Name] = skill
	}
}

func parseDescriptor(path, dirName string) (Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, err
	}

	fields, body := splitFrontmatter(string(data))

	skill := Skill{
		Name:        dirName,
		Description: fields["description"],
		Path:        filepath.Dir(path),
		Body:        strings.TrimSpace(body),
	}
	if name := fields["name"]; name != "" {
		skill.Name = name
	}

	if raw := fields["metadata"]; raw != "" {
		var meta frontmatterMetadata
		if err := yaml.Unmarshal([]byte(raw), &meta); err == nil {
			skill.Always = meta.Nanobot.Always
			skill.Requires = meta.Nanobot.Requires
		}
	}

	return skill, nil
}

// splitFrontmatter extracts a "---"-delimited frontmatter block of trimmed
// "key: value" lines from the start of a descriptor. The "metadata" key's
// value spans every following indented line (a nested YAML document), so it
// can be parsed on its own. Surrounding quotes on scalar values are
// stripped. Returns the parsed fields and the remaining markdown body.
func splitFrontmatter(content string) (map[string]string, string) {
	fields := make(map[string]string)

	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return fields, content
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return fields, content
	}

	block := lines[1:end]
	body := strings.Join(lines[end+1:], "\n")

	i := 0
	for i < len(block) {
		line := block[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			i++
			continue
		}
		colon := strings.Index(trimmed, ":")
		if colon == -1 {
			i++
			continue
		}
		key := strings.TrimSpace(trimmed[:colon])
		value := strings.TrimSpace(trimmed[colon+1:])

		if value == "" {
			// Nested block: collect subsequent more-indented lines as a
			// sub-document for yaml.Unmarshal to parse independently.
			baseIndent := leadingSpaces(line)
			var nested []string
			j := i + 1
			for j < len(block) {
				if strings.TrimSpace(block[j]) == "" {
					nested = append(nested, "")
					j++
					continue
				}
				if leadingSpaces(block[j]) <= baseIndent {
					break
				}
				nested = append(nested, dedent(block[j], baseIndent+2))
				j++
			}
			fields[key] = strings.Join(nested, "\n")
			i = j
			continue
		}

		fields[key] = unquote(value)
		i++
	}

	return fields, body
}

func leadingSpaces(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' {
			break
		}
		n++
	}
	return n
}

func dedent(s string, n int) string {
	for i := 0; i < n && strings.HasPrefix(s, " "); i++ {
		s = s[1:]
	}
	return s
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// AlwaysOn returns the available skills whose frontmatter sets always: true.
func AlwaysOn(all []Skill) []Skill {
	var out []Skill
	for _, s := range all {
		if s.Always && s.Available() {
			out = append(out, s)
		}
	}
	return out
}

// xmlEscape escapes the characters that would otherwise break the
// XML-like manifest markup if a skill's name or description contained them.
var xmlEscape = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace

// Manifest renders the XML-like summary of every skill (available or not)
// shown in the system prompt's `# Skills` section.
func Manifest(all []Skill) string {
	var b strings.Builder
	for _, s := range all {
		available := s.Available()
		fmt.Fprintf(&b, "<skill name=%q available=%t location=%q>\n", xmlEscape(s.Name), available, s.Path)
		fmt.Fprintf(&b, "  <description>%s</description>\n", xmlEscape(s.Description))
		if !available {
			fmt.Fprintf(&b, "  <requires>%s</requires>\n", xmlEscape(s.MissingRequirements()))
		}
		b.WriteString("</skill>\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
