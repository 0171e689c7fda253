package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed course_guide.yaml
var embeddedCourseGuide []byte

type yamlPromptSpec struct {
	Name    string `yaml:"name"`
	Version int    `yaml:"version"`
	System  string `yaml:"system"`
	User    string `yaml:"user"`
}

// Input carries the fields the course-guide templates may reference.
type Input struct {
	Input string
}

type Template struct {
	Name    string
	Version int

	system *template.Template
	user   *template.Template
}

// Load reads the prompt from path, or the embedded copy when path is empty.
func Load(path string) (*Template, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Parse(embeddedCourseGuide)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Template, error) {
	var spec yamlPromptSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("prompt yaml: %w", err)
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("missing prompt name")
	}
	if spec.Version <= 0 {
		return nil, fmt.Errorf("invalid version for %s", spec.Name)
	}
	if strings.TrimSpace(spec.User) == "" {
		return nil, fmt.Errorf("%s: empty user template", spec.Name)
	}
	sysT, err := template.New("system").Option("missingkey=zero").Parse(spec.System)
	if err != nil {
		return nil, fmt.Errorf("%s system template parse: %w", spec.Name, err)
	}
	userT, err := template.New("user").Option("missingkey=zero").Parse(spec.User)
	if err != nil {
		return nil, fmt.Errorf("%s user template parse: %w", spec.Name, err)
	}
	return &Template{Name: spec.Name, Version: spec.Version, system: sysT, user: userT}, nil
}

// Render returns the system and user messages for one goal.
func (t *Template) Render(in Input) (system string, user string, err error) {
	if system, err = execute(t.system, in); err != nil {
		return "", "", fmt.Errorf("%s system render: %w", t.Name, err)
	}
	if user, err = execute(t.user, in); err != nil {
		return "", "", fmt.Errorf("%s user render: %w", t.Name, err)
	}
	return system, user, nil
}

func execute(t *template.Template, in Input) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, in); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
