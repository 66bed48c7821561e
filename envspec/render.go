// FILE: lixenwraith/settings/envspec/render.go
package envspec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Output file names of the written artifacts
const (
	DotEnvFile   = ".env.template"
	MarkdownFile = "SETTINGS.md"
	ValuesFile   = "values.yaml"
)

// DotEnv renders NAME=value lines, a blank line closing each group
func DotEnv(s *Spec) string {
	var lines []string
	for _, g := range s.Groups {
		for _, v := range g.Vars {
			lines = append(lines, v.Name+"="+v.Placeholder())
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Markdown renders the settings documentation, one table per group
func Markdown(s *Spec) string {
	sections := make([]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		sections = append(sections, markdownSection(g))
	}
	return "## Settings\n\n" + strings.Join(sections, "\n\n") + "\n"
}

func markdownSection(g Group) string {
	hasAlias := g.HasAlias()

	var header strings.Builder
	header.WriteString("| Env Var |")
	if hasAlias {
		header.WriteString(" Alias |")
	}
	header.WriteString(" Usual Path | Type | Default |\n| -------------- |")
	if hasAlias {
		header.WriteString(" ------ |")
	}
	header.WriteString(" ----------------------- | ------------------ | --------- |")

	rows := make([]string, 0, len(g.Vars))
	var details []string
	for _, v := range g.Vars {
		name := v.Name
		if v.Secret {
			name += " (secret)"
		}
		aliasCell := ""
		if hasAlias {
			aliasCell = " " + v.Alias + " |"
		}
		def := ""
		if v.Default != nil {
			def = *v.Default
		}
		rows = append(rows, fmt.Sprintf("| %s |%s %s | %s | %s |",
			name, aliasCell, codePath(g, v), FormatType(v), def))

		if v.Description == "" && v.Pattern == "" {
			continue
		}
		var lines []string
		if v.Description != "" {
			lines = append(lines, v.Description)
		}
		if v.Pattern != "" {
			lines = append(lines, "**Pattern:** `"+v.Pattern+"`")
		}
		details = append(details, "#### `"+v.Name+"`\n\n"+strings.Join(lines, "\n\n"))
	}

	var sb strings.Builder
	sb.WriteString("### " + g.Section())
	if g.HasSecrets() {
		sb.WriteString("\n> contains secrets\n")
	}
	if g.Description != "" {
		sb.WriteString("\n" + g.Description + "\n")
	}
	sb.WriteString("\n" + header.String() + "\n" + strings.Join(rows, "\n"))
	if len(details) > 0 {
		sb.WriteString("\n\n" + strings.Join(details, "\n\n"))
	}
	return sb.String()
}

// codePath is the conventional registry access path of a variable
func codePath(g Group, v Var) string {
	return "settings." + g.Section() + "." + v.OriginalName
}

// Values renders a Helm-style values file nested by section then field key
func Values(s *Spec) (string, error) {
	root := mappingNode()
	for _, g := range s.Groups {
		section := mappingNode()
		for _, v := range g.Vars {
			value, err := valueNode(v)
			if err != nil {
				return "", err
			}
			section.Content = append(section.Content, keyNode(v.OriginalName), value)
		}
		root.Content = append(root.Content, keyNode(g.Section()), section)
	}
	return encodeYAML(root)
}

// Compose renders a docker-compose environment block
func Compose(s *Spec) (string, error) {
	env := mappingNode()
	for _, g := range s.Groups {
		for _, v := range g.Vars {
			env.Content = append(env.Content, keyNode(v.Name), stringNode(v.Placeholder()))
		}
	}

	root := mappingNode()
	root.Content = append(root.Content, keyNode("environment"), env)
	return encodeYAML(root)
}

type k8sVar struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// K8s renders a Kubernetes container env list
func K8s(s *Spec) (string, error) {
	env := make([]k8sVar, 0)
	for _, g := range s.Groups {
		for _, v := range g.Vars {
			env = append(env, k8sVar{Name: v.Name, Value: v.Placeholder()})
		}
	}
	return encodeYAML(struct {
		Env []k8sVar `yaml:"env"`
	}{Env: env})
}

var (
	sectionStyle = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// List renders a human-readable table per group
func List(s *Spec) string {
	var sb strings.Builder
	for _, g := range s.Groups {
		title := g.Section()
		if g.HasSecrets() {
			title += " (contains secrets)"
		}
		sb.WriteString(sectionStyle.Render(title) + "\n")
		sb.WriteString(strings.Repeat("=", len(g.Section())) + "\n")

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderColumn(false).
			BorderTop(false).
			BorderBottom(false).
			BorderLeft(false).
			BorderRight(false).
			Headers("Envar", "Code", "Type", "Default").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})

		for _, v := range g.Vars {
			name := v.Name
			if v.Secret {
				name += " (secret)"
			}
			def := ""
			if v.Default != nil {
				def = *v.Default
			}
			t.Row(name, codePath(g, v), FormatType(v), def)
		}

		sb.WriteString(t.String() + "\n\n")
	}
	return sb.String()
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// valueNode encodes the typed default, or a quoted type placeholder
func valueNode(v Var) (*yaml.Node, error) {
	if v.Default == nil {
		return stringNode(v.Placeholder()), nil
	}
	node := &yaml.Node{}
	if err := node.Encode(typedDefault(v)); err != nil {
		return nil, fmt.Errorf("encoding default of %s: %w", v.Name, err)
	}
	return node, nil
}

func encodeYAML(v any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding YAML: %w", err)
	}
	return buf.String(), nil
}
