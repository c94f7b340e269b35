package rules

import (
	"fmt"
	"os"

	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/reducer"
	"github.com/aretw0/foldtable/pkg/table"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definition is a parsed rule file.
type Definition struct {
	Name    string
	Glue    string
	Strict  bool
	Initial domain.Document
	Rules   []Rule
}

// Rule is one handler definition: either a list of steps or a group of rules.
type Rule struct {
	Key      string
	Steps    []Step
	Children []Rule
	Group    bool
	// Null marks a handler declared without a body ("key: ~").
	Null bool
}

// Step is a single operation applied to the state.
type Step struct {
	Op      string  `mapstructure:"op"`
	Path    string  `mapstructure:"path"`
	Value   any     `mapstructure:"value"`
	From    string  `mapstructure:"from"`
	By      float64 `mapstructure:"by"`
	Message string  `mapstructure:"message"`
}

type header struct {
	Name   string `yaml:"name"`
	Glue   string `yaml:"glue"`
	Strict bool   `yaml:"strict"`
}

// Load reads and parses a rule file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a rule document.
func Parse(data []byte) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("rules document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rules document must be a mapping")
	}

	var h header
	if err := root.Decode(&h); err != nil {
		return nil, fmt.Errorf("invalid rules header: %w", err)
	}
	def := &Definition{
		Name:    h.Name,
		Glue:    h.Glue,
		Strict:  h.Strict,
		Initial: domain.Document{},
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "initial":
			if isNull(value) {
				continue
			}
			var initial map[string]any
			if err := value.Decode(&initial); err != nil {
				return nil, fmt.Errorf("invalid initial state: %w", err)
			}
			def.Initial = domain.Document(initial)
		case "handlers":
			rules, err := parseRules(value)
			if err != nil {
				return nil, err
			}
			def.Rules = rules
		}
	}

	return def, nil
}

func parseRules(node *yaml.Node) ([]Rule, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: handlers must be a mapping", node.Line)
	}

	var rules []Rule
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		rule, err := parseRule(key, value)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseRule(key string, node *yaml.Node) (Rule, error) {
	switch {
	case isNull(node):
		return Rule{Key: key, Null: true}, nil
	case node.Kind == yaml.SequenceNode:
		steps, err := parseSteps(node)
		if err != nil {
			return Rule{}, fmt.Errorf("handler %q: %w", key, err)
		}
		return Rule{Key: key, Steps: steps}, nil
	case node.Kind == yaml.MappingNode:
		children, err := parseRules(node)
		if err != nil {
			return Rule{}, fmt.Errorf("group %q: %w", key, err)
		}
		return Rule{Key: key, Children: children, Group: true}, nil
	default:
		return Rule{}, fmt.Errorf("line %d: handler %q must be a list of steps or a group", node.Line, key)
	}
}

func parseSteps(node *yaml.Node) ([]Step, error) {
	steps := make([]Step, 0, len(node.Content))
	for i, item := range node.Content {
		var raw map[string]any
		if err := item.Decode(&raw); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		var step Step
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &step,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// Entries compiles the rules into table entries.
func (d *Definition) Entries() []table.Entry[domain.Document, domain.Record] {
	return compileRules(d.Rules)
}

func compileRules(rules []Rule) []table.Entry[domain.Document, domain.Record] {
	entries := make([]table.Entry[domain.Document, domain.Record], 0, len(rules))
	for _, r := range rules {
		switch {
		case r.Group:
			entries = append(entries, table.Group(r.Key, compileRules(r.Children)...))
		case r.Null:
			entries = append(entries, table.On[domain.Document, domain.Record](r.Key, nil))
		default:
			entries = append(entries, table.On(r.Key, compileSteps(r.Steps)))
		}
	}
	return entries
}

// Reducer builds a reducer from the definition. Options given here override
// the glue and strict settings of the file.
func (d *Definition) Reducer(opts ...reducer.Option) (*reducer.Reducer[domain.Document, domain.Record], error) {
	all := []reducer.Option{
		reducer.WithGlue(d.Glue),
		reducer.WithStrict(d.Strict),
	}
	all = append(all, opts...)

	r, err := reducer.New(d.Initial.Clone(), d.Entries(), all...)
	if err != nil {
		return nil, fmt.Errorf("failed to build reducer %q: %w", d.Name, err)
	}
	return r, nil
}
