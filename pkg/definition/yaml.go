package definition

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/step"
)

// stringList accepts a single string or a sequence of strings.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
}

// ruleDoc accepts a bare validator name or a full rule mapping.
type ruleDoc step.Rule

func (r *ruleDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*r = ruleDoc{Type: node.Value}
		return nil
	}
	var rule step.Rule
	if err := node.Decode(&rule); err != nil {
		return err
	}
	if rule.Type == "" {
		return fmt.Errorf("line %d: validator type is required", node.Line)
	}
	*r = ruleDoc(rule)
	return nil
}

// rules accepts a single rule or a list of rules.
type rules []ruleDoc

func (rs *rules) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var out []ruleDoc
		if err := node.Decode(&out); err != nil {
			return err
		}
		*rs = out
		return nil
	}
	var single ruleDoc
	if err := single.UnmarshalYAML(node); err != nil {
		return err
	}
	*rs = rules{single}
	return nil
}
