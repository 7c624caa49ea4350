package macro

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/loomrun/loom/pkg/graph"
	"github.com/loomrun/loom/pkg/port"
	"github.com/loomrun/loom/pkg/registry"
)

// ConditionType enumerates Conditional's comparison kinds, matching
// nodes.py's _ConditionType values exactly (same wire-format strings).
type ConditionType string

const (
	ConditionEqual        ConditionType = "EQUAL"
	ConditionNotEqual     ConditionType = "NOT_EQUAL"
	ConditionContains     ConditionType = "CONTAINS"
	ConditionNotContains  ConditionType = "NOT_CONTAINS"
	ConditionRegexMatches ConditionType = "REGEX_MATCHES"
	ConditionExists       ConditionType = "EXISTS"
	ConditionNotExists    ConditionType = "NOT_EXISTS"
)

type conditionalConfig struct {
	Condition struct {
		Type ConditionType `mapstructure:"type"`
	} `mapstructure:"condition"`
	LeftOperand  *InputValueConfig `mapstructure:"leftOperand"`
	RightOperand *InputValueConfig `mapstructure:"rightOperand"`
}

// NewConditional builds the Conditional macro: it evaluates leftOperand
// against rightOperand per the configured ConditionType and routes the
// left operand to the "true" or "false" output, grounded on nodes.py's
// Conditional (same condition taxonomy, same operand static/dynamic
// split, read from the type of each operand's macroData entry).
func NewConditional(args registry.LeafArgs) (graph.Node, error) {
	var cfg conditionalConfig
	if err := decodeMacroData(args.MacroData, &cfg); err != nil {
		return nil, fmt.Errorf("macro Conditional %s: %w", args.ID, err)
	}
	if cfg.Condition.Type == "" {
		return nil, fmt.Errorf("macro Conditional %s: missing 'condition.type' in macroData", args.ID)
	}

	left := dynamicOrStatic(args.ID+".leftOperand", cfg.LeftOperand)
	right := dynamicOrStatic(args.ID+".rightOperand", cfg.RightOperand)
	trueOut := port.NewOutput(args.ID+".true", "condition true", port.AnyType, port.ModeRef)
	falseOut := port.NewOutput(args.ID+".false", "condition false", port.AnyType, port.ModeRef)

	return graph.NewComponent(args.ID, "Conditional", args.DisplayName,
		[]string{"leftOperand", "rightOperand"},
		map[string]*port.Input{"leftOperand": left, "rightOperand": right},
		map[string]*port.Output{"true": trueOut, "false": falseOut},
		func(ctx context.Context, c *graph.Component, in map[string]port.Value) (graph.ProcessOutcome, error) {
			l, r := in["leftOperand"], in["rightOperand"]
			ok, err := evaluateCondition(cfg.Condition.Type, l, r)
			if err != nil {
				return graph.None, err
			}
			if ok {
				return graph.Emit(map[string]port.Value{"true": l}), nil
			}
			return graph.Emit(map[string]port.Value{"false": l}), nil
		},
	), nil
}

func evaluateCondition(kind ConditionType, left, right port.Value) (bool, error) {
	switch kind {
	case ConditionEqual:
		return reflect.DeepEqual(left, right), nil
	case ConditionNotEqual:
		return !reflect.DeepEqual(left, right), nil
	case ConditionContains:
		return containsValue(left, right)
	case ConditionNotContains:
		ok, err := containsValue(left, right)
		return !ok, err
	case ConditionRegexMatches:
		pattern, ok := right.(string)
		if !ok {
			return false, fmt.Errorf("conditional REGEX_MATCHES: rightOperand must be a string pattern")
		}
		text, ok := left.(string)
		if !ok {
			return false, fmt.Errorf("conditional REGEX_MATCHES: leftOperand must be a string")
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("conditional REGEX_MATCHES: %w", err)
		}
		loc := re.FindStringIndex(text)
		return loc != nil && loc[0] == 0, nil // re.match anchors at position 0
	case ConditionExists:
		return isPresent(left), nil
	case ConditionNotExists:
		return !isPresent(left), nil
	default:
		return false, fmt.Errorf("unsupported condition type: %s", kind)
	}
}

// containsValue reports whether right appears in left, where left is a
// string or a slice (nodes.py's "right_operand in left_operand").
func containsValue(left, right port.Value) (bool, error) {
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		if !ok {
			return false, fmt.Errorf("conditional CONTAINS: rightOperand must be a string when leftOperand is a string")
		}
		return strings.Contains(l, r), nil
	default:
		rv := reflect.ValueOf(left)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false, fmt.Errorf("conditional CONTAINS: leftOperand must be a string or list")
		}
		for i := 0; i < rv.Len(); i++ {
			if reflect.DeepEqual(rv.Index(i).Interface(), right) {
				return true, nil
			}
		}
		return false, nil
	}
}

// isPresent mirrors nodes.py's EXISTS test: not None, not "", not [].
func isPresent(v port.Value) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len() != 0
	}
	return true
}
