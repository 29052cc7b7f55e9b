package rules

import (
	"encoding/json"
	"fmt"
)

// ConditionKind identifies one variant of the condition tree.
type ConditionKind string

const (
	KindAlways  ConditionKind = "always"
	KindEq      ConditionKind = "eq"
	KindAll     ConditionKind = "all"
	KindAny     ConditionKind = "any"
	KindNot     ConditionKind = "not"
	KindGte     ConditionKind = "gte"
	KindGt      ConditionKind = "gt"
	KindLte     ConditionKind = "lte"
	KindLt      ConditionKind = "lt"
	KindUnknown ConditionKind = "unknown"
)

// Condition is the tagged union behind a rule's "when" block. Exactly one
// variant is populated, selected by Kind. A nil *Condition matches everything.
type Condition struct {
	Kind ConditionKind

	Always   bool               // always
	Fields   map[string]any     // eq: field -> expected literal
	Bounds   map[string]float64 // gte/gt/lte/lt: field -> threshold
	Children []Condition        // all / any
	Child    *Condition         // not

	// unknownKey preserves the unrecognized tag for error reporting.
	unknownKey string
}

var comparisonKinds = map[string]ConditionKind{
	"gte": KindGte,
	"gt":  KindGt,
	"lte": KindLte,
	"lt":  KindLt,
}

// UnmarshalJSON decodes the single-key object form used in rule documents,
// e.g. {"eq": {"floors": 2}} or {"any": [...]}. Unrecognized tags decode to
// KindUnknown rather than failing, so the store can report them with context.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("condition must be an object: %w", err)
	}
	if len(raw) == 0 {
		*c = Condition{Kind: KindAlways, Always: true}
		return nil
	}

	if msg, ok := raw["always"]; ok {
		var v bool
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("always: expected boolean: %w", err)
		}
		*c = Condition{Kind: KindAlways, Always: v}
		return nil
	}
	if msg, ok := raw["all"]; ok {
		children, err := decodeChildren(msg)
		if err != nil {
			return fmt.Errorf("all: %w", err)
		}
		*c = Condition{Kind: KindAll, Children: children}
		return nil
	}
	if msg, ok := raw["any"]; ok {
		children, err := decodeChildren(msg)
		if err != nil {
			return fmt.Errorf("any: %w", err)
		}
		*c = Condition{Kind: KindAny, Children: children}
		return nil
	}
	if msg, ok := raw["not"]; ok {
		child := &Condition{}
		if err := json.Unmarshal(msg, child); err != nil {
			return fmt.Errorf("not: %w", err)
		}
		*c = Condition{Kind: KindNot, Child: child}
		return nil
	}
	if msg, ok := raw["eq"]; ok {
		var fields map[string]any
		if err := json.Unmarshal(msg, &fields); err != nil {
			return fmt.Errorf("eq: expected field map: %w", err)
		}
		*c = Condition{Kind: KindEq, Fields: fields}
		return nil
	}
	for tag, kind := range comparisonKinds {
		msg, ok := raw[tag]
		if !ok {
			continue
		}
		var bounds map[string]float64
		if err := json.Unmarshal(msg, &bounds); err != nil {
			return fmt.Errorf("%s: expected numeric field map: %w", tag, err)
		}
		*c = Condition{Kind: kind, Bounds: bounds}
		return nil
	}

	var key string
	for k := range raw {
		key = k
		break
	}
	*c = Condition{Kind: KindUnknown, unknownKey: key}
	return nil
}

func decodeChildren(data []byte) ([]Condition, error) {
	var children []Condition
	if err := json.Unmarshal(data, &children); err != nil {
		return nil, fmt.Errorf("expected condition list: %w", err)
	}
	return children, nil
}

// Validate rejects condition shapes that would silently never match. The
// store calls this at load time so malformed documents fail eagerly instead
// of dropping rules at request time.
func (c *Condition) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case KindAlways:
		return nil
	case KindEq:
		if len(c.Fields) == 0 {
			return fmt.Errorf("eq: empty field map")
		}
		return nil
	case KindGte, KindGt, KindLte, KindLt:
		if len(c.Bounds) == 0 {
			return fmt.Errorf("%s: empty field map", c.Kind)
		}
		return nil
	case KindAll, KindAny:
		for i := range c.Children {
			if err := c.Children[i].Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", c.Kind, i, err)
			}
		}
		return nil
	case KindNot:
		if c.Child == nil {
			return fmt.Errorf("not: missing child condition")
		}
		return c.Child.Validate()
	default:
		return fmt.Errorf("unknown condition kind %q", c.unknownKey)
	}
}
