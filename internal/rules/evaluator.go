package rules

// Evaluate reports whether cond matches the given profile inputs. It is a
// pure, total function: malformed or unknown condition shapes evaluate to
// false, and absent or non-numeric fields never match a comparison.
func Evaluate(cond *Condition, inputs map[string]any) bool {
	if cond == nil {
		return true
	}
	switch cond.Kind {
	case KindAlways:
		return cond.Always
	case KindEq:
		for field, want := range cond.Fields {
			got, ok := inputs[field]
			if !ok || !literalEquals(got, want) {
				return false
			}
		}
		return true
	case KindAll:
		for i := range cond.Children {
			if !Evaluate(&cond.Children[i], inputs) {
				return false
			}
		}
		return true
	case KindAny:
		for i := range cond.Children {
			if Evaluate(&cond.Children[i], inputs) {
				return true
			}
		}
		return false
	case KindNot:
		return !Evaluate(cond.Child, inputs)
	case KindGte, KindGt, KindLte, KindLt:
		for field, bound := range cond.Bounds {
			got, ok := numericInput(inputs, field)
			if !ok || !compare(cond.Kind, got, bound) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// literalEquals compares a profile value against a rule literal without type
// coercion across kinds: true never equals "true". Numeric values compare by
// magnitude since JSON literals always decode to float64.
func literalEquals(got, want any) bool {
	switch w := want.(type) {
	case bool:
		g, ok := got.(bool)
		return ok && g == w
	case string:
		g, ok := got.(string)
		return ok && g == w
	case nil:
		return got == nil
	default:
		wf, wok := toFloat(want)
		gf, gok := toFloat(got)
		return wok && gok && gf == wf
	}
}

func compare(kind ConditionKind, got, bound float64) bool {
	switch kind {
	case KindGte:
		return got >= bound
	case KindGt:
		return got > bound
	case KindLte:
		return got <= bound
	case KindLt:
		return got < bound
	default:
		return false
	}
}

func numericInput(inputs map[string]any, field string) (float64, bool) {
	v, ok := inputs[field]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
