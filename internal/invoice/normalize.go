package invoice

import "github.com/dmodern/invoice-etl/internal/schema"

// Reconcile reshapes an arbitrary decoded document so that it exactly
// matches the given schema node. Extraction backends return best-effort
// JSON: fields go missing, objects come back as strings, arrays as
// scalars. Rather than have every consumer guard each access, this one
// pass guarantees the full declared shape: every schema property is
// present at every level, in schema order, and nothing undeclared
// survives.
//
// Missing and wrong-shaped values degrade the same way: objects to a
// fully-shaped object of nulls, arrays to an empty sequence, leaves to
// null. Leaf values that are present pass through untouched, whatever
// their type. The input is never mutated; Reconcile is pure and safe for
// concurrent use.
func Reconcile(value any, node *schema.Node) any {
	switch node.Kind {
	case schema.KindObject:
		return reconcileObject(value, node)
	case schema.KindArray:
		return reconcileArray(value, node)
	default:
		return value
	}
}

func reconcileObject(value any, node *schema.Node) *Object {
	lookup, _ := asMapping(value)
	out := NewObject()
	for _, p := range node.Properties {
		var v any
		present := false
		if lookup != nil {
			v, present = lookup(p.Name)
		}
		if !present {
			out.Set(p.Name, Reconcile(nil, p.Schema))
			continue
		}
		switch p.Schema.Kind {
		case schema.KindObject:
			if _, ok := asMapping(v); ok {
				out.Set(p.Name, Reconcile(v, p.Schema))
			} else {
				// wrong structural type: discard, keep the shape
				out.Set(p.Name, Reconcile(nil, p.Schema))
			}
		case schema.KindArray:
			if _, ok := asSequence(v); ok {
				out.Set(p.Name, Reconcile(v, p.Schema))
			} else {
				out.Set(p.Name, []any{})
			}
		default:
			out.Set(p.Name, v)
		}
	}
	return out
}

func reconcileArray(value any, node *schema.Node) []any {
	seq, ok := asSequence(value)
	if !ok {
		// arrays are never back-filled with placeholder elements
		return []any{}
	}
	out := make([]any, 0, len(seq))
	for _, elem := range seq {
		if _, ok := asMapping(elem); ok {
			out = append(out, Reconcile(elem, node.Items))
		} else {
			out = append(out, elem)
		}
	}
	return out
}
