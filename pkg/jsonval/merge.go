package jsonval

// Merge combines a real response value with a supplemental mock value
// using the response-enhancement rules:
//
//   - object ⊕ object: shallow merge, supplemental entries override real
//     entries on key collision.
//   - array ⊕ object carrying an "items" array: supplemental items are
//     appended after the real items, preserving order.
//
// Any other shape combination is not mergeable; the second result is
// false and the returned value is the real value unchanged.
func Merge(real, supplemental Value) (Value, bool) {
	switch {
	case real.Kind == KindObject && supplemental.Kind == KindObject:
		merged := make(map[string]Value, len(real.Object)+len(supplemental.Object))
		for k, v := range real.Object {
			merged[k] = v
		}
		for k, v := range supplemental.Object {
			merged[k] = v
		}
		return Object(merged), true

	case real.Kind == KindArray && supplemental.Kind == KindObject:
		items, ok := supplemental.Field("items")
		if !ok || items.Kind != KindArray {
			return real, false
		}
		combined := make([]Value, 0, len(real.Array)+len(items.Array))
		combined = append(combined, real.Array...)
		combined = append(combined, items.Array...)
		return Array(combined), true

	default:
		return real, false
	}
}
