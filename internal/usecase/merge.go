package usecase

// Merge appends the incoming records whose natural key is not already present.
// Existing records keep their order and are never removed; survivors keep
// their incoming order. Duplicates inside incoming collapse to the first one.
// added is the number of records appended.
func Merge[T any](existing, incoming []T, keyFn func(T) string) (merged []T, added int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged = make([]T, 0, len(existing)+len(incoming))
	for _, item := range existing {
		seen[keyFn(item)] = struct{}{}
		merged = append(merged, item)
	}

	for _, item := range incoming {
		key := keyFn(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, item)
		added++
	}
	return merged, added
}

// countSurviving reports how many of records are still present in saved, by
// natural key. An emergency trim may drop records that were just appended.
func countSurviving[T any](records, saved []T, keyFn func(T) string) int {
	if len(records) == 0 {
		return 0
	}
	keys := make(map[string]struct{}, len(saved))
	for _, item := range saved {
		keys[keyFn(item)] = struct{}{}
	}
	n := 0
	for _, item := range records {
		if _, ok := keys[keyFn(item)]; ok {
			n++
		}
	}
	return n
}
