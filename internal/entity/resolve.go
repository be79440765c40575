package entity

// Resolve scans items for the first record whose key equals key. The
// boolean is false when nothing matches.
func Resolve[T Record](key string, items []T) (T, bool) {
	for _, item := range items {
		if item.Key() == key {
			return item, true
		}
	}
	var zero T
	return zero, false
}
