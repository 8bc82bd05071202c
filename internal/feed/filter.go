package feed

// WithoutSensitive returns a copy of items with sensitive-labelled
// posts removed, for viewers who opted out of adult content.
func WithoutSensitive(items []Item) []Item {
	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Sensitive {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}
