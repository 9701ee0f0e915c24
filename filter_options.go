package soundbite

// DefaultPageSize is the page size used when a list request supplies none.
const DefaultPageSize = 20

// ListOptions constrain a post listing. Filters combine conjunctively.
// Usernames and favorites are resolved by the service before the store sees
// them, so stores only deal in exact-match terms.
type ListOptions struct {
	Tag     string   // Only posts whose tagList contains this tag
	Authors []string // Only posts authored by any of these usernames
	Slugs   []string // Only posts whose slug is in this set (nil means no constraint)
	Limit   int      // Page size
	Offset  int      // Number of posts to skip
}

// Normalize fills in paging defaults and clamps negative offsets.
func (o *ListOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = DefaultPageSize
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
