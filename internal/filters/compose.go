package filters

// CurrentRelative is the relative filter injected when an agenda only shows
// current and upcoming events.
var CurrentRelative = List("current", "upcoming")

// Options tunes Compose.
type Options struct {
	// InitialLoad makes pre-filters override visitor values. On later,
	// filter-driven requests pre-filters only fill keys the visitor left unset.
	InitialLoad bool
	// Current injects relative=[current, upcoming] as a pre-filter.
	Current bool
}

// Compose merges request filters with agenda pre-filters. Presence is judged
// on root keys, so a visitor date range replaces the whole editor date range.
// An explicit timings filter always removes the relative toggle. Inputs are
// never mutated.
func Compose(request, pre Set, opts Options) Set {
	working := WithoutReserved(StripPagination(request))

	defaults := pre.Clone()
	if opts.Current {
		defaults.Put(RelativeKey, CurrentRelative)
	}

	if opts.InitialLoad {
		for _, root := range defaults.Roots() {
			working.DeleteRoot(root)
		}
		for key, value := range defaults {
			working.Put(key, value)
		}
	} else {
		present := map[string]bool{}
		for _, root := range working.Roots() {
			present[root] = true
		}
		for key, value := range defaults {
			if !present[Root(key)] {
				working.Put(key, value)
			}
		}
	}

	if working.HasRoot(TimingsKey) {
		working.DeleteRoot(RelativeKey)
	}
	return working
}
