package models

// Filter returns the events eligible for publication. With includePrivate the
// input is returned unchanged, otherwise only public events are kept in their
// original order.
func Filter(events []Event, includePrivate bool) []Event {
	if includePrivate {
		return events
	}
	public := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Public {
			public = append(public, e)
		}
	}
	return public
}
