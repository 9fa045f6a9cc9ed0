package event

import "sort"

func sortStable(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return Before(events[i], events[j])
	})
}
