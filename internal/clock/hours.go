package clock

// Grace widens a shop's hours so keepers arrive before opening and linger
// after closing.
type Grace struct {
	Before int `yaml:"before"` // Minutes before opening
	After  int `yaml:"after"`  // Minutes after closing
}

// InWindow reports whether now falls in the circular window open ≤ now < close.
// Windows wrap past midnight when close < open. An empty window
// (open == close) is never open.
func InWindow(now, open, close int) bool {
	now, open, close = Normalize(now), Normalize(open), Normalize(close)
	if open == close {
		return false
	}
	if open < close {
		return now >= open && now < close
	}
	return now >= open || now < close
}

// OpenWithGrace reports whether a shop with the given hours should be
// staffed at now. A shop that is never open gets no grace either.
func OpenWithGrace(now, open, close int, g Grace) bool {
	if Normalize(open) == Normalize(close) {
		return false
	}
	span := Normalize(close-open) + g.Before + g.After
	if span >= MinutesPerDay {
		return true
	}
	return InWindow(now, open-g.Before, close+g.After)
}
