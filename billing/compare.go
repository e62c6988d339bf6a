package billing

import "cmp"

// Compare orders events by subscription, then effective date. On the same
// date a START_BILLING_DISABLED marker sorts first and an
// END_BILLING_DISABLED marker second, so a real transition effective on the
// day billing resumes is applied after the restored state. Remaining ties
// fall back to TotalOrdering.
func Compare(a, b *Event) int {
	if c := a.subscriptionID.Compare(b.subscriptionID); c != 0 {
		return c
	}
	if c := a.effectiveDate.Compare(b.effectiveDate); c != 0 {
		return c
	}
	if c := cmp.Compare(rank(a), rank(b)); c != 0 {
		return c
	}
	return cmp.Compare(a.totalOrdering, b.totalOrdering)
}

// rank is the same-date position of an event's kind.
func rank(e *Event) int {
	switch {
	case e.IsDisableMarker():
		return 0
	case e.IsEnableMarker():
		return 1
	}
	return 2
}
