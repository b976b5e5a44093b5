package registration

// Schedule windows per line.  These are a fixed lookup rather than request
// input so a tampered request cannot place a booking outside the published
// schedule.  Line 1 is the morning block, line 2 the afternoon block; any
// other line yields an empty window and the columns stay NULL.
const (
	morningStart   = "11:00:00"
	morningEnd     = "15:00:00"
	afternoonStart = "16:00:00"
	afternoonEnd   = "20:00:00"
)

// LineWindow returns the (start, end) time-of-day window for a schedule
// line as "HH:MM:SS" strings, or two empty strings for an unknown line.
func LineWindow(line int) (start, end string) {
	switch line {
	case 1:
		return morningStart, morningEnd
	case 2:
		return afternoonStart, afternoonEnd
	}
	return "", ""
}
