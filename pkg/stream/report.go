package stream

import "strings"

// NoOutputPlaceholder is shown in place of an empty error report.
const NoOutputPlaceholder = "(no output)"

// Aggregator accumulates every line of a job for the error report. Use a
// fresh one per job.
type Aggregator struct {
	b strings.Builder
}

// Add appends line and a newline.
func (a *Aggregator) Add(line string) {
	a.b.WriteString(line)
	a.b.WriteByte('\n')
}

// Report returns the buffer with blank lines removed and trailing whitespace
// trimmed from each line, joined by newlines.
func (a *Aggregator) Report() string {
	return CompactReport(a.b.String())
}

// CompactReport applies the report formatting to arbitrary text.
func CompactReport(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t\r\v\f"))
	}
	return strings.Join(kept, "\n")
}

// PresentReport returns report, or the placeholder when it is empty.
func PresentReport(report string) string {
	if report == "" {
		return NoOutputPlaceholder
	}
	return report
}
