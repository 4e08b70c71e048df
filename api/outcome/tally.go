package outcome

import "fmt"

// Tally holds issue counts per recognised severity
type Tally struct {
	Errors   int `json:"errorCount"`
	Warnings int `json:"warningCount"`
	Info     int `json:"infoCount"`
}

// Count tallies the issues of o in a single pass.
// Severities are matched exactly; fatal and unknown values are not counted.
func Count(o *Outcome) Tally {
	var t Tally
	if o == nil {
		return t
	}
	for _, issue := range o.Issue {
		switch issue.Severity {
		case SeverityError:
			t.Errors++
		case SeverityWarning:
			t.Warnings++
		case SeverityInformation:
			t.Info++
		}
	}
	return t
}

// Total returns the sum of the three counts
func (t Tally) Total() int {
	return t.Errors + t.Warnings + t.Info
}

func (t Tally) String() string {
	return fmt.Sprintf("%d errors, %d warnings, %d info", t.Errors, t.Warnings, t.Info)
}
