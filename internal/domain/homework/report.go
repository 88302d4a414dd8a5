package homework

// ReportKey names the single slot a Report occupies.
type ReportKey string

const (
	ReportKeyVerdict ReportKey = "verdict"
	ReportKeyError   ReportKey = "error"
)

// Report is the last observed state: a verdict, an error, or nothing.
// Reports are compared with == to decide whether a notification is due.
type Report struct {
	Key  ReportKey
	Text string
}

func VerdictReport(text string) Report { return Report{Key: ReportKeyVerdict, Text: text} }

func ErrorReport(text string) Report { return Report{Key: ReportKeyError, Text: text} }

// IsEmpty reports whether r holds no entry.
func (r Report) IsEmpty() bool { return r == Report{} }
