package homework

// Status is the review state reported by the homework API.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// verdicts holds the sentence sent to the user for each known status.
var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the fixed sentence for s and whether s is known.
func (s Status) Verdict() (string, bool) {
	v, ok := verdicts[s]
	return v, ok
}

// Homework is a single submission as returned in the "homeworks" list.
type Homework struct {
	Name   string
	Status Status
}

// Response is the normalized API payload.
type Response struct {
	Homeworks []any
	// CurrentDate is nil when the server did not return a usable cursor.
	CurrentDate *int64
}
