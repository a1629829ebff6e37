package surveysvc

import (
	"time"

	"github.com/rzbill/canvass/internal/repo"
)

// View is the outbound representation of a survey. DueDate is rendered as a
// string and CreatedBy may carry a resolved display name instead of an id.
type View struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	CreatedBy string   `json:"createdBy"`
	Location  string   `json:"location"`
	DueDate   string   `json:"dueDate"`
	Closed    bool     `json:"closed"`
	Options   []string `json:"options"`
}

func viewOf(s repo.Survey, createdBy string) View {
	return View{
		ID:        s.ID,
		Title:     s.Title,
		CreatedBy: createdBy,
		Location:  s.Location,
		DueDate:   s.DueDate.Format(time.RFC3339),
		Closed:    s.Closed,
		Options:   s.Options,
	}
}

// Tally is the consult view: the survey plus, for each option, the display
// names of the clients that chose it.
type Tally struct {
	View
	Votes map[string][]string `json:"votes"`
}

// CreateInput is the survey creation request.
type CreateInput struct {
	Title    string
	Location string
	DueDate  time.Time
	Options  []string
}

// VoteStatus is the distinguishable-but-non-fatal outcome of a vote.
type VoteStatus string

const (
	// VoteStatusOK means the vote was recorded.
	VoteStatusOK VoteStatus = "ok"
	// VoteStatusAlreadyVoted means this client had already voted; nothing
	// changed. Same response shape as success, different status text.
	VoteStatusAlreadyVoted VoteStatus = "already voted"
)
