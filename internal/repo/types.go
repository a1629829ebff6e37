package repo

import "time"

// Client is a registered participant. Logged is a liveness flag for push
// delivery, not an authentication state: it is cleared when a delivery
// attempt fails and set when the client authenticates or connects.
type Client struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
	Logged    bool   `json:"logged"`
}

// Survey is a poll with an ordered option set. Closed is monotonic: once
// true it never reverts, and only CloseSurvey writes it.
type Survey struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"createdBy"`
	Location  string    `json:"location"`
	DueDate   time.Time `json:"dueDate"`
	Closed    bool      `json:"closed"`
	Options   []string  `json:"options"`
}

// HasOption reports whether option is one of the survey's declared options.
func (s Survey) HasOption(option string) bool {
	for _, o := range s.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Vote records one client's choice on one survey. Immutable once written;
// the (ClientID, SurveyID) pair is unique.
type Vote struct {
	ClientID string `json:"clientId"`
	SurveyID string `json:"surveyId"`
	Option   string `json:"option"`
}
