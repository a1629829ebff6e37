package repo

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - cl/{clientID}
// - sv/{surveyID}
// - vt/{surveyID}/{clientID}

var (
	sep          = byte('/')
	clientPrefix = []byte("cl/")
	surveyPrefix = []byte("sv/")
	votePrefix   = []byte("vt/")
)

// keyClient builds the client document key.
func keyClient(clientID string) []byte {
	k := make([]byte, 0, len(clientPrefix)+len(clientID))
	k = append(k, clientPrefix...)
	k = append(k, clientID...)
	return k
}

// keySurvey builds the survey document key.
func keySurvey(surveyID string) []byte {
	k := make([]byte, 0, len(surveyPrefix)+len(surveyID))
	k = append(k, surveyPrefix...)
	k = append(k, surveyID...)
	return k
}

// keyVote builds the vote document key for a (survey, client) pair.
func keyVote(surveyID, clientID string) []byte {
	k := make([]byte, 0, len(votePrefix)+len(surveyID)+1+len(clientID))
	k = append(k, votePrefix...)
	k = append(k, surveyID...)
	k = append(k, sep)
	k = append(k, clientID...)
	return k
}

// keyVoteScan builds the prefix covering every vote of a survey.
func keyVoteScan(surveyID string) []byte {
	k := make([]byte, 0, len(votePrefix)+len(surveyID)+1)
	k = append(k, votePrefix...)
	k = append(k, surveyID...)
	k = append(k, sep)
	return k
}
