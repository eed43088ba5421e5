package models

// State is everything a device persists locally.
type State struct {
	Records  RecordSet `json:"records"`
	Events   EventLog  `json:"events"`
	Badges   BadgeSet  `json:"badges"`
	Settings Settings  `json:"settings"`
}

// RemoteState holds the documents fetched from the remote store. A nil field
// means the document was absent and takes no part in the merge.
type RemoteState struct {
	Records  *RecordSet
	Events   EventLog
	Badges   BadgeSet
	Settings *Settings
}
