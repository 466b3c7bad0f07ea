package models

// Owner identifies the faculty member a visitor is working as.
// UserID is sent as user_id on inserts/updates; PFNo scopes the journal list.
type Owner struct {
	UserID string `json:"user_id"`
	PFNo   string `json:"pf_no"`
}
