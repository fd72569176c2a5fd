package model

// User is a calendar user as known to the data source. Events reference
// their creator by user id.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}
