package model

type Class struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UserID      string `json:"user_id"`
	Ctime       int64  `json:"ctime"`
}
