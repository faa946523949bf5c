package model

type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FilePath  string    `json:"file_path"`
	FileType  string    `json:"file_type"`
	ClassID   string    `json:"class_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"-"`
	Embedding []float32 `json:"-"`
	PageCount int       `json:"page_count,omitempty"`
	Ctime     int64     `json:"ctime"`
}
