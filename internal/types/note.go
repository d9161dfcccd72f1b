package types

import "time"

// Note is a persisted title and description attached to a parent record.
// UpdatedAt is owned by the store and doubles as the last modified time.
type Note struct {
	ID          string    `json:"id"                  yaml:"id"`
	RecordID    string    `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Title       string    `json:"title"               yaml:"title"`
	Description string    `json:"description"         yaml:"description"`
	CreatedAt   time.Time `json:"created_at"          yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"          yaml:"updated_at"`
}

func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	copy := *n
	return &copy
}
