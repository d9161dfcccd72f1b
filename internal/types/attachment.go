package types

import "time"

type Attachment struct {
	ID          string    `json:"id"                 yaml:"id"`
	RecordID    string    `json:"record_id"          yaml:"record_id"`
	Filename    string    `json:"filename"           yaml:"filename"`
	ContentType string    `json:"content_type"       yaml:"content_type"`
	Size        int64     `json:"size"               yaml:"size"`
	Checksum    string    `json:"checksum"           yaml:"checksum"`
	Location    string    `json:"location,omitempty" yaml:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"         yaml:"created_at"`
}

func (a *Attachment) Clone() *Attachment {
	if a == nil {
		return nil
	}
	copy := *a
	return &copy
}
