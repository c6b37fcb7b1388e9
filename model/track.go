package model

import "time"

// Track represents one playable audio item in the catalog.
type Track struct {
	ID              string    `json:"id" gorm:"primaryKey;size:64"`
	Title           string    `json:"title" gorm:"size:255;not null"`
	Artist          string    `json:"artist" gorm:"size:255"` // display string, possibly comma-joined
	Album           string    `json:"album,omitempty" gorm:"size:255"`
	DurationSeconds float64   `json:"durationSeconds,omitempty"` // 0 when unknown until the element reports it
	CoverURL        string    `json:"coverUrl,omitempty" gorm:"column:cover_url;size:512"`
	AudioURL        string    `json:"audioUrl,omitempty" gorm:"column:audio_url;size:512"` // empty means not playable
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// TableName 指定表名
func (Track) TableName() string {
	return "tracks"
}

// Playable reports whether the track carries a media reference.
func (t *Track) Playable() bool {
	return t != nil && t.AudioURL != ""
}
