package model

import "time"

// Video represents one playable video item in the catalog.
type Video struct {
	ID              string    `json:"id" gorm:"primaryKey;size:64"`
	Title           string    `json:"title" gorm:"size:255;not null"`
	Artist          string    `json:"artist" gorm:"size:255"`
	DurationSeconds float64   `json:"durationSeconds,omitempty"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty" gorm:"column:thumbnail_url;size:512"`
	VideoURL        string    `json:"videoUrl,omitempty" gorm:"column:video_url;size:512"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// TableName 指定表名
func (Video) TableName() string {
	return "videos"
}
