package models

// ProfilePhoto keeps the S3 locations of one uploaded image. The card
// crop is what the discover deck renders, the thumbnail what lists use.
type ProfilePhoto struct {
	Model
	UserID       uint   `json:"user_id" gorm:"not null;index"`
	URL          string `json:"url"`
	ThumbNailURL string `json:"thumbnail_url"`
	Position     int    `json:"position" gorm:"default:0"`
}
