package models

import "time"

// Like is a directed interest edge. The (FromUser, ToUser) pair is unique.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	FromUser  int64     `json:"from_user" gorm:"not null;uniqueIndex:idx_likes_pair"`
	ToUser    int64     `json:"to_user" gorm:"not null;uniqueIndex:idx_likes_pair;index"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeInboxEntry records that FromUser liked ToUser and whether ToUser has
// reviewed it. The (ToUser, FromUser) pair is unique.
type LikeInboxEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ToUser    int64     `json:"to_user" gorm:"not null;uniqueIndex:idx_likes_inbox_pair"`
	FromUser  int64     `json:"from_user" gorm:"not null;uniqueIndex:idx_likes_inbox_pair"`
	Seen      bool      `json:"seen" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (LikeInboxEntry) TableName() string {
	return "likes_inbox"
}

// ViewEvent is an append-only audit row written each time a candidate is shown.
type ViewEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ViewerID  int64     `json:"viewer_id" gorm:"not null;index"`
	ViewedID  int64     `json:"viewed_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (ViewEvent) TableName() string {
	return "views"
}
