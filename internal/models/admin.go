package models

import "time"

const DefaultComplaintReason = "user complaint"

type Complaint struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ReporterID int64     `json:"reporter_id" gorm:"not null;index"`
	ReportedID int64     `json:"reported_id" gorm:"not null;index"`
	Reason     string    `json:"reason" gorm:"not null;default:'user complaint'"`
	CreatedAt  time.Time `json:"created_at"`
}

// AppSetting is a process-wide key/value setting shared by all instances.
type AppSetting struct {
	Key   string `json:"key" gorm:"primaryKey"`
	Value string `json:"value" gorm:"not null"`
}

type Stats struct {
	TotalProfiles   int64     `json:"total_profiles"`
	BlockedProfiles int64     `json:"blocked_profiles"`
	VIPProfiles     int64     `json:"vip_profiles"`
	TotalLikes      int64     `json:"total_likes"`
	ViewsToday      int64     `json:"views_today"`
	TotalComplaints int64     `json:"total_complaints"`
	PaidPayments    int64     `json:"paid_payments"`
	Date            time.Time `json:"date"`
}
