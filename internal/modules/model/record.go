package model

import "time"

// SentinelNoIPFS marks a record whose image has not been mirrored to IPFS yet.
const SentinelNoIPFS = "NO_IPFS"

// Record is the write-side row for one ingested artwork.
type Record struct {
	ID           int32      `gorm:"primaryKey;autoIncrement" json:"id"`
	Image        string     `gorm:"not null" json:"image"`
	IpfsImageURL string     `gorm:"column:ipfs_image_url;not null" json:"ipfs_image_url"`
	Category     *string    `json:"category"`
	Width        int32      `gorm:"not null;default:0" json:"width"`
	Height       int32      `gorm:"not null;default:0" json:"height"`
	Prompt       *string    `json:"prompt"`
	HashID       string     `gorm:"column:hash_id;not null" json:"hash_id"`
	TimeCreated  *time.Time `gorm:"autoCreateTime" json:"time_created"`
	UpdatedDate  *time.Time `gorm:"autoUpdateTime" json:"updated_date"`
}

func (Record) TableName() string { return "ipfs_image" }

// Projection is the read-side view exposed to callers. Timestamps are
// RFC3339 strings; absent timestamps stay absent rather than "".
type Projection struct {
	ID           int32   `json:"id"`
	Image        string  `json:"image"`
	IpfsImageURL string  `json:"ipfs_image_url"`
	Category     *string `json:"category"`
	Created      *string `json:"created,omitempty"`
	UpdatedDate  *string `json:"updated_date,omitempty"`
}

// Project maps a stored record onto its read view.
func (r *Record) Project() Projection {
	return Projection{
		ID:           r.ID,
		Image:        r.Image,
		IpfsImageURL: r.IpfsImageURL,
		Category:     r.Category,
		Created:      timeToRFC3339(r.TimeCreated),
		UpdatedDate:  timeToRFC3339(r.UpdatedDate),
	}
}

func timeToRFC3339(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339Nano)
	return &s
}
