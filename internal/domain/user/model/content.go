package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;index"`
	VideoFile   string    `gorm:"not null"`
	Thumbnail   string    `gorm:"not null"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Duration    float64   `gorm:"not null"`
	Views       int64     `gorm:"not null;default:0"`
	IsPublished bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the attributes every stored video needs.
func (v Video) Validate() error {
	switch {
	case v.OwnerID == uuid.Nil:
		return errMissing("owner")
	case v.VideoFile == "":
		return errMissing("video file")
	case v.Thumbnail == "":
		return errMissing("thumbnail")
	case strings.TrimSpace(v.Title) == "":
		return errMissing("title")
	case v.Duration < 0:
		return fmt.Errorf("duration must not be negative")
	}
	return nil
}

type Playlist struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;index"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Normalize trims the name and description the way they are stored.
func (p *Playlist) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
}

func (p Playlist) Validate() error {
	switch {
	case p.OwnerID == uuid.Nil:
		return errMissing("owner")
	case strings.TrimSpace(p.Name) == "":
		return errMissing("name")
	}
	return nil
}

// PlaylistVideo links a playlist to a video it contains.
type PlaylistVideo struct {
	PlaylistID uuid.UUID `gorm:"type:uuid;primaryKey"`
	VideoID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position   int
}

// WatchHistoryEntry records that a user watched a video.
type WatchHistoryEntry struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	VideoID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	WatchedAt time.Time
}

func (WatchHistoryEntry) TableName() string { return "user_watch_history" }
