package boxes

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type BookBox struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	PhotoURL    string         `json:"photo_url"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	CreatedID   string         `gorm:"index" json:"created_id"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	CreatedAt   time.Time      `json:"created_at"`
}

type BoxVisit struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	BoxID     uuid.UUID `gorm:"type:uuid;index" json:"box_id"`
	VisitorID string    `gorm:"index" json:"visitor_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Favorite struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index:idx_favorites_user_box,unique" json:"user_id"`
	BoxID     uuid.UUID `gorm:"type:uuid;index:idx_favorites_user_box,unique" json:"box_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (BookBox) TableName() string  { return "boxes.book_boxes" }
func (BoxVisit) TableName() string { return "boxes.box_visits" }
func (Favorite) TableName() string { return "boxes.favorites" }
