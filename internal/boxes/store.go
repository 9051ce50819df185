package boxes

import (
	"context"

	"github.com/Bookineo/BK-Backend/internal/auth"
	"github.com/Bookineo/BK-Backend/internal/db"
	"github.com/Bookineo/BK-Backend/internal/geo"
	"github.com/Bookineo/BK-Backend/internal/proximity"
)

// Store adapts the book_boxes tables to the proximity service's Directory
// interface.
type Store struct{}

func (Store) ListBoxes(ctx context.Context) ([]proximity.Box, error) {
	var rows []BookBox
	if err := db.DB.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]proximity.Box, 0, len(rows))
	for _, row := range rows {
		out = append(out, proximity.Box{
			ID:        row.ID.String(),
			Name:      row.Name,
			Coord:     geo.Coordinate{Lat: row.Latitude, Lng: row.Longitude},
			PhotoURL:  row.PhotoURL,
			CreatorID: row.CreatedID,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

func (Store) Username(ctx context.Context, userID string) (string, error) {
	var user auth.User
	if err := db.DB.WithContext(ctx).First(&user, "user_id = ?", userID).Error; err != nil {
		return "", err
	}
	return user.Username, nil
}

func (Store) VisitCount(ctx context.Context, boxID string) (int64, error) {
	var count int64
	err := db.DB.WithContext(ctx).Model(&BoxVisit{}).
		Where("box_id = ?", boxID).Count(&count).Error
	return count, err
}

// AverageRating returns nil when the box has no rated visits yet.
func (Store) AverageRating(ctx context.Context, boxID string) (*float64, error) {
	var ratings []int
	err := db.DB.WithContext(ctx).Model(&BoxVisit{}).
		Where("box_id = ? AND rating > 0", boxID).Pluck("rating", &ratings).Error
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return nil, nil
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return &avg, nil
}
