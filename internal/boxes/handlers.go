package boxes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Bookineo/BK-Backend/internal/auth"
	"github.com/Bookineo/BK-Backend/internal/config"
	"github.com/Bookineo/BK-Backend/internal/db"
	"github.com/Bookineo/BK-Backend/internal/geo"
	"github.com/Bookineo/BK-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ListBoxesHandler(w http.ResponseWriter, r *http.Request) {
	var boxes []BookBox
	if err := db.DB.Find(&boxes).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(boxes); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func GetBoxHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var box BookBox
	err := db.DB.First(&box, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Box not found", http.StatusNotFound)
			return
		}
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(box)
}

func MyBoxesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var boxes []BookBox
	if err := db.DB.Find(&boxes, "created_id = ?", userID).Error; err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(boxes)
}

func CreateBoxHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input BookBox
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if input.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	if !geo.IsValid(input.Latitude, input.Longitude) {
		http.Error(w, "Invalid coordinates", http.StatusBadRequest)
		return
	}

	input.ID = uuid.New()
	input.CreatedID = userID
	input.CreatedAt = time.Now()

	if err := db.DB.Create(&input).Error; err != nil {
		http.Error(w, "Failed to create box", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(input)
}

func UpdateBoxHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	var box BookBox
	if err := db.DB.First(&box, "id = ?", id).Error; err != nil {
		http.Error(w, "Box not found", http.StatusNotFound)
		return
	}
	if box.CreatedID != userID {
		http.Error(w, "Forbidden: not the box owner", http.StatusForbidden)
		return
	}

	var input struct {
		Name        *string   `json:"name"`
		Description *string   `json:"description"`
		PhotoURL    *string   `json:"photo_url"`
		Latitude    *float64  `json:"latitude"`
		Longitude   *float64  `json:"longitude"`
		Tags        *[]string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			http.Error(w, "Name cannot be empty", http.StatusBadRequest)
			return
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PhotoURL != nil {
		updates["photo_url"] = *input.PhotoURL
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		http.Error(w, "Latitude and longitude must be updated together", http.StatusBadRequest)
		return
	}
	if input.Latitude != nil && input.Longitude != nil {
		if !geo.IsValid(*input.Latitude, *input.Longitude) {
			http.Error(w, "Invalid coordinates", http.StatusBadRequest)
			return
		}
		updates["latitude"] = *input.Latitude
		updates["longitude"] = *input.Longitude
	}
	if input.Tags != nil {
		updates["tags"] = *input.Tags
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&box).Updates(updates).Error; err != nil {
			http.Error(w, "Failed to update box", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(box)
}

func DeleteBoxHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	var box BookBox
	if err := db.DB.First(&box, "id = ?", id).Error; err != nil {
		http.Error(w, "Box not found", http.StatusNotFound)
		return
	}
	if box.CreatedID != userID {
		http.Error(w, "Forbidden: not the box owner", http.StatusForbidden)
		return
	}

	db.DB.Where("box_id = ?", box.ID).Delete(&BoxVisit{})
	db.DB.Where("box_id = ?", box.ID).Delete(&Favorite{})
	if err := db.DB.Delete(&box).Error; err != nil {
		http.Error(w, "Failed to delete box", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// SearchBoxesHandler filters boxes by name, accent- and case-insensitively.
// The whole set fits in memory comfortably; ILIKE alone cannot fold
// accents without extra DB extensions.
func SearchBoxesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	var boxes []BookBox
	if err := db.DB.Find(&boxes).Error; err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	matched := make([]BookBox, 0)
	for _, box := range boxes {
		if matchName(box.Name, query) {
			matched = append(matched, box)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(matched)
}

// NearbyBoxesHandler answers radius queries from the R-tree index,
// returning boxes sorted by ascending distance.
func NearbyBoxesHandler(w http.ResponseWriter, r *http.Request) {
	if Index == nil {
		http.Error(w, "Nearby index not ready", http.StatusServiceUnavailable)
		return
	}

	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return
	}

	radius := config.DefaultRadiusMeters
	if v := r.URL.Query().Get("radius"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid radius", http.StatusBadRequest)
			return
		}
		radius = parsed
	}

	results, err := Index.SearchRadius(geo.Coordinate{Lat: lat, Lng: lng}, radius)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ids := make([]string, len(results))
	distances := make(map[string]float64, len(results))
	for i, res := range results {
		ids[i] = res.ID
		distances[res.ID] = res.DistanceMeters
	}

	var rows []BookBox
	if len(ids) > 0 {
		if err := db.DB.Find(&rows, "id IN ?", ids).Error; err != nil {
			http.Error(w, "DB error", http.StatusInternalServerError)
			return
		}
	}
	byID := make(map[string]BookBox, len(rows))
	for _, row := range rows {
		byID[row.ID.String()] = row
	}

	type nearbyBox struct {
		BookBox
		DistanceMeters float64 `json:"distance_meters"`
	}
	out := make([]nearbyBox, 0, len(results))
	for _, res := range results {
		row, ok := byID[res.ID]
		if !ok {
			// Index lags the table slightly between refreshes.
			continue
		}
		out = append(out, nearbyBox{BookBox: row, DistanceMeters: res.DistanceMeters})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func CreateVisitHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	boxID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid box id", http.StatusBadRequest)
		return
	}

	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// Rating 0 means "visited without rating".
	if input.Rating < 0 || input.Rating > 5 {
		http.Error(w, "Rating must be between 0 and 5", http.StatusBadRequest)
		return
	}

	var box BookBox
	if err := db.DB.First(&box, "id = ?", boxID).Error; err != nil {
		http.Error(w, "Box not found", http.StatusNotFound)
		return
	}

	visit := BoxVisit{
		ID:        utils.GenerateUUID(),
		BoxID:     boxID,
		VisitorID: userID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}
	if err := db.DB.Create(&visit).Error; err != nil {
		http.Error(w, "Failed to record visit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(visit)
}

// MyVisitsHandler lists the boxes the caller has visited, newest visit
// first, one entry per box carrying that visit's date and rating.
func MyVisitsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var visits []BoxVisit
	if err := db.DB.Order("created_at DESC").Find(&visits, "visitor_id = ?", userID).Error; err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	ids := make([]uuid.UUID, 0, len(visits))
	seen := make(map[uuid.UUID]bool, len(visits))
	for _, visit := range visits {
		if !seen[visit.BoxID] {
			seen[visit.BoxID] = true
			ids = append(ids, visit.BoxID)
		}
	}
	var rows []BookBox
	if len(ids) > 0 {
		if err := db.DB.Find(&rows, "id IN ?", ids).Error; err != nil {
			http.Error(w, "DB error", http.StatusInternalServerError)
			return
		}
	}
	byID := make(map[uuid.UUID]BookBox, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	type visitedOut struct {
		Box       BookBox   `json:"box"`
		VisitedAt time.Time `json:"visited_at"`
		Rating    int       `json:"rating"`
	}
	out := make([]visitedOut, 0, len(ids))
	emitted := make(map[uuid.UUID]bool, len(ids))
	for _, visit := range visits {
		if emitted[visit.BoxID] {
			continue // keep only the latest visit per box
		}
		box, ok := byID[visit.BoxID]
		if !ok {
			continue // box deleted since the visit
		}
		emitted[visit.BoxID] = true
		out = append(out, visitedOut{Box: box, VisitedAt: visit.CreatedAt, Rating: visit.Rating})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func VisitCountHandler(w http.ResponseWriter, r *http.Request) {
	boxID := chi.URLParam(r, "id")

	count, err := Store{}.VisitCount(r.Context(), boxID)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"count": count})
}

func AverageRatingHandler(w http.ResponseWriter, r *http.Request) {
	boxID := chi.URLParam(r, "id")

	avg, err := Store{}.AverageRating(r.Context(), boxID)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	// avg is null when the box has no rated visits.
	json.NewEncoder(w).Encode(map[string]*float64{"average_rating": avg})
}

func AddFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	boxID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid box id", http.StatusBadRequest)
		return
	}

	var box BookBox
	if err := db.DB.First(&box, "id = ?", boxID).Error; err != nil {
		http.Error(w, "Box not found", http.StatusNotFound)
		return
	}

	var existing Favorite
	if err := db.DB.First(&existing, "user_id = ? AND box_id = ?", userID, boxID).Error; err == nil {
		http.Error(w, "Already a favorite", http.StatusConflict)
		return
	}

	fav := Favorite{
		ID:        utils.GenerateUUID(),
		UserID:    userID,
		BoxID:     boxID,
		CreatedAt: time.Now(),
	}
	if err := db.DB.Create(&fav).Error; err != nil {
		http.Error(w, "Failed to add favorite", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func RemoveFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	boxID := chi.URLParam(r, "id")

	result := db.DB.Where("user_id = ? AND box_id = ?", userID, boxID).Delete(&Favorite{})
	if result.Error != nil {
		http.Error(w, "Failed to remove favorite", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Favorite not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func ListFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var favs []Favorite
	if err := db.DB.Find(&favs, "user_id = ?", userID).Error; err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	ids := make([]uuid.UUID, len(favs))
	for i, fav := range favs {
		ids[i] = fav.BoxID
	}
	var rows []BookBox
	if len(ids) > 0 {
		if err := db.DB.Find(&rows, "id IN ?", ids).Error; err != nil {
			http.Error(w, "DB error", http.StatusInternalServerError)
			return
		}
	}
	byID := make(map[uuid.UUID]BookBox, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	type favoriteOut struct {
		FavoriteID string    `json:"favorite_id"`
		Box        BookBox   `json:"box"`
		AddedAt    time.Time `json:"added_at"`
	}
	out := make([]favoriteOut, 0, len(favs))
	for _, fav := range favs {
		box, ok := byID[fav.BoxID]
		if !ok {
			continue // box deleted since favoriting
		}
		out = append(out, favoriteOut{FavoriteID: fav.ID, Box: box, AddedAt: fav.CreatedAt})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// UsernamesHandler resolves a batch of creator ids to display names in a
// single round trip.
func UsernamesHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || len(input.IDs) == 0 {
		http.Error(w, "ids are required", http.StatusBadRequest)
		return
	}

	var users []auth.User
	if err := db.DB.Find(&users, "user_id IN ?", input.IDs).Error; err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	usernames := make(map[string]string, len(users))
	for _, u := range users {
		usernames[u.UserID] = u.Username
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(usernames)
}
