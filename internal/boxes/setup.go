package boxes

import (
	"log"

	"github.com/Bookineo/BK-Backend/internal/db"
	"github.com/Bookineo/BK-Backend/internal/geoindex"
)

// Index is the nearby-search R-tree, rebuilt by the proximity service on
// each successful directory fetch. Set from main.
var Index *geoindex.Index

func Init() {
	if err := db.EnsureSchema(db.DB, "boxes"); err != nil {
		log.Fatal("Failed to ensure schema boxes: ", err)
	}

	if err := db.DB.AutoMigrate(&BookBox{}, &BoxVisit{}, &Favorite{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
