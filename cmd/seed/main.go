// Command seed bulk-loads book boxes from a JSON file into the boxes
// schema, for local development and demo environments.
//
// Usage:
//
//	go run ./cmd/seed -file seed_boxes.json
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

type seedBox struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PhotoURL    string   `json:"photo_url"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	CreatedID   string   `json:"created_id"`
	Tags        []string `json:"tags"`
}

func main() {
	_ = godotenv.Load(".env.local")

	file := flag.String("file", "seed_boxes.json", "path to the JSON file of boxes")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}

	var seeds []seedBox
	if err := json.Unmarshal(data, &seeds); err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}
	if len(seeds) == 0 {
		log.Fatal("no boxes in seed file")
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer sqlDB.Close()

	tx, err := sqlDB.Begin()
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO boxes.book_boxes
			(id, name, description, photo_url, latitude, longitude, created_id, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		log.Fatalf("prepare insert: %v", err)
	}

	start := time.Now()
	for i, box := range seeds {
		_, err := stmt.Exec(
			uuid.NewString(),
			box.Name,
			box.Description,
			box.PhotoURL,
			box.Latitude,
			box.Longitude,
			box.CreatedID,
			pq.Array(box.Tags),
			time.Now(),
		)
		if err != nil {
			tx.Rollback()
			log.Fatalf("insert box %d (%s): %v", i, box.Name, err)
		}
		if (i+1)%100 == 0 {
			log.Printf("inserted %d/%d boxes", i+1, len(seeds))
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}

	log.Printf("seeded %d boxes in %dms", len(seeds), time.Since(start).Milliseconds())
}
