package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Bookineo/BK-Backend/internal/auth"
	"github.com/Bookineo/BK-Backend/internal/boxes"
	"github.com/Bookineo/BK-Backend/internal/config"
	"github.com/Bookineo/BK-Backend/internal/db"
	"github.com/Bookineo/BK-Backend/internal/geo"
	"github.com/Bookineo/BK-Backend/internal/geoindex"
	"github.com/Bookineo/BK-Backend/internal/middleware"
	"github.com/Bookineo/BK-Backend/internal/proximity"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	db.Connect()
	auth.Init()
	boxes.Init()

	// Proximity map service: directory over the boxes tables, reference
	// coordinate from config (clients can update it via POST /map/location).
	var origin *geo.Coordinate
	if cfg.Map.OriginLat != nil {
		origin = &geo.Coordinate{Lat: *cfg.Map.OriginLat, Lng: *cfg.Map.OriginLng}
	}

	index := geoindex.New()
	boxes.Index = index

	svc := proximity.NewService(boxes.Store{}, proximity.StaticLocation{Coord: origin}, cfg.Map)
	svc.OnFetch = func(all []proximity.Box) {
		entries := make([]geoindex.Entry, len(all))
		for i, b := range all {
			entries[i] = geoindex.Entry{ID: b.ID, Lat: b.Coord.Lat, Lng: b.Coord.Lng}
		}
		index.Rebuild(entries)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.Start(ctx)
	defer svc.Stop()

	limiter := middleware.NewRateLimiter(10, 30)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(limiter.Middleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/boxes", boxes.SetupRoutes())
	r.Mount("/map", proximity.SetupRoutes(svc))

	server := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: r,
	}

	go func() {
		fmt.Printf("Server listening on port :%s...\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Println("Shutdown error: ", err)
	}
}
