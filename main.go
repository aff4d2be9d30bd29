package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/Lyon2026/Terrain-Backend/internal/db"
	"github.com/Lyon2026/Terrain-Backend/internal/middleware"
	"github.com/Lyon2026/Terrain-Backend/internal/mobilisation"
	"github.com/Lyon2026/Terrain-Backend/internal/territory"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	territory.Init()
	mobilisation.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/territory", territory.SetupRoutes())
	r.Mount("/mobilisation", mobilisation.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
