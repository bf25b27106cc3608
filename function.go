// Package dailybrief exposes the pipeline as a Cloud Functions HTTP
// target. The function shares the same handler surface as cmd/server.
package dailybrief

import (
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/gorilla/mux"

	"github.com/finbrief/daily-brief/internal/config"
	"github.com/finbrief/daily-brief/internal/handlers"
)

var (
	routerOnce sync.Once
	router     *mux.Router
	initErr    error
)

func init() {
	functions.HTTP("DailyBrief", DailyBrief)
}

// DailyBrief is the HTTP entry point for the Cloud Functions runtime.
func DailyBrief(w http.ResponseWriter, r *http.Request) {
	routerOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}

		server, err := handlers.NewServer(cfg)
		if err != nil {
			initErr = err
			return
		}

		router = server.SetupRoutes()
	})

	if initErr != nil {
		log.Printf("function initialization failed: %v", initErr)
		http.Error(w, "initialization failed", http.StatusInternalServerError)
		return
	}

	router.ServeHTTP(w, r)
}
