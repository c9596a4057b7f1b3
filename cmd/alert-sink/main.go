package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jitenkr2030/Rail-Clean/internal/logging"
	"github.com/jitenkr2030/Rail-Clean/internal/notify"
)

// alert-sink is a local webhook receiver for the alert notifier. It logs every
// alert it accepts and lists them on GET /alerts.
func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		apiKey = flag.String("api-key", "", "required X-API-Key value, empty accepts any")
		level  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger := logging.New(os.Stdout, *level)

	var (
		mu       sync.Mutex
		received []notify.Payload
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.AccessLog(logger))

	r.Post("/alerts", func(w http.ResponseWriter, r *http.Request) {
		if *apiKey != "" && r.Header.Get("X-API-Key") != *apiKey {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		var p notify.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, p)
		mu.Unlock()

		logger.Info().
			Str("alert_id", p.ID).
			Str("coach_id", p.CoachID).
			Str("severity", p.Severity).
			Msg(p.Message)
		w.WriteHeader(http.StatusAccepted)
	})

	r.Get("/alerts", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		out := append([]notify.Payload(nil), received...)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	addr := ":" + *port
	logger.Info().Str("addr", addr).Msg("alert sink listening")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
