package main

import (
	"log"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/Clark-Hu/flicks-picks/internal/apimock"
	"github.com/Clark-Hu/flicks-picks/internal/logger"
)

func main() {
	var (
		port     = kingpin.Flag("port", "port to listen on").Default("8000").String()
		data     = kingpin.Flag("data", "path to a JSON array of films; the built-in catalogue is used when empty").String()
		logLevel = kingpin.Flag("log", "log level").Default("info").Enum("debug", "info", "warn", "error")
	)
	kingpin.Parse()

	lg, err := logger.New(*logLevel, "text")
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}

	films := apimock.DefaultFilms()
	if *data != "" {
		loaded, err := apimock.LoadFilms(*data)
		if err != nil {
			lg.WithError(err).Fatal("load mock data")
		}
		films = loaded
	}

	addr := ":" + *port
	srv := &http.Server{
		Addr:              addr,
		Handler:           apimock.New(films, lg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	lg.WithField("addr", addr).WithField("films", len(films)).Info("mock api listening")
	if err := srv.ListenAndServe(); err != nil {
		lg.WithError(err).Fatal("server error")
	}
}
