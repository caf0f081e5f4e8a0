// Package main provides the StudyPulse reconciliation core entry
// point. The core runs headless; timer UI, audio, and notifications
// live in the embedding app and talk to the engine through its API.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/studypulse/backend/internal/logging"
	"github.com/studypulse/backend/internal/remote"
	"github.com/studypulse/backend/internal/store"
	"github.com/studypulse/backend/internal/sync"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	dataDir := flag.String("data-dir", defaultDataDir(), "local store directory")
	endpoint := flag.String("endpoint", "https://docs.studypulse.app", "document store endpoint")
	project := flag.String("project", "studypulse", "document store project")
	uid := flag.String("uid", "", "signed-in user id")
	flag.Parse()

	fmt.Printf("StudyPulse Core v%s\n", Version)

	st, err := store.Open(*dataDir)
	if err != nil {
		logging.Error("Failed to open local store", err)
		os.Exit(1)
	}
	defer st.Close()

	client := remote.NewHTTPClient(&remote.HTTPConfig{
		Endpoint: *endpoint,
		Project:  *project,
		APIKey:   os.Getenv("STUDYPULSE_API_KEY"),
	})

	engine := sync.NewEngine(st, client, nil)
	defer engine.Close()

	engine.SetStatusListener(func(s sync.Status) {
		logging.Info("Sync status changed", map[string]interface{}{"status": string(s)})
	})

	if *uid != "" {
		engine.SignIn(*uid)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	engine.Flush()
	logging.Info("StudyPulse core stopped", nil)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studypulse"
	}
	return home + "/.studypulse"
}
