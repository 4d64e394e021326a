// Command cropserve runs the headless detection and extraction service.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"moulding-cropper/internal/config"
	"moulding-cropper/internal/detect"
	"moulding-cropper/internal/extract"
	"moulding-cropper/internal/logger"
	"moulding-cropper/internal/server"
	"moulding-cropper/internal/version"
)

func main() {
	cfg := config.Load()

	addr := flag.String("addr", cfg.ListenAddr, "listen address")
	outputDir := flag.String("output", cfg.OutputDir, "directory for extracted crops")
	poolSize := flag.Int("pool", cfg.RecognizerPoolSize, "recognizer pool size")
	debug := flag.Bool("debug", cfg.Debug, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cropserve %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
		return
	}

	log, err := logger.New(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	pool, err := detect.NewPool(*poolSize, func() (detect.Recognizer, error) {
		return detect.NewTesseract()
	})
	if err != nil {
		log.Fatalw("failed to build recognizer pool", "error", err)
	}
	defer pool.Close()

	detector := detect.NewEngine(pool, log)
	extractor := extract.NewEngine(*outputDir, cfg.VendorPrefixes, log)

	srv := server.New(detector, extractor, log)

	log.Infow("listening", "version", version.Version, "addr", *addr, "output", *outputDir, "pool", *poolSize)
	if err := http.ListenAndServe(*addr, srv.Routes()); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
