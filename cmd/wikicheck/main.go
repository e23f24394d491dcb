package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/root4loot/goutils/log"
	"github.com/tinywiki/wikicheck"
)

// The verification pass is fixed: no arguments, flags, or environment
// variables are consumed. Extraneous argv entries are ignored.
const (
	targetURL      = "http://localhost:3000"
	readyMarker    = "TinyWiki"
	screenshotPath = "verification/initial_state.png"
)

func init() {
	log.Init("wikicheck")
}

func main() {
	if err := run(targetURL, readyMarker, screenshotPath); err != nil {
		reportFailure(err)
		os.Exit(1)
	}

	fmt.Println("Initial state screenshot captured.")
}

// run performs one verification pass and writes the screenshot artifact.
func run(target, marker, outPath string) error {
	runner := wikicheck.NewRunner()
	runner.Options.Marker = marker

	result, err := runner.Verify(target)
	if err != nil {
		return err
	}

	return result.WriteToFile(outPath)
}

func reportFailure(err error) {
	switch {
	case errors.Is(err, wikicheck.ErrNavigation):
		log.Errorf("Target %s unreachable: %v", targetURL, err)
	case errors.Is(err, wikicheck.ErrMarkerTimeout):
		log.Errorf("Application did not become ready: %v", err)
	case errors.Is(err, wikicheck.ErrBrowser):
		log.Errorf("Browser session failed: %v", err)
	default:
		log.Errorf("Verification failed: %v", err)
	}
}
