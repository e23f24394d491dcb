package wikicheck

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/root4loot/goutils/log"
)

// Engine selects the browser automation backend used for a verification pass.
type Engine string

const (
	EngineChromedp Engine = "chromedp"
	EngineRod      Engine = "rod"
)

// Error classes surfaced by a verification pass. Callers classify with
// errors.Is; none of them are retried internally.
var (
	// ErrBrowser indicates the browser process could not be launched or
	// controlled.
	ErrBrowser = errors.New("browser session failed")

	// ErrNavigation indicates the target was unreachable or did not respond.
	ErrNavigation = errors.New("navigation failed")

	// ErrMarkerTimeout indicates the readiness marker was not observed in the
	// rendered page within the wait budget.
	ErrMarkerTimeout = errors.New("readiness marker not observed")
)

type Runner struct {
	Options *Options
}

// Options contains options for the runner
type Options struct {
	Engine                  Engine // Browser engine to drive (chromedp or rod)
	Marker                  string // Readiness marker text to wait for before capturing. Must not contain a double quote.
	Timeout                 int    // Timeout for the whole pass (seconds)
	CaptureWidth            int    // Width of the capture
	CaptureHeight           int    // Height of the capture
	CaptureFull             bool   // Capture the full page instead of the viewport
	Headless                bool   // Run the browser in headless mode
	UserAgent               string // User agent to use
	IgnoreCertificateErrors bool   // Ignore certificate errors
	DisableHTTP2            bool   // Disable HTTP2
	Silence                 bool   // Silence output
	Verbose                 bool   // Verbose logging
}

func init() {
	log.Init("wikicheck")
}

// DefaultOptions returns default options
func DefaultOptions() *Options {
	return &Options{
		Engine:                  EngineChromedp,
		Timeout:                 15,
		CaptureWidth:            1366,
		CaptureHeight:           768,
		Headless:                true,
		IgnoreCertificateErrors: true,
		DisableHTTP2:            true,
	}
}

// NewRunner returns a new runner with default options
func NewRunner() *Runner {
	return &Runner{Options: DefaultOptions()}
}

// NewRunnerWithOptions returns a new runner with the specified options
func NewRunnerWithOptions(options Options) *Runner {
	SetLogLevel(&options)
	return &Runner{Options: &options}
}

// Verify runs one verification pass against the given target: navigate, wait
// for the readiness marker (when set), and capture a screenshot. Each pass
// owns a fresh browser session that is released on all exit paths.
func (r *Runner) Verify(target string) (*Result, error) {
	verifyURL, err := normalize(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", target, err)
	}

	log.Debugf("Starting verification pass against %s", verifyURL)

	switch r.Options.Engine {
	case EngineRod:
		return r.verifyRod(verifyURL)
	default:
		return r.verifyChromedp(verifyURL)
	}
}

// normalize ensures the target has a scheme and a usable host.
func normalize(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("empty target")
	}

	// Default to http; the verifier targets locally running applications.
	if !hasScheme(target) {
		target = "http://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}

	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", target)
	}

	// Strip default ports
	if (u.Scheme == "http" && u.Port() == "80") || (u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}

	return u.String(), nil
}

// hasScheme checks if the target has a scheme
func hasScheme(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// SetLogLevel sets the log level based on the options
func SetLogLevel(options *Options) {
	if options.Silence {
		log.SetLevel(log.FatalLevel)
	} else if options.Verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
