package wikicheck

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/root4loot/goutils/log"
)

// verifyRod runs one verification pass with the rod engine.
func (r *Runner) verifyRod(verifyURL string) (*Result, error) {
	result := &Result{TargetURL: verifyURL}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.Options.Timeout)*time.Second)
	defer cancel()

	bin, _ := launcher.LookPath()

	l := launcher.New().
		Headless(r.Options.Headless).
		Bin(bin).
		NoSandbox(true)

	if r.Options.UserAgent != "" {
		l.Set("user-agent", r.Options.UserAgent)
	}

	if r.Options.IgnoreCertificateErrors {
		l.Set("ignore-certificate-errors", "true")
	}

	if r.Options.DisableHTTP2 {
		l.Set("disable-http2", "true")
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch: %v", ErrBrowser, err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrBrowser, err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Debugf("Error closing browser: %v", err)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: new page: %v", ErrBrowser, err)
	}

	if r.Options.CaptureWidth != 0 && r.Options.CaptureHeight != 0 {
		viewport := &proto.EmulationSetDeviceMetricsOverride{
			Width:             r.Options.CaptureWidth,
			Height:            r.Options.CaptureHeight,
			DeviceScaleFactor: 1,
			Mobile:            false,
		}
		if err := page.SetViewport(viewport); err != nil {
			return nil, fmt.Errorf("%w: set viewport: %v", ErrBrowser, err)
		}
	}

	var e proto.NetworkResponseReceived
	wait := page.Context(ctx).WaitEvent(&e)

	if err := page.Context(ctx).Navigate(verifyURL); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigation, verifyURL, err)
	}

	wait()

	if r.Options.Marker != "" {
		log.Debugf("Waiting for readiness marker %q", r.Options.Marker)
		if _, err := page.Context(ctx).ElementR("*", regexp.QuoteMeta(r.Options.Marker)); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("%w: %q did not appear within %ds", ErrMarkerTimeout, r.Options.Marker, r.Options.Timeout)
			}
			return nil, fmt.Errorf("%w: %v", ErrBrowser, err)
		}
	}

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("%w: page info: %v", ErrBrowser, err)
	}
	result.LandingURL = info.URL

	img, err := page.Context(ctx).Screenshot(r.Options.CaptureFull, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: capture: %v", ErrBrowser, err)
	}

	result.StatusCode = e.Response.Status
	result.Image = img

	return result, nil
}
