package wikicheck

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/root4loot/goutils/log"
)

// verifyChromedp runs one verification pass with the chromedp engine.
func (r *Runner) verifyChromedp(verifyURL string) (*Result, error) {
	result := &Result{TargetURL: verifyURL}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.Options.Timeout)*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], r.execAllocatorFlags()...)

	allocator, cancelAllocator := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAllocator()

	cctx, cancelContext := chromedp.NewContext(allocator)
	defer cancelContext()

	// Launch the browser up front so launch failures are distinguishable from
	// navigation failures.
	if err := chromedp.Run(cctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowser, err)
	}

	// Record the status code of the first document response.
	var status atomic.Int64
	chromedp.ListenTarget(cctx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok {
			if e.Type == network.ResourceTypeDocument {
				status.CompareAndSwap(0, e.Response.Status)
			}
		}
	})

	err := chromedp.Run(cctx,
		chromedp.EmulateViewport(int64(r.Options.CaptureWidth), int64(r.Options.CaptureHeight)),
		chromedp.Navigate(verifyURL),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigation, verifyURL, err)
	}

	if r.Options.Marker != "" {
		log.Debugf("Waiting for readiness marker %q", r.Options.Marker)
		if err := chromedp.Run(cctx, chromedp.WaitReady(markerExpr(r.Options.Marker), chromedp.BySearch)); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("%w: %q did not appear within %ds", ErrMarkerTimeout, r.Options.Marker, r.Options.Timeout)
			}
			return nil, fmt.Errorf("%w: %v", ErrBrowser, err)
		}
	}

	var img []byte
	capture := chromedp.CaptureScreenshot(&img)
	if r.Options.CaptureFull {
		capture = chromedp.FullScreenshot(&img, 100)
	}

	var landingURL string
	if err := chromedp.Run(cctx, chromedp.Location(&landingURL), capture); err != nil {
		return nil, fmt.Errorf("%w: capture: %v", ErrBrowser, err)
	}

	result.LandingURL = landingURL
	result.StatusCode = int(status.Load())
	result.Image = img

	return result, nil
}

// execAllocatorFlags returns chromedp.ExecAllocatorOptions based on the
// Runner's Options.
func (r *Runner) execAllocatorFlags() []chromedp.ExecAllocatorOption {
	var flags []chromedp.ExecAllocatorOption

	flags = append(flags, chromedp.Flag("headless", r.Options.Headless))

	if r.Options.IgnoreCertificateErrors {
		flags = append(flags, chromedp.Flag("ignore-certificate-errors", true))
	}

	if r.Options.DisableHTTP2 {
		flags = append(flags, chromedp.Flag("disable-http2", true))
	}

	if r.Options.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(r.Options.UserAgent))
	}

	return flags
}

// markerExpr builds the XPath expression that matches any element whose text
// contains the marker. The chromedp equivalent of a text selector.
func markerExpr(marker string) string {
	return fmt.Sprintf(`//*[contains(text(), "%s")]`, marker)
}
