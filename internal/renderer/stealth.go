package renderer

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// StealthPage opens a tab with the go-rod/stealth evasions preloaded
func StealthPage(browser *rod.Browser) (*rod.Page, error) {
	return stealth.Page(browser)
}

// ApplyStealthMode sets a desktop viewport and hides the webdriver flag on
// a page that may have been opened without StealthPage
func ApplyStealthMode(page *rod.Page) error {
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	})
	if err != nil {
		return err
	}

	_, err = page.Eval(`() => { Object.defineProperty(navigator, 'webdriver', { get: () => undefined }); return true; }`)
	return err
}
