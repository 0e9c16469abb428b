package browser

import (
	"fmt"
	"net/url"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
)

// System opens URLs in the user's default browser.
type System struct{}

func (System) Open(rawURL string) error {
	if err := validate(rawURL); err != nil {
		return err
	}
	if err := browser.OpenURL(rawURL); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	return nil
}

// LogOnly records the URL instead of launching anything, for headless use.
type LogOnly struct {
	Logger logrus.FieldLogger
}

func (l LogOnly) Open(rawURL string) error {
	if err := validate(rawURL); err != nil {
		return err
	}
	l.Logger.WithField("url", rawURL).Info("browser launch disabled, open the payment link manually")
	return nil
}

func validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid payment url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q: unsupported scheme", rawURL)
	}
	return nil
}
