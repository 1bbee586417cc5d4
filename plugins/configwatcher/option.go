package configwatcher

import (
	"github.com/bft-labs/pollship/internal/cliconfig"
)

// PayloadLimiter is implemented by servers whose payload limit can change
// at runtime.
type PayloadLimiter interface {
	SetMaxPayload(n int)
}

// ApplyMaxPayload returns an OnChange callback that applies max_payload
// from each reloaded file to target. Files without max_payload leave the
// limit unchanged.
//
// Usage:
//
//	w := configwatcher.New(configwatcher.Config{
//	    Path:     cfgFile,
//	    OnChange: configwatcher.ApplyMaxPayload(srv),
//	}, logger)
func ApplyMaxPayload(target PayloadLimiter) func(cliconfig.FileConfig) {
	return func(fc cliconfig.FileConfig) {
		if fc.MaxPayload > 0 {
			target.SetMaxPayload(fc.MaxPayload)
		}
	}
}
