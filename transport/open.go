package transport

import (
	"io"
	"strings"

	"github.com/Rodot-/tellascope/lx200"
)

// Open creates the channel described by cfg. The returned Closer releases it.
func Open(cfg Config) (lx200.Channel, io.Closer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	switch strings.ToLower(cfg.Kind) {
	case KindLoopback:
		ch := NewLoopback(cfg.Responder)
		cfg.Logger.Info("transport: loopback channel opened")
		return ch, ch, nil
	default:
		ch, err := OpenSerial(cfg)
		if err != nil {
			return nil, nil, err
		}
		return ch, ch, nil
	}
}
