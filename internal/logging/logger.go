// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process-wide logger. It defaults to a no-op logger so packages
// can log before InitLogger runs without nil checks.
var L = zap.NewNop()

// New builds the crawler's logger. Development mode gets the colored
// console encoder for watching an interactive crawl; production mode emits
// JSON lines suitable for collection.
func New(development bool) (*zap.Logger, error) {
	var zcfg zap.Config
	if development {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.DisableStacktrace = false
	}
	zcfg.EncoderConfig.TimeKey = "ts"

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// InitLogger replaces the package-level logger. It keeps the existing
// logger when construction fails so startup never dies on logging
// configuration alone.
func InitLogger(development bool) {
	logger, err := New(development)
	if err != nil {
		return
	}
	L = logger
}
