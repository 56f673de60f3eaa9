// Package logger builds named zap loggers with environment-appropriate
// encoding.
package logger

import "go.uber.org/zap"

// New returns a logger named after the component. Production gets JSON
// output, everything else the development console encoder.
func New(env, name string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Named(name), nil
}
