package config

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry configures error reporting. It returns a flush function to
// call on shutdown; without a DSN both are no-ops.
func InitSentry(conf *Config) (func(), error) {
	if conf.SentryDSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              conf.SentryDSN,
		Environment:      conf.Env,
		AttachStacktrace: true,
	})
	if err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}
