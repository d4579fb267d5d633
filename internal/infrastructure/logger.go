// Package infrastructure holds process-wide plumbing shared by every
// service: the zap logger, prometheus collectors and the JetStream
// connection for result events.
package infrastructure

import (
	"go.uber.org/zap"
)

// Logger is the process-wide structured logger, set by Init.
var Logger *zap.Logger

func Init() {
	Logger, _ = zap.NewProduction()
	Logger.Info("infrastructure initialized")
}
