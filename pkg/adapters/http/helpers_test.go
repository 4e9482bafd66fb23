package http_test

import (
	"log/slog"

	"github.com/aretw0/weft/internal/logging"
)

func nopLogger() *slog.Logger {
	return logging.NewNop()
}
