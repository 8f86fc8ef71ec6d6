package logger

import (
	"fmt"

	"github.com/artmirror-io/artmirror/internal/config"
	"go.uber.org/zap"
)

// New builds the process-wide zap logger. Production encoding everywhere
// except the dev environment.
func New(cfg *config.Config) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if cfg.App.Env == "dev" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log.Named(cfg.App.Name), nil
}
