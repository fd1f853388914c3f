package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	DriverCSV      = "csv"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver string
	Path   string
	DSN    string
}

// Open returns the store selected by opts.Driver. An empty driver means CSV.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	switch NormalizeDriver(opts.Driver) {
	case DriverCSV:
		return NewCSV(opts.Path, logger)
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("%w: postgres dsn is empty", ErrStorage)
		}
		return NewPostgres(ctx, opts.DSN, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
}

func NormalizeDriver(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "", DriverCSV:
		return DriverCSV
	case DriverPostgres, "postgresql":
		return DriverPostgres
	default:
		return d
	}
}
