package storage

import (
	"context"
	"fmt"

	appconfig "github.com/smallbiznis/ticketbot/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.storage",
	fx.Provide(FromConfig),
)

// FromConfig picks the invoice storage backend named by INVOICE_STORAGE.
func FromConfig(cfg appconfig.Config) (Storage, error) {
	switch cfg.Invoice.Storage {
	case "", "local":
		return NewLocal(cfg.Invoice.Dir, ""), nil

	case "s3":
		if cfg.Invoice.S3Region == "" || cfg.Invoice.S3Bucket == "" {
			return nil, fmt.Errorf("S3 config missing: S3_REGION and S3_BUCKET required")
		}
		return NewS3(context.Background(), S3Config{
			Region:        cfg.Invoice.S3Region,
			Bucket:        cfg.Invoice.S3Bucket,
			Prefix:        cfg.Invoice.S3Prefix,
			PublicBaseURL: cfg.Invoice.S3PublicBase,
		})

	default:
		return nil, fmt.Errorf("unknown INVOICE_STORAGE: %s", cfg.Invoice.Storage)
	}
}
