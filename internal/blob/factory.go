package blob

import (
	"context"
	"fmt"
	"os"
)

// Config selects a storage backend and carries per-driver parameters.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open selects a Store implementation from cfg. Unset fields fall back to
// environment variables, default driver fs.
//
//	RPASCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	RPASCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = Driver(os.Getenv("RPASCORE_BLOB_DRIVER"))
	}
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		root := cfg.FSRoot
		if root == "" {
			root = os.Getenv("RPASCORE_BLOB_FS_ROOT")
		}
		return NewFS(root)
	case DriverS3:
		s3cfg := cfg.S3
		if s3cfg.Bucket == "" {
			var err error
			s3cfg, err = s3ConfigFromEnv()
			if err != nil {
				return nil, err
			}
		}
		return NewS3(ctx, s3cfg)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
