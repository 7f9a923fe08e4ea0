package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	req := require.New(t)
	t.Setenv("CONFIG_ENV", "no-such-env")

	cfg, err := Load()

	req.NoError(err)
	req.Equal("release", cfg.Mode)
	req.Equal(8080, cfg.Port)
	req.Equal("./web", cfg.StaticPath)
	req.Equal("./uploads", cfg.UploadDir)
	req.Equal(int64(2)<<30, cfg.MaxUploadSize)
	req.Equal(int64(32768), cfg.ReadLimit)
	req.Equal(54*time.Second, cfg.PingPeriod)
}
