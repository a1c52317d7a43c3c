package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PREDICTOR_URL", "")
	t.Setenv("MAIL_DRIVER", "")
	t.Setenv("JWT_EXPIRY_HOURS", "")

	cfg := Load()

	assert.Equal(t, "http://localhost:5001", cfg.PredictorURL)
	assert.Equal(t, MailDriverConsole, cfg.MailDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PREDICTOR_URL", "http://ml:8000/")
	t.Setenv("PREDICTOR_TIMEOUT_SECONDS", "3")
	t.Setenv("MAIL_DRIVER", "SendGrid")
	t.Setenv("MAX_UPLOAD_SIZE_MB", "2")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()

	assert.Equal(t, "http://ml:8000", cfg.PredictorURL)
	assert.Equal(t, 3*time.Second, cfg.PredictorTimeout)
	assert.Equal(t, MailDriverSendgrid, cfg.MailDriver)
	assert.Equal(t, int64(2*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "advisor:7:session", CacheKey.AdvisorSessionKey(7))
	assert.Equal(t, "advisor:7:notifications", CacheKey.AdvisorNotificationChannel(7))
	assert.Equal(t, "advisor:7:alert:42", CacheKey.AlertDedupKey(7, 42))
}
