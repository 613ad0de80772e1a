package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  port: 9090
store:
  type: memory
jwt:
  secret: ` + secret + `
`))
	require.NoError(t, err)

	assert.Equal(t, 9091, cfg.Server.HTTPPort)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL())
	assert.Equal(t, 2, cfg.Notifications.DueSoonDays)
	assert.Equal(t, 30*24*time.Hour, cfg.NotificationRetention())
	assert.Equal(t, "0 0 9 * * *", cfg.Scheduler.SendOverdueNotices)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "Bookshare", cfg.SendGrid.FromName)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad port", "server: {port: 0}\nstore: {type: memory}\njwt: {secret: " + secret + "}"},
		{"short secret", "server: {port: 9090}\nstore: {type: memory}\njwt: {secret: short}"},
		{"postgres without host", "server: {port: 9090}\njwt: {secret: " + secret + "}"},
		{"firestore without project", "server: {port: 9090}\nstore: {type: firestore}\njwt: {secret: " + secret + "}"},
		{"unknown store", "server: {port: 9090}\nstore: {type: mongo}\njwt: {secret: " + secret + "}"},
		{"sendgrid without sender", "server: {port: 9090}\nstore: {type: memory}\nsendgrid: {api_key: k}\njwt: {secret: " + secret + "}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server: {port: 9090}
database: {host: db, user: app, database: books}
jwt: {secret: placeholder}
`), 0o600))

	t.Setenv("JWT_SECRET", secret)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, StorePostgres, cfg.Store.Type)
	assert.Equal(t, "postgres://app:@db.internal:0/books?sslmode=disable", cfg.GetDatabaseConnectionString())
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("/grpc.health.v1.Health/Check"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("/bookshare.v1.TransactionService/Approve"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("/unknown/Method"))
}
