package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"race-calendar/internal/model"
)

// sqlitePragmas are applied to every connection opened by the driver.
var sqlitePragmas = map[string]string{
	"_busy_timeout": "5000",
	"_foreign_keys": "on",
}

// NewDB opens the SQLite file that stores chat accounts and migrates it.
// SQL is logged at debug level through log; slow queries at warn.
func NewDB(path string, log *slog.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(path) == "" {
		path = "race_calendar.db"
	}

	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if log.Enabled(context.Background(), slog.LevelDebug) {
		level = gormlogger.Info
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(slog.NewLogLogger(log.Handler(), slog.LevelDebug), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open account store %q: %w", path, err)
	}

	if err := db.AutoMigrate(&model.Account{}); err != nil {
		return nil, fmt.Errorf("migrate account store: %w", err)
	}
	return db, nil
}

// sqliteDSN turns a file path into a driver DSN with pragmas, creating the
// parent directory. In-memory and explicit file: DSNs are passed through.
func sqliteDSN(path string) (string, error) {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create account store dir %q: %w", dir, err)
		}
	}

	query := url.Values{}
	for k, v := range sqlitePragmas {
		query.Set(k, v)
	}
	return "file:" + path + "?" + query.Encode(), nil
}
