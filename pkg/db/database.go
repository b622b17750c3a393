package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tobywinn/giftlist/internal/config"
	"github.com/tobywinn/giftlist/internal/models"
)

func configurePool(sqlDB *sql.DB, embedded bool) {
	if embedded {
		// sqlite is single-writer; one connection serializes every
		// mutation at the pool instead of surfacing busy errors.
		sqlDB.SetMaxOpenConns(1)
		return
	}

	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// Open connects to the embedded sqlite store, or to postgres when
// DATABASE_URL is set, and migrates the schema.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	embedded := cfg.DatabaseURL == ""
	if embedded {
		dialector = sqlite.Open(cfg.SQLitePath)
	} else {
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	configurePool(sqlDB, embedded)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := gdb.AutoMigrate(&models.User{}, &models.AuthToken{}, &models.Item{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return gdb, nil
}
