// Package pgstore is the Postgres-backed credential store.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AlexKimmel/nightout/internal/users"
)

type Store struct {
	db *gorm.DB
}

var _ users.Store = (*Store)(nil)

// Open connects, verifies connectivity and migrates the users table.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&users.User{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate users: %w", err)
	}
	logger.Info().Msg("credential store connected")

	return &Store{db: db}, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*users.User, error) {
	// ids are uuids; anything else can't match and would make Postgres error
	if _, err := uuid.Parse(id); err != nil {
		return nil, users.ErrNotFound
	}
	return s.first(ctx, "id = ?", id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *Store) first(ctx context.Context, query string, arg any) (*users.User, error) {
	u := new(users.User)
	if err := s.db.WithContext(ctx).Where(query, arg).First(u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *Store) Create(ctx context.Context, u *users.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return users.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
