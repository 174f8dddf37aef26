package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormConfig struct {
	DSN      string
	Token    string // replaces the DSN password when set
	LogLevel logger.LogLevel
}

func getLogger(level logger.LogLevel) logger.Interface {
	if level == 0 {
		level = logger.Warn
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // keep snippet text out of the SQL log
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(sqlDB *sql.DB) {
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
}

// OpenSQL parses the DSN with pgx so the token can override the password
// without string surgery on the DSN.
func OpenSQL(cfg GormConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	connConfig, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.Token != "" {
		connConfig.Password = cfg.Token
	}

	sqlDB := stdlib.OpenDB(*connConfig)
	configureConnectionPool(sqlDB)
	return sqlDB, nil
}

func NewGormDB(cfg GormConfig) (*gorm.DB, error) {
	sqlDB, err := OpenSQL(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: getLogger(cfg.LogLevel),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return db, nil
}
