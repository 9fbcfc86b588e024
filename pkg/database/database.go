package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres using the given DSN.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		// NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
}
