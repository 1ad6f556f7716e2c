package config

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the MySQL connection used by the user directory and the CRUD
// controllers. The process cannot serve anything useful without it.
func InitDB() {
	db, err := gorm.Open(mysql.Open(App.MySQLDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	DB = db
}
