package db

import (
	"fmt"
	"log"

	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB := &GormDB{}
	gormDB.Init(c)
	return gormDB
}

func (g *GormDB) Init(c *config.Config) {
	g.DB = getPostgresDB(c)

	if err := migrate(g.DB); err != nil {
		log.Fatalf("unable to run migrations: %v", err)
	}
}

func getPostgresDB(c *config.Config) *gorm.DB {
	log.Printf("Connecting to postgres: %s:%d/%s", c.PostgresHost, c.PostgresPort, c.PostgresDB)
	postgresDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d TimeZone=UTC",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)

	gormConfig := &gorm.Config{}
	if c.Env != "prod" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN: postgresDSN,
	}), gormConfig)
	if err != nil {
		log.Fatal(err)
	}

	return gormDB
}

// SeedInterests fills the interest catalogue members pick from.
func SeedInterests(db *gorm.DB) error {
	names := []string{
		"hiking", "cooking", "live music", "photography", "yoga",
		"gaming", "travel", "coffee", "running", "art", "movies",
		"foodie", "dancing", "reading", "cycling", "climbing",
		"pets", "wine", "podcasts", "volunteering",
	}

	for _, name := range names {
		interest := models.Interest{Name: name}
		if err := db.FirstOrCreate(&interest, models.Interest{Name: name}).Error; err != nil {
			return err
		}
	}

	return nil
}

func migrate(db *gorm.DB) error {
	// Conversation and Message ids default to uuid_generate_v4().
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("uuid extension error: %v", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Blacklist{},
		&models.Interest{},
		&models.ProfilePhoto{},
		&models.Interaction{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
		&models.DeviceToken{},
	)

	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}

	if err := SeedInterests(db); err != nil {
		return fmt.Errorf("seeding interests error: %v", err)
	}

	return nil
}
