package postgres

import (
	"fmt"

	"github.com/VitaminP8/threadly/internal/config"
	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/VitaminP8/threadly/models"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"go.uber.org/zap"
)

var DB *gorm.DB

// GetDB возвращает глобальную переменную DB (для тестирования)
func GetDB() *gorm.DB {
	return DB
}

// InitDB подключается к PostgreSQL, мигрирует схему и устанавливает глобальную переменную DB
func InitDB(cfg config.DBConfig) error {
	db, err := gorm.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		db.Close()
		return err
	}

	DB = db
	zap.L().Info("connected to the database", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	return nil
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...).Error; err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

// CloseDB закрывает соединение с базой данных
func CloseDB() error {
	if DB == nil {
		return nil
	}

	err := DB.Close()
	if err != nil {
		return fmt.Errorf("failed to close the database connection: %w", err)
	}

	zap.L().Info("database connection closed")
	return nil
}

// InitDBWithConnection для тестирования (позволяет инъекцию соединения БД)
func InitDBWithConnection(db *gorm.DB) {
	DB = db
}

// parseID переводит строковый id API в первичный ключ; нечисловой id не существует
func parseID(kind, id string) (uint, error) {
	var n uint
	if _, err := fmt.Sscan(id, &n); err != nil || fmt.Sprint(n) != id {
		return 0, fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return n, nil
}

// notFound оборачивает gorm.ErrRecordNotFound в storage.ErrNotFound
func notFound(err error, kind, id string) error {
	if gorm.IsRecordNotFoundError(err) {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return fmt.Errorf("could not get %s %s: %w", kind, id, err)
}
