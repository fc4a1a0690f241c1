package postgres

import (
	"fmt"
	"time"

	"github.com/VitaminP8/threadly/internal/csrf"
	"github.com/VitaminP8/threadly/models"
)

type CSRFPostgresStorage struct{}

func NewCSRFPostgresStorage() *CSRFPostgresStorage {
	return &CSRFPostgresStorage{}
}

func (s *CSRFPostgresStorage) SaveToken(t csrf.Token) error {
	row := models.CSRFToken{
		SessionID: t.SessionID,
		UserID:    t.UserID,
		Value:     t.Value,
		ExpiresAt: t.ExpiresAt,
	}
	// Save по первичному ключу session_id заменяет прежний токен сессии
	if err := DB.Save(&row).Error; err != nil {
		return fmt.Errorf("could not save csrf token: %w", err)
	}
	return nil
}

func (s *CSRFPostgresStorage) GetToken(sessionID string) (*csrf.Token, error) {
	var row models.CSRFToken
	if err := DB.Where("session_id = ?", sessionID).First(&row).Error; err != nil {
		return nil, notFound(err, "csrf token", sessionID)
	}
	return &csrf.Token{
		SessionID: row.SessionID,
		UserID:    row.UserID,
		Value:     row.Value,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (s *CSRFPostgresStorage) DeleteToken(sessionID string) error {
	if err := DB.Where("session_id = ?", sessionID).Delete(&models.CSRFToken{}).Error; err != nil {
		return fmt.Errorf("could not delete csrf token: %w", err)
	}
	return nil
}

func (s *CSRFPostgresStorage) DeleteExpired(now time.Time) (int, error) {
	res := DB.Where("expires_at <= ?", now).Delete(&models.CSRFToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("could not delete expired csrf tokens: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
