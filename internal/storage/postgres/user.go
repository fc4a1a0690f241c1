package postgres

import (
	"fmt"

	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/VitaminP8/threadly/models"

	"golang.org/x/crypto/bcrypt"
)

type UserPostgresStorage struct{}

func NewUserPostgresStorage() *UserPostgresStorage {
	return &UserPostgresStorage{}
}

func (s *UserPostgresStorage) RegisterUser(username, email, password string) (*model.User, error) {
	// проверка - заняты ли имя или почта
	var count int
	err := DB.Model(&models.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("could not check user: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: user %s", storage.ErrAlreadyExists, username)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
	}

	err = DB.Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return toUser(user), nil
}

func (s *UserPostgresStorage) LoginUser(username, password string) (*model.User, error) {
	var user models.User
	err := DB.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", storage.ErrUnauthorized)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", storage.ErrUnauthorized)
	}

	return toUser(&user), nil
}

func (s *UserPostgresStorage) GetUserByID(id string) (*model.User, error) {
	pk, err := parseID("user", id)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := DB.First(&user, pk).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return toUser(&user), nil
}

func toUser(u *models.User) *model.User {
	return &model.User{
		ID:       fmt.Sprint(u.ID),
		Username: u.Username,
		Email:    u.Email,
	}
}
