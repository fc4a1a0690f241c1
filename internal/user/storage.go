package user

import (
	"github.com/VitaminP8/threadly/internal/model"
)

type UserStorage interface {
	RegisterUser(username, email, password string) (*model.User, error)
	// LoginUser проверяет пароль, токен сессии выдает вызывающая сторона
	LoginUser(username, password string) (*model.User, error)
	GetUserByID(id string) (*model.User, error)
}
