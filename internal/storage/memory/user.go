package memory

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

type UserMemoryStorage struct {
	mu        sync.Mutex
	users     map[string]*model.User // username -> user
	emails    map[string]string      // email -> username
	passwords map[string]string
	nextId    int
}

func NewUserMemoryStorage() *UserMemoryStorage {
	return &UserMemoryStorage{
		users:     make(map[string]*model.User),
		emails:    make(map[string]string),
		passwords: make(map[string]string),
		nextId:    1,
	}
}

func (s *UserMemoryStorage) RegisterUser(username, email, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, fmt.Errorf("%w: user %s", storage.ErrAlreadyExists, username)
	}
	if _, exists := s.emails[email]; exists {
		return nil, fmt.Errorf("%w: email %s", storage.ErrAlreadyExists, email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id := strconv.Itoa(s.nextId)
	s.nextId++

	user := &model.User{
		ID:       id,
		Username: username,
		Email:    email,
	}

	s.users[username] = user
	s.emails[email] = username
	s.passwords[username] = string(hashedPassword)

	copied := *user
	return &copied, nil
}

func (s *UserMemoryStorage) LoginUser(username, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[username]
	if !exists {
		return nil, fmt.Errorf("%w: invalid username or password", storage.ErrUnauthorized)
	}

	err := bcrypt.CompareHashAndPassword([]byte(s.passwords[username]), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", storage.ErrUnauthorized)
	}

	copied := *user
	return &copied, nil
}

func (s *UserMemoryStorage) GetUserByID(id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
}
