// Package session хранит состояние входа терминального клиента:
// публичное представление учётной записи и токен.
//
// Состояние сохраняется в файл currentUser.json и восстанавливается
// при открытии хранилища, до первого обращения к командам клиента.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/magabrotheeeer/user-management/internal/models"
)

// FileName — имя файла, в котором хранится текущая сессия.
const FileName = "currentUser.json"

// Session — учётная запись и её токен.
type Session struct {
	Account models.Projection `json:"account"`
	Token   string            `json:"token"`
}

// Store — состояние входа клиента. Нулевая сессия означает «не выполнен вход».
type Store struct {
	mu      sync.RWMutex
	path    string
	current *Session
}

// DefaultDir возвращает каталог по умолчанию: <UserConfigDir>/usermgmt.
func DefaultDir() (string, error) {
	const op = "session.DefaultDir"
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return filepath.Join(base, "usermgmt"), nil
}

// Open создаёт хранилище в каталоге dir и сразу восстанавливает
// сохранённую сессию. Отсутствующий файл не является ошибкой.
// Повреждённый файл удаляется, хранилище остаётся пустым.
func Open(dir string) (*Store, error) {
	const op = "session.Open"

	s := &Store{path: filepath.Join(dir, FileName)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.Token == "" {
		_ = os.Remove(s.path)
		return s, nil
	}
	s.current = &sess
	return s, nil
}

// Path возвращает путь к файлу сессии.
func (s *Store) Path() string {
	return s.path
}

// Login сохраняет сессию в памяти и на диске.
func (s *Store) Login(sess Session) error {
	const op = "session.Login"

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.current = &sess
	return nil
}

// Logout очищает сессию и удаляет файл.
func (s *Store) Logout() error {
	const op = "session.Logout"

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Current возвращает копию текущей сессии или nil.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Token возвращает токен текущей сессии или пустую строку.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// UpdateAccount заменяет учётную запись в текущей сессии, токен не меняется.
// Без активной сессии ничего не делает.
func (s *Store) UpdateAccount(account models.Projection) error {
	cur := s.Current()
	if cur == nil {
		return nil
	}
	cur.Account = account
	return s.Login(*cur)
}
