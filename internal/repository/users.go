package repository

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/csvstore"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
)

// usersHeader is the canonical 4-column user file header. Older files with
// only id,name or id,name,password columns are still readable; missing
// passwords are treated as empty and missing roles default to student.
const usersHeader = "id,name,password,role"

// UserDirectory is the CSV-backed UserStore. The file is read once at
// Reload; user records change rarely and only by hand.
type UserDirectory struct {
	path string
	log  *zap.Logger

	mu    sync.Mutex
	users map[string]models.User
}

// NewUserDirectory creates a directory backed by the file at path. Call
// Reload before use.
func NewUserDirectory(path string, log *zap.Logger) *UserDirectory {
	return &UserDirectory{path: path, log: log, users: make(map[string]models.User)}
}

// Reload replaces the in-memory user set with the file contents. A missing
// file yields an empty directory.
func (d *UserDirectory) Reload(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := csvstore.Read(d.path, 2)
	if os.IsNotExist(err) {
		d.users = make(map[string]models.User)
		d.log.Warn("user file not found", zap.String("file", d.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user directory: %w", err)
	}

	d.users = make(map[string]models.User, len(res.Rows))
	for _, row := range res.Rows {
		u := models.User{
			ID:   row[0],
			Name: row[1],
			Role: models.RoleStudent,
		}
		if len(row) > 2 {
			u.Password = row[2]
		}
		if len(row) > 3 && row[3] != "" {
			u.Role = models.Role(row[3])
		}
		if u.ID == "" {
			continue
		}
		d.users[u.ID] = u
	}

	if res.Skipped > 0 {
		d.log.Warn("skipped malformed user rows",
			zap.String("file", d.path),
			zap.Int("skipped", res.Skipped))
	}
	return nil
}

// User returns the user with the given id or ErrUserNotFound.
func (d *UserDirectory) User(ctx context.Context, id string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// DisplayName resolves a user id to a name, falling back to the id itself
// when unknown.
func (d *UserDirectory) DisplayName(ctx context.Context, id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok && u.Name != "" {
		return u.Name
	}
	return id
}

// Authenticate compares the password verbatim against the stored one.
// There is no hashing; the user file is plaintext by design of the format.
func (d *UserDirectory) Authenticate(ctx context.Context, id, password string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if u.Password != password {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}
