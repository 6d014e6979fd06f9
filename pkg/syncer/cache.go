package syncer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"sweetbox/pkg/models"
)

// Cache persists the roster and the last sync time between runs.
// Everything else is refetched on load.
type Cache struct {
	path string
}

// NewCache returns a cache backed by the yaml file at path.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

type cachedUser struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	Email      string            `yaml:"email,omitempty"`
	Role       string            `yaml:"role,omitempty"`
	Permission models.Permission `yaml:"permission"`
	ShiftStart string            `yaml:"shiftStart,omitempty"`
	Status     models.UserStatus `yaml:"status"`
	Archived   bool              `yaml:"archived,omitempty"`
}

type cacheFile struct {
	LastSync time.Time    `yaml:"lastSync"`
	Token    string       `yaml:"token,omitempty"`
	Users    []cachedUser `yaml:"users"`
}

// CacheEntry is the decoded cache content.
type CacheEntry struct {
	LastSync time.Time
	Token    string
	Users    []models.User
}

func toCached(u models.User) cachedUser {
	c := cachedUser{
		ID:         u.ID,
		Name:       u.Name,
		Role:       u.Role,
		Permission: u.Permission,
		Status:     u.Status,
		Archived:   u.Archived,
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.ShiftStart != nil {
		c.ShiftStart = *u.ShiftStart
	}
	return c
}

func (c cachedUser) user() models.User {
	u := models.User{
		ID:         c.ID,
		Name:       c.Name,
		Role:       c.Role,
		Permission: c.Permission,
		Status:     c.Status,
	}
	u.Archived = c.Archived
	if c.Email != "" {
		email := c.Email
		u.Email = &email
	}
	if c.ShiftStart != "" {
		shift := c.ShiftStart
		u.ShiftStart = &shift
	}
	return u
}

// Load reads the cache. A missing file yields an empty entry.
func (c *Cache) Load() (CacheEntry, error) {
	raw, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return CacheEntry{}, nil
	}
	if err != nil {
		return CacheEntry{}, fmt.Errorf("read cache: %w", err)
	}
	var f cacheFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return CacheEntry{}, fmt.Errorf("parse cache %s: %w", c.path, err)
	}
	entry := CacheEntry{LastSync: f.LastSync, Token: f.Token}
	for _, u := range f.Users {
		entry.Users = append(entry.Users, u.user())
	}
	return entry, nil
}

// Save replaces the cache file atomically.
func (c *Cache) Save(entry CacheEntry) error {
	f := cacheFile{LastSync: entry.LastSync.UTC(), Token: entry.Token}
	for _, u := range entry.Users {
		f.Users = append(f.Users, toCached(u))
	}
	raw, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// SaveToken stores a session token, keeping the roster.
func (c *Cache) SaveToken(token string) error {
	entry, err := c.Load()
	if err != nil {
		return err
	}
	entry.Token = token
	return c.Save(entry)
}
