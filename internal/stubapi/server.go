// Package stubapi is a self-contained, in-memory implementation of the guild
// backend's HTTP contract. It exists for local development and for the SDK's
// integration tests; it is not a persistence layer.
package stubapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alquimia/consola/internal/config"
	"github.com/alquimia/consola/internal/domain/models"
)

type userRecord struct {
	ID           uint
	Email        string
	PasswordHash []byte
	Nombre       string
	Role         string
}

// Server holds the in-memory state behind the stub endpoints.
type Server struct {
	cfg    config.StubConfig
	logger *zap.Logger

	mu              sync.RWMutex
	users           []userRecord
	materiales      []models.Material
	alquimistas     []models.Alquimista
	misiones        []models.Mision
	transmutaciones []models.Transmutacion
	nextID          uint
}

// New builds an empty stub server.
func New(cfg config.StubConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, logger: logger, nextID: 1}
}

func (s *Server) allocID() uint {
	id := s.nextID
	s.nextID++
	return id
}

// SeedUser registers an account directly, bypassing the HTTP surface. Handy
// for tests and local bootstrap.
func (s *Server) SeedUser(email, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, userRecord{
		ID:           s.allocID(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	return nil
}

func (s *Server) findUser(email string) (userRecord, bool) {
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return userRecord{}, false
}

// listQuery mirrors the real backend's parameter handling: page floors at 1,
// limit defaults to 10 and caps at 100.
type listQuery struct {
	Page  int
	Limit int
	Q     string
}

func (q listQuery) clamped() listQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	q.Q = strings.TrimSpace(q.Q)
	return q
}

func matches(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// window slices one page out of the matched set, returning the page items
// and the total match count.
func window[T any](items []T, q listQuery) ([]T, int64) {
	total := int64(len(items))
	start := (q.Page - 1) * q.Limit
	end := start + q.Limit
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return append([]T(nil), items[start:end]...), total
}

func (s *Server) listMateriales(q listQuery) ([]models.Material, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Material
	for _, m := range s.materiales {
		if matches(q.Q, m.Nombre, m.Unidad) {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Nombre < matched[j].Nombre })
	return window(matched, q)
}

func (s *Server) listAlquimistas(q listQuery) ([]models.Alquimista, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Alquimista
	for _, a := range s.alquimistas {
		if matches(q.Q, a.Nombre, a.Rango, a.Especialidad) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Nombre < matched[j].Nombre })
	return window(matched, q)
}

func (s *Server) listMisiones(q listQuery) ([]models.Mision, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Mision
	for _, m := range s.misiones {
		if matches(q.Q, m.Titulo, m.Estado, m.Prioridad) {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Titulo < matched[j].Titulo })
	return window(matched, q)
}

func (s *Server) listTransmutaciones(q listQuery) ([]models.Transmutacion, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Transmutacion
	for _, t := range s.transmutaciones {
		if matches(q.Q, t.Nombre, t.Estado) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Nombre < matched[j].Nombre })
	return window(matched, q)
}

func touch(t *time.Time) { *t = time.Now().UTC() }
