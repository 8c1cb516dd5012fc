// Package service implements the domain operations over the storage
// envelope: game lifecycle, the append-only move log, and user accounts.
// Services are stateless per call; query results are returned as
// materialized values, so one instance is safe for concurrent requests.
package service

import (
	"gameserver/internal/server/storage"

	"go.uber.org/zap"
)

// Service coordinates game and user data access.
type Service struct {
	store *storage.Store
	log   *zap.Logger
}

// New creates a service instance over an initialized store.
func New(store *storage.Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// StorageHealth returns the storage component status for health checks.
func (s *Service) StorageHealth() string {
	if err := s.store.Ping(); err != nil {
		return "degraded"
	}
	return "ok"
}
