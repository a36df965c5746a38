package service

import (
	"context"
	"log"
	"strings"

	"birthdaybot/internal/model"
	"birthdaybot/internal/repository"
)

// AdminService resolves the admin set stored in config and gates privileged
// commands. An absent or empty admin list means the open policy: everyone is
// treated as an admin. That also means anyone can claim the first admin slot;
// known trust-boundary behavior, kept as the bootstrap mechanism.
type AdminService struct {
	configRepo *repository.ConfigRepository
}

func NewAdminService(configRepo *repository.ConfigRepository) *AdminService {
	return &AdminService{configRepo: configRepo}
}

// ListAdmins returns the configured admin user IDs. Empty slice means open policy.
func (s *AdminService) ListAdmins(ctx context.Context) ([]string, error) {
	raw, err := s.configRepo.Get(ctx, model.KeyAdminUsers)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var admins []string
	seen := make(map[string]bool)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" && !seen[id] {
			seen[id] = true
			admins = append(admins, id)
		}
	}
	return admins, nil
}

// IsAdmin reports whether userID may run privileged commands.
func (s *AdminService) IsAdmin(ctx context.Context, userID string) bool {
	admins, err := s.ListAdmins(ctx)
	if err != nil {
		log.Printf("[warn] read admin list: %v", err)
		return false
	}
	if len(admins) == 0 {
		return true
	}
	for _, id := range admins {
		if id == userID {
			return true
		}
	}
	return false
}

// AddAdmin adds userID to the admin list. Adding an existing admin succeeds.
// Persistence failures are reported as false, never as a panic upward.
func (s *AdminService) AddAdmin(ctx context.Context, userID string) bool {
	admins, err := s.ListAdmins(ctx)
	if err != nil {
		log.Printf("[warn] add admin %s: %v", userID, err)
		return false
	}
	for _, id := range admins {
		if id == userID {
			return true
		}
	}
	admins = append(admins, userID)
	if err := s.configRepo.Set(ctx, model.KeyAdminUsers, strings.Join(admins, ",")); err != nil {
		log.Printf("[warn] add admin %s: %v", userID, err)
		return false
	}
	return true
}

// RemoveAdmin removes userID from the admin list. Removing an absent admin succeeds.
func (s *AdminService) RemoveAdmin(ctx context.Context, userID string) bool {
	admins, err := s.ListAdmins(ctx)
	if err != nil {
		log.Printf("[warn] remove admin %s: %v", userID, err)
		return false
	}
	remaining := admins[:0]
	for _, id := range admins {
		if id != userID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == len(admins) {
		return true
	}
	if err := s.configRepo.Set(ctx, model.KeyAdminUsers, strings.Join(remaining, ",")); err != nil {
		log.Printf("[warn] remove admin %s: %v", userID, err)
		return false
	}
	return true
}
