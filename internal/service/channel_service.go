package service

import (
	"context"
	"strings"

	"birthdaybot/internal/model"
	"birthdaybot/internal/repository"
)

// Channel is the announcement target as configured. Ref is what gets handed
// to the messenger: the durable ID when known, otherwise the display name.
type Channel struct {
	ID   string
	Name string
}

// Ref returns the value dispatch should send to, preferring the ID.
func (c Channel) Ref() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Name
}

// ChannelService stores and resolves the announcement channel.
type ChannelService struct {
	configRepo     *repository.ConfigRepository
	defaultChannel string
}

func NewChannelService(configRepo *repository.ConfigRepository, defaultChannel string) *ChannelService {
	return &ChannelService{configRepo: configRepo, defaultChannel: defaultChannel}
}

// SetChannel stores both the durable identifier and the display name.
func (s *ChannelService) SetChannel(ctx context.Context, id, name string) error {
	if err := s.configRepo.Set(ctx, model.KeyChannelID, strings.TrimSpace(id)); err != nil {
		return err
	}
	return s.configRepo.Set(ctx, model.KeyChannelName, strings.TrimSpace(name))
}

// SetChannelName stores only the display name, the legacy plain-text path.
// A stored ID still wins at resolve time.
func (s *ChannelService) SetChannelName(ctx context.Context, name string) error {
	return s.configRepo.Set(ctx, model.KeyChannelName, strings.TrimSpace(name))
}

// Resolve returns the configured channel, falling back from ID to name to
// the default. Dispatch must always get a usable target out of this.
func (s *ChannelService) Resolve(ctx context.Context) (Channel, error) {
	id, err := s.configRepo.Get(ctx, model.KeyChannelID)
	if err != nil {
		return Channel{}, err
	}
	name, err := s.configRepo.Get(ctx, model.KeyChannelName)
	if err != nil {
		return Channel{}, err
	}
	if id == "" && name == "" {
		name = s.defaultChannel
	}
	return Channel{ID: id, Name: name}, nil
}
