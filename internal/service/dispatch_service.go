package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"birthdaybot/internal/date"
	"birthdaybot/internal/model"
	"birthdaybot/internal/repository"
)

// Messenger is the narrow capability the dispatcher needs from the chat
// platform: deliver one message to a channel reference.
type Messenger interface {
	SendMessage(ctx context.Context, channelRef, text string) error
}

// DispatchResult summarizes one daily check.
type DispatchResult struct {
	Date    date.Canonical
	Channel string
	Matched int
	Sent    int
	Failed  []string // user IDs whose announcement could not be sent
	Skipped bool     // true when the per-day guard suppressed the run
}

// DispatchService finds today's birthdays and announces each one.
type DispatchService struct {
	birthdayRepo *repository.BirthdayRepository
	configRepo   *repository.ConfigRepository
	channelSvc   *ChannelService
	messenger    Messenger
}

func NewDispatchService(
	birthdayRepo *repository.BirthdayRepository,
	configRepo *repository.ConfigRepository,
	channelSvc *ChannelService,
	messenger Messenger,
) *DispatchService {
	return &DispatchService{
		birthdayRepo: birthdayRepo,
		configRepo:   configRepo,
		channelSvc:   channelSvc,
		messenger:    messenger,
	}
}

// RunDailyCheck performs one dispatch pass for the calendar day of now.
// A per-day marker suppresses a second scheduled run on the same day;
// force bypasses the marker for the manual debug trigger. Each send is
// isolated: one failure never stops the remaining announcements.
func (s *DispatchService) RunDailyCheck(ctx context.Context, now time.Time, force bool) (DispatchResult, error) {
	today := date.Today(now)
	result := DispatchResult{Date: today}

	if !force {
		lastRun, err := s.configRepo.Get(ctx, model.KeyLastRun)
		if err != nil {
			return result, err
		}
		if lastRun == string(today) {
			log.Printf("[info] birthday check already ran for %s, skipping", today)
			result.Skipped = true
			return result, nil
		}
	}

	birthdays, err := s.birthdayRepo.FindByDate(ctx, today)
	if err != nil {
		return result, err
	}
	result.Matched = len(birthdays)

	if len(birthdays) == 0 {
		log.Printf("[info] no birthdays on %s", today)
		s.markDispatched(ctx, today)
		return result, nil
	}

	channel, err := s.channelSvc.Resolve(ctx)
	if err != nil {
		return result, err
	}
	result.Channel = channel.Ref()

	log.Printf("[info] found %d birthdays on %s, announcing in %s", len(birthdays), today, channel.Ref())

	for _, birthday := range birthdays {
		text := announcementText(birthday)
		if err := s.messenger.SendMessage(ctx, channel.Ref(), text); err != nil {
			log.Printf("[warn] send birthday message for %s: %v", birthday.UserID, err)
			result.Failed = append(result.Failed, birthday.UserID)
			continue
		}
		result.Sent++
		log.Printf("[info] sent birthday message for %s", birthday.UserID)
	}

	s.markDispatched(ctx, today)
	return result, nil
}

// markDispatched records the per-day marker once a pass has completed. It is
// deliberately not written earlier: a pass that fails before reaching the
// send loop must stay retryable on the next trigger.
func (s *DispatchService) markDispatched(ctx context.Context, today date.Canonical) {
	if err := s.configRepo.Set(ctx, model.KeyLastRun, string(today)); err != nil {
		log.Printf("[warn] record dispatch marker: %v", err)
	}
}

// announcementText builds one birthday message, preferring the display name.
func announcementText(birthday model.Birthday) string {
	mention := "@" + birthday.Username
	name := birthday.DisplayName
	if name == "" {
		name = mention
	}
	return fmt.Sprintf("🎂 Happy Birthday %s (%s)! 🎉\nWishing you a fantastic day filled with joy and celebration! ✨", name, mention)
}
