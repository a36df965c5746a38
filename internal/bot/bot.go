package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"birthdaybot/internal/config"
	"birthdaybot/internal/date"
	"birthdaybot/internal/service"
)

const helpTemplate = `🎂 I keep track of birthdays and announce them every day at %s.

/setbirthday DD/MM — save your birthday
/setname <display name> — name used in your announcement
/mybirthday — show your saved birthday
/birthdays — list all birthdays
/next [n] — upcoming birthdays (default 5)
/removebirthday — remove your birthday

Admin commands:
/adminset <userID> MM/DD [display name]
/adminremove <userID>
/bulkremove <userID userID ...>
/setchannel <chat id or @name> [display name]
/addadmin [userID], /removeadmin [userID], /admins
/csvtemplate, /validatecsv <csv>, /importcsv <csv>
/checkbirthdays — run today's announcement check now`

// helpMessage renders the command overview with the configured check time.
func helpMessage(announceTime string) string {
	return fmt.Sprintf(helpTemplate, announceTime)
}

// Bot aggregates the Telegram API with the birthday engine. It is the only
// layer that knows about the chat platform; the engine sees primitives and
// the Messenger capability.
type Bot struct {
	api         *tgbotapi.BotAPI
	birthdaySvc *service.BirthdayService
	adminSvc    *service.AdminService
	channelSvc  *service.ChannelService
	csvSvc      *service.CSVService
	dispatchSvc *service.DispatchService
	config      *config.Config
}

func New(
	token string,
	birthdaySvc *service.BirthdayService,
	adminSvc *service.AdminService,
	channelSvc *service.ChannelService,
	csvSvc *service.CSVService,
	cfg *config.Config,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:         api,
		birthdaySvc: birthdaySvc,
		adminSvc:    adminSvc,
		channelSvc:  channelSvc,
		csvSvc:      csvSvc,
		config:      cfg,
	}, nil
}

// SetDispatcher wires the dispatch service after construction; the dispatcher
// needs the bot as its Messenger, so the two are linked in main.
func (b *Bot) SetDispatcher(dispatchSvc *service.DispatchService) {
	b.dispatchSvc = dispatchSvc
}

// SendMessage implements service.Messenger. A channel ref that parses as an
// integer is a chat ID; anything else is treated as a public channel name.
func (b *Bot) SendMessage(ctx context.Context, channelRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg tgbotapi.MessageConfig
	if chatID, err := strconv.ParseInt(channelRef, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(chatID, text)
	} else {
		if !strings.HasPrefix(channelRef, "@") {
			channelRef = "@" + channelRef
		}
		msg = tgbotapi.NewMessageToChannel(channelRef, text)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", channelRef, err)
	}
	return nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.From == nil || !update.Message.IsCommand() {
			continue
		}
		log.Printf("[info] command from %d: /%s", update.Message.From.ID, update.Message.Command())
		if err := b.handleCommand(ctx, update.Message); err != nil {
			log.Printf("handle command /%s: %v", update.Message.Command(), err)
		}
	}

	return nil
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.sendText(msg.Chat.ID, helpMessage(b.config.AnnounceTime))
	case "setbirthday":
		return b.handleSetBirthday(ctx, msg)
	case "setname":
		return b.handleSetName(ctx, msg)
	case "mybirthday":
		return b.handleMyBirthday(ctx, msg)
	case "birthdays":
		return b.handleListBirthdays(ctx, msg)
	case "next":
		return b.handleNext(ctx, msg)
	case "removebirthday":
		return b.handleRemoveBirthday(ctx, msg)
	case "adminset":
		return b.handleAdminSet(ctx, msg)
	case "adminremove":
		return b.handleAdminRemove(ctx, msg)
	case "bulkremove":
		return b.handleBulkRemove(ctx, msg)
	case "setchannel":
		return b.handleSetChannel(ctx, msg)
	case "addadmin":
		return b.handleAddAdmin(ctx, msg)
	case "removeadmin":
		return b.handleRemoveAdmin(ctx, msg)
	case "admins":
		return b.handleAdmins(ctx, msg)
	case "csvtemplate":
		return b.sendText(msg.Chat.ID, "Copy this template, fill it in and send it back with /importcsv:\n\n"+b.csvSvc.Template())
	case "validatecsv":
		return b.handleValidateCSV(msg)
	case "importcsv":
		return b.handleImportCSV(ctx, msg)
	case "checkbirthdays":
		return b.handleCheckBirthdays(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help for the list.")
	}
}

func (b *Bot) handleSetBirthday(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Please provide your birthday in DD/MM format. Example: /setbirthday 25/12")
	}

	day, month, ok := parseDayMonth(strings.Fields(args)[0])
	if !ok {
		return b.sendText(msg.Chat.ID, "Please provide a valid date in DD/MM format. Example: /setbirthday 25/12")
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	if err := b.birthdaySvc.Set(ctx, userID, msg.From.UserName, month, day, ""); err != nil {
		if errorsIsInvalidDate(err) {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("%s is not a valid date.", formatDayMonth(month, day)))
		}
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Your birthday has been set to %s! 🎂", formatDayMonth(month, day)))
}

func (b *Bot) handleSetName(ctx context.Context, msg *tgbotapi.Message) error {
	displayName := strings.TrimSpace(msg.CommandArguments())
	if displayName == "" {
		return b.sendText(msg.Chat.ID, "Please provide your preferred display name. Example: /setname John Doe")
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	updated, err := b.birthdaySvc.SetDisplayName(ctx, userID, displayName)
	if err != nil {
		return err
	}
	if !updated {
		return b.sendText(msg.Chat.ID, "You need to set your birthday first with /setbirthday DD/MM.")
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Your display name has been updated to %q! 👤", displayName))
}

func (b *Bot) handleMyBirthday(ctx context.Context, msg *tgbotapi.Message) error {
	userID := strconv.FormatInt(msg.From.ID, 10)
	birthday, err := b.birthdaySvc.Get(ctx, userID)
	if err != nil {
		return err
	}
	if birthday == nil {
		return b.sendText(msg.Chat.ID, "You don't have a birthday set. Use /setbirthday DD/MM.")
	}
	month, day := birthday.MonthDay()
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Your birthday is set to %s. 🎂", formatDayMonth(month, day)))
}

func (b *Bot) handleListBirthdays(ctx context.Context, msg *tgbotapi.Message) error {
	birthdays, err := b.birthdaySvc.List(ctx)
	if err != nil {
		return err
	}
	if len(birthdays) == 0 {
		return b.sendText(msg.Chat.ID, "No birthdays have been set yet.")
	}

	var sb strings.Builder
	sb.WriteString("🎂 Birthday list:\n")
	for _, birthday := range birthdays {
		month, day := birthday.MonthDay()
		sb.WriteString(fmt.Sprintf("• %s: %s\n", displayLabel(birthday.Username, birthday.DisplayName), formatDayMonth(month, day)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleNext(ctx context.Context, msg *tgbotapi.Message) error {
	limit := 5
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			return b.sendText(msg.Chat.ID, "Usage: /next [count], e.g. /next 3")
		}
		limit = n
	}

	upcoming, err := b.birthdaySvc.Upcoming(ctx, time.Now(), limit)
	if err != nil {
		return err
	}
	if len(upcoming) == 0 {
		return b.sendText(msg.Chat.ID, "No birthdays have been set yet.")
	}

	var sb strings.Builder
	sb.WriteString("🎂 Upcoming birthdays:\n")
	for _, entry := range upcoming {
		label := entry.DisplayName
		if label == "" {
			label = entry.UserID
		}
		switch entry.DaysUntil {
		case 0:
			sb.WriteString(fmt.Sprintf("• %s: TODAY! 🎉\n", label))
		case 1:
			sb.WriteString(fmt.Sprintf("• %s: tomorrow (%s)\n", label, formatDayMonth(entry.Month, entry.Day)))
		default:
			sb.WriteString(fmt.Sprintf("• %s: in %d days (%s)\n", label, entry.DaysUntil, formatDayMonth(entry.Month, entry.Day)))
		}
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleRemoveBirthday(ctx context.Context, msg *tgbotapi.Message) error {
	userID := strconv.FormatInt(msg.From.ID, 10)
	removed, err := b.birthdaySvc.Remove(ctx, userID)
	if err != nil {
		return err
	}
	if !removed {
		return b.sendText(msg.Chat.ID, "You don't have a birthday set.")
	}
	return b.sendText(msg.Chat.ID, "Your birthday has been removed.")
}

func (b *Bot) handleAdminSet(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.requireAdmin(ctx, msg) {
		return nil
	}

	parts := strings.Fields(msg.CommandArguments())
	if len(parts) < 2 {
		return b.sendText(msg.Chat.ID, "Usage: /adminset <userID> MM/DD [display name]")
	}

	targetID := strings.TrimPrefix(parts[0], "@")
	month, day, ok := parseDayMonth(parts[1])
	if !ok {
		return b.sendText(msg.Chat.ID, "Please provide a valid date in MM/DD format. Example: /adminset U123 12/25 John Doe")
	}
	displayName := strings.Join(parts[2:], " ")

	if err := b.birthdaySvc.Set(ctx, targetID, targetID, month, day, displayName); err != nil {
		if errorsIsInvalidDate(err) {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("%s is not a valid date.", formatDayMonth(month, day)))
		}
		return err
	}

	confirmation := fmt.Sprintf("Birthday for %s set to %s", targetID, formatDayMonth(month, day))
	if displayName != "" {
		confirmation += fmt.Sprintf(" with display name %q", displayName)
	}
	return b.sendText(msg.Chat.ID, confirmation+"! 🎂")
}

func (b *Bot) handleAdminRemove(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.requireAdmin(ctx, msg) {
		return nil
	}

	targetID := strings.TrimPrefix(strings.TrimSpace(msg.CommandArguments()), "@")
	if targetID == "" {
		return b.sendText(msg.Chat.ID, "Usage: /adminremove <userID>")
	}

	removed, err := b.birthdaySvc.Remove(ctx, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("%s doesn't have a birthday set.", targetID))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Birthday for %s has been removed.", targetID))
}

func (b *Bot) handleBulkRemove(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.requireAdmin(ctx, msg) {
		return nil
	}

	var userIDs []string
	for _, token := range strings.Fields(msg.CommandArguments()) {
		if id := strings.TrimPrefix(token, "@"); id != "" {
			userIDs = append(userIDs, id)
		}
	}
	if len(userIDs) == 0 {
		return b.sendText(msg.Chat.ID, "Usage: /bulkremove <userID userID ...>")
	}

	removed, missing := b.birthdaySvc.RemoveMany(ctx, userIDs)
	text := fmt.Sprintf("Removed %d birthdays.", removed)
	if len(missing) > 0 {
		text += fmt.Sprintf(" No birthday was set for: %s.", strings.Join(missing, ", "))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleSetChannel(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.requireAdmin(ctx, msg) {
		return nil
	}

	parts := strings.Fields(msg.CommandArguments())
	if len(parts) == 0 {
		return b.sendText(msg.Chat.ID, "Usage: /setchannel <chat id or @name> [display name]")
	}

	ref := parts[0]
	name := strings.Join(parts[1:], " ")

	// A numeric chat ID or an @handle is a durable identifier; a bare word
	// is only a display name, the legacy configuration path.
	var err error
	if isChannelID(ref) {
		if name == "" {
			name = strings.TrimPrefix(ref, "@")
		}
		err = b.channelSvc.SetChannel(ctx, ref, name)
	} else {
		err = b.channelSvc.SetChannelName(ctx, ref)
		name = ref
	}
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Birthday announcements will be posted to %s.", name))
}

func (b *Bot) handleAddAdmin(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.requireAdmin(ctx, msg) {
		return nil
	}

	targetID := strings.TrimSpace(msg.CommandArguments())
	if targetID == "" {
		targetID = strconv.FormatInt(msg.From.ID, 10)
	}
	if !b.adminSvc.AddAdmin(ctx, targetID) {
		return b.sendText(msg.Chat.ID, "Could not update the admin list, please try again.")
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("%s is now an admin.", targetID))
}

func (b *Bot) handleRemoveAdmin(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.requireAdmin(ctx, msg) {
		return nil
	}

	targetID := strings.TrimSpace(msg.CommandArguments())
	if targetID == "" {
		return b.sendText(msg.Chat.ID, "Usage: /removeadmin <userID>")
	}
	if !b.adminSvc.RemoveAdmin(ctx, targetID) {
		return b.sendText(msg.Chat.ID, "Could not update the admin list, please try again.")
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("%s is no longer an admin.", targetID))
}

func (b *Bot) handleAdmins(ctx context.Context, msg *tgbotapi.Message) error {
	admins, err := b.adminSvc.ListAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		return b.sendText(msg.Chat.ID, "No admins configured: everyone currently has admin access. Use /addadmin to claim the first slot.")
	}
	return b.sendText(msg.Chat.ID, "Admins:\n• "+strings.Join(admins, "\n• "))
}

func (b *Bot) handleValidateCSV(msg *tgbotapi.Message) error {
	csvText := strings.TrimSpace(msg.CommandArguments())
	if csvText == "" {
		return b.sendText(msg.Chat.ID, "Paste CSV data after the command. Get the format with /csvtemplate.")
	}
	result := b.csvSvc.Validate(csvText)
	return b.sendText(msg.Chat.ID, formatValidation(result))
}

func (b *Bot) handleImportCSV(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.requireAdmin(ctx, msg) {
		return nil
	}

	csvText := strings.TrimSpace(msg.CommandArguments())
	if csvText == "" {
		return b.sendText(msg.Chat.ID, "Paste CSV data after the command. Get the format with /csvtemplate.")
	}

	result := b.csvSvc.Import(ctx, csvText)
	var sb strings.Builder
	if result.Imported > 0 {
		sb.WriteString(fmt.Sprintf("Imported %d birthdays. ✅\n", result.Imported))
	} else {
		sb.WriteString("Nothing was imported.\n")
	}
	appendIssues(&sb, result.Errors, result.Warnings)
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleCheckBirthdays(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.requireAdmin(ctx, msg) {
		return nil
	}
	if b.dispatchSvc == nil {
		return b.sendText(msg.Chat.ID, "The dispatcher is not running.")
	}

	result, err := b.dispatchSvc.RunDailyCheck(ctx, time.Now(), true)
	if err != nil {
		return err
	}
	if result.Matched == 0 {
		return b.sendText(msg.Chat.ID, "No birthdays today.")
	}
	text := fmt.Sprintf("Found %d birthdays today: %d sent, %d failed.", result.Matched, result.Sent, len(result.Failed))
	return b.sendText(msg.Chat.ID, text)
}

// requireAdmin checks the sender and replies with a refusal when they are
// not an admin. The refusal and the actor are logged as a warning.
func (b *Bot) requireAdmin(ctx context.Context, msg *tgbotapi.Message) bool {
	userID := strconv.FormatInt(msg.From.ID, 10)
	if b.adminSvc.IsAdmin(ctx, userID) {
		return true
	}
	log.Printf("[warn] unauthorized admin command /%s by %s (%s)", msg.Command(), msg.From.UserName, userID)
	if err := b.sendText(msg.Chat.ID, "Sorry, this command is restricted to administrators."); err != nil {
		log.Printf("send refusal: %v", err)
	}
	return false
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func formatValidation(result service.ValidationResult) string {
	var sb strings.Builder
	if result.Valid {
		sb.WriteString("CSV is valid. ✅\n")
	} else {
		sb.WriteString("CSV is not valid. ❌\n")
	}
	appendIssues(&sb, result.Errors, result.Warnings)
	return strings.TrimSpace(sb.String())
}

func appendIssues(sb *strings.Builder, errs, warnings []string) {
	if len(errs) > 0 {
		sb.WriteString("\nErrors:\n• " + strings.Join(errs, "\n• ") + "\n")
	}
	if len(warnings) > 0 {
		sb.WriteString("\nWarnings:\n• " + strings.Join(warnings, "\n• ") + "\n")
	}
}

// parseDayMonth parses "a/b" into its two numeric parts. Range checking is
// the engine's job; this only extracts primitives.
func parseDayMonth(input string) (first, second int, ok bool) {
	parts := strings.Split(input, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	first, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	second, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return first, second, true
}

func isChannelID(ref string) bool {
	if strings.HasPrefix(ref, "@") {
		return true
	}
	_, err := strconv.ParseInt(ref, 10, 64)
	return err == nil
}

// formatDayMonth renders a date as DD/MM, the one order used everywhere a
// date is shown to users (the same order /setbirthday accepts).
func formatDayMonth(month, day int) string {
	return fmt.Sprintf("%d/%d", day, month)
}

// displayLabel prefers the free-text display name over the chat username.
func displayLabel(username, displayName string) string {
	if displayName != "" {
		return displayName
	}
	return "@" + username
}

func errorsIsInvalidDate(err error) bool {
	return errors.Is(err, date.ErrInvalidDate)
}
