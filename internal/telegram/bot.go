package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"ai-life-planner/internal/config"
	"ai-life-planner/internal/lifeplan"
	"ai-life-planner/internal/metrics"
	"ai-life-planner/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Callback data of the inline buttons.
const (
	cbStart  = "start"
	cbFocus  = "focus"
	cbRetry  = "retry"
	cbSubmit = "submit"
	cbEdit   = "edit"
	cbReset  = "reset"
)

const (
	landingText = "🌅 *Master Your Time. Design Your Life.*\n\n" +
		"Stop drifting and start living intentionally. Answer six quick questions and I'll build " +
		"a personalized, actionable roadmap to your biggest goals."
	thinkingText        = "🧠 *Thinking...* \n(Designing your personalized plan)"
	stillGeneratingText = "⏳ Still generating your plan. Hang tight."
)

var fieldQuestions = map[lifeplan.Field]string{
	lifeplan.FieldName:              "What's your name?",
	lifeplan.FieldPrimaryFocus:      "Pick your *primary focus area*:",
	lifeplan.FieldShortTermGoal:     "What's your *short-term goal* (1-3 months)?\n_e.g., Run a 5k, learn React basics_",
	lifeplan.FieldLongTermGoal:      "And your *long-term goal* (1-3 years)?\n_e.g., Run a marathon, become a Senior Dev_",
	lifeplan.FieldDailyAvailability: "How much free time do you have *daily*?\n_e.g., 2 hours in the evening, 30 mins mornings_",
	lifeplan.FieldBiggestObstacle:   "What's your *biggest obstacle* right now?\n_e.g., Lack of motivation after work, easily distracted_",
}

// sender is the part of *tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ControllerFactory creates the session controller of one chat.
type ControllerFactory func(ctx context.Context, opts ...session.Option) *session.Controller

// chatSession is the conversation state of one chat. mu serializes the
// handling of its updates.
type chatSession struct {
	mu          sync.Mutex
	ctrl        *session.Controller
	field       int // index into lifeplan.Fields while collecting
	statusMsgID int
}

// Bot drives one planning session per Telegram chat.
type Bot struct {
	api           sender
	cfg           *config.Config
	newController ControllerFactory
	metricsStore  *metrics.Store
	dataDir       string
	logger        *zap.Logger
	ctx           context.Context

	mu    sync.Mutex
	chats map[int64]*chatSession
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	ctx context.Context,
	cfg *config.Config,
	newController ControllerFactory,
	metricsStore *metrics.Store,
	dataDir string,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger = loggerOrNop(logger)
	logger.Info("authorized on account", zap.String("username", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("description", resp.Description))

	return newBot(ctx, api, cfg, newController, metricsStore, dataDir, logger), nil
}

func newBot(
	ctx context.Context,
	api sender,
	cfg *config.Config,
	newController ControllerFactory,
	metricsStore *metrics.Store,
	dataDir string,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:           api,
		cfg:           cfg,
		newController: newController,
		metricsStore:  metricsStore,
		dataDir:       dataDir,
		logger:        loggerOrNop(logger),
		ctx:           ctx,
		chats:         make(map[int64]*chatSession),
	}
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	go b.handleUpdate(update)
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		if query.Message == nil || !b.allowed(query.From) {
			return
		}
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Debug("failed to answer callback", zap.Error(err))
		}
		b.handleCallback(query.Message.Chat.ID, query.Data)

	case update.Message != nil:
		if !b.allowed(update.Message.From) {
			return
		}
		b.handleMessage(update.Message)
	}
}

func (b *Bot) allowed(user *tgbotapi.User) bool {
	if user == nil {
		return false
	}
	if !b.cfg.IsAllowed(user.ID) {
		b.logger.Warn("unauthorized access attempt", zap.Int64("user_id", user.ID), zap.String("username", user.UserName))
		return false
	}
	return true
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "metrics":
			b.handleMetricsRequest(msg)
		case "start":
			b.reset(chatID, false)
		case "reset":
			b.reset(chatID, true)
		case "cancel":
			b.cancel(chatID)
		default:
			b.send(chatID, "Unknown command. Try /start.", nil)
		}
		return
	}

	cs := b.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ctrl.State() != lifeplan.StateCollecting {
		b.sendState(chatID, cs)
		return
	}
	if cs.field >= len(lifeplan.Fields) {
		// Every answer is in: the user is on the summary after a retry.
		b.sendDraft(chatID, cs.ctrl.Snapshot().Input)
		return
	}
	b.answer(chatID, cs, msg.Text)
}

func (b *Bot) handleCallback(chatID int64, data string) {
	action, arg, _ := strings.Cut(data, "|")

	if action == cbReset {
		b.reset(chatID, true)
		return
	}

	cs := b.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	switch action {
	case cbStart:
		if b.rejected(chatID, cs.ctrl.Start()) {
			return
		}
		cs.field = 0
		b.ask(chatID, cs)

	case cbFocus:
		idx, err := strconv.Atoi(arg)
		if err != nil || idx < 0 || idx >= len(lifeplan.FocusAreas) {
			return
		}
		if cs.ctrl.State() != lifeplan.StateCollecting || cs.field >= len(lifeplan.Fields) ||
			lifeplan.Fields[cs.field] != lifeplan.FieldPrimaryFocus {
			return
		}
		b.answer(chatID, cs, string(lifeplan.FocusAreas[idx]))

	case cbRetry:
		if b.rejected(chatID, cs.ctrl.Retry()) {
			return
		}
		b.sendDraft(chatID, cs.ctrl.Snapshot().Input)

	case cbSubmit:
		if cs.ctrl.State() == lifeplan.StateCollecting {
			b.submit(chatID, cs)
		}

	case cbEdit:
		if cs.ctrl.State() == lifeplan.StateCollecting {
			cs.field = 0
			b.ask(chatID, cs)
		}
	}
}

// answer stores text as the value of the field being asked and moves on.
func (b *Bot) answer(chatID int64, cs *chatSession, text string) {
	field := lifeplan.Fields[cs.field]
	value := strings.TrimSpace(text)

	if field == lifeplan.FieldPrimaryFocus {
		area, ok := lifeplan.ParseFocusArea(value)
		if !ok {
			b.send(chatID, lifeplan.FieldMessage(field)+".", nil)
			b.ask(chatID, cs)
			return
		}
		value = string(area)
	}

	if value == "" {
		b.send(chatID, lifeplan.FieldMessage(field)+".", nil)
		b.ask(chatID, cs)
		return
	}

	if b.rejected(chatID, cs.ctrl.SetField(field, value)) {
		return
	}

	cs.field++
	if cs.field < len(lifeplan.Fields) {
		b.ask(chatID, cs)
		return
	}
	b.submit(chatID, cs)
}

// submit posts the status message and hands the draft to the controller.
// The status message is edited into the result by onChange.
func (b *Bot) submit(chatID int64, cs *chatSession) {
	status, err := b.send(chatID, thinkingText, nil)
	if err != nil {
		return
	}
	cs.statusMsgID = status.MessageID

	err = cs.ctrl.Submit(cs.ctrl.Snapshot().Input)
	var fieldErrs lifeplan.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		for i, f := range lifeplan.Fields {
			if _, bad := fieldErrs[f]; bad {
				cs.field = i
				break
			}
		}
		b.edit(chatID, cs.statusMsgID, "⚠️ "+escape(fieldErrs[lifeplan.Fields[cs.field]]), nil)
		cs.statusMsgID = 0
		b.ask(chatID, cs)
	case err != nil:
		b.rejected(chatID, err)
	}
}

// onChange renders the asynchronous outcome of a generation.
func (b *Bot) onChange(chatID int64, snap session.Snapshot) {
	if snap.State != lifeplan.StateShowing && snap.State != lifeplan.StateFailed {
		return
	}

	cs := b.chat(chatID)
	cs.mu.Lock()
	statusID := cs.statusMsgID
	cs.statusMsgID = 0
	cs.mu.Unlock()

	var (
		text     string
		keyboard tgbotapi.InlineKeyboardMarkup
	)
	if snap.State == lifeplan.StateShowing {
		text = formatPlan(snap.Input, snap.Plan)
		keyboard = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Start over", cbReset),
		))
	} else {
		text = fmt.Sprintf("❌ *Oops! Something went wrong*\n\n%s", escape(snap.ErrorMessage))
		row := tgbotapi.NewInlineKeyboardRow()
		if snap.Retryable {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🔁 Try again", cbRetry))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🔄 Start over", cbReset))
		keyboard = tgbotapi.NewInlineKeyboardMarkup(row)
	}

	if statusID == 0 {
		b.send(chatID, text, &keyboard)
		return
	}
	b.edit(chatID, statusID, text, &keyboard)
}

func (b *Bot) reset(chatID int64, explicit bool) {
	cs := b.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := cs.ctrl.Reset(); err != nil && !errors.Is(err, session.ErrIgnored) {
		b.logger.Debug("reset rejected", zap.Error(err))
	}
	cs.field = 0
	cs.statusMsgID = 0
	if explicit {
		b.send(chatID, "Starting over. 🧹", nil)
	}
	b.sendLanding(chatID)
}

func (b *Bot) cancel(chatID int64) {
	cs := b.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if b.rejected(chatID, cs.ctrl.Cancel()) {
		return
	}
	cs.field = 0
	b.send(chatID, "Cancelled. Your answers were discarded.", nil)
	b.sendLanding(chatID)
}

// rejected reports err to the chat and returns true when err is not nil.
func (b *Bot) rejected(chatID int64, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, session.ErrGenerationInFlight):
		b.send(chatID, stillGeneratingText, nil)
	default:
		b.logger.Debug("intent ignored", zap.Int64("chat_id", chatID), zap.Error(err))
		b.send(chatID, "That option is no longer available. Send /start to begin again.", nil)
	}
	return true
}

// chat returns the session of chatID, creating it on first use.
func (b *Bot) chat(chatID int64) *chatSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	cs, ok := b.chats[chatID]
	if !ok {
		cs = &chatSession{}
		cs.ctrl = b.newController(b.ctx, session.WithListener(func(s session.Snapshot) {
			b.onChange(chatID, s)
		}))
		b.chats[chatID] = cs
	}
	return cs
}

// Wait blocks until the generations of every chat have been applied.
func (b *Bot) Wait() {
	b.mu.Lock()
	chats := make([]*chatSession, 0, len(b.chats))
	for _, cs := range b.chats {
		chats = append(chats, cs)
	}
	b.mu.Unlock()

	for _, cs := range chats {
		cs.ctrl.Wait()
	}
}

// === Outgoing messages ===

func (b *Bot) sendLanding(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✨ Build my plan", cbStart),
	))
	b.send(chatID, landingText, &keyboard)
}

func (b *Bot) ask(chatID int64, cs *chatSession) {
	field := lifeplan.Fields[cs.field]
	question := fmt.Sprintf("*%d/%d* %s", cs.field+1, len(lifeplan.Fields), fieldQuestions[field])

	if field != lifeplan.FieldPrimaryFocus {
		b.send(chatID, question, nil)
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(lifeplan.FocusAreas))
	for i, area := range lifeplan.FocusAreas {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(string(area), fmt.Sprintf("%s|%d", cbFocus, i)),
		))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(chatID, question, &keyboard)
}

func (b *Bot) sendDraft(chatID int64, in lifeplan.UserInput) {
	var sb strings.Builder
	sb.WriteString("📝 *Your answers*\n\n")
	for _, f := range lifeplan.Fields {
		fmt.Fprintf(&sb, "• %s: %s\n", escape(string(f)), escape(in.Get(f)))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🚀 Submit again", cbSubmit),
		tgbotapi.NewInlineKeyboardButtonData("✏️ Edit answers", cbEdit),
	))
	b.send(chatID, sb.String(), &keyboard)
}

// sendState tells a user who typed outside the form where they are.
func (b *Bot) sendState(chatID int64, cs *chatSession) {
	switch cs.ctrl.State() {
	case lifeplan.StateGenerating:
		b.send(chatID, stillGeneratingText, nil)
	case lifeplan.StateLanding:
		b.sendLanding(chatID)
	default:
		b.send(chatID, "Use the buttons above, or send /reset to start over.", nil)
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.", nil)
		return
	}
	if b.metricsStore == nil {
		b.send(msg.Chat.ID, "Metrics are disabled.", nil)
		return
	}

	report, err := b.metricsStore.BuildReport(7, b.dataDir)
	if err != nil {
		b.logger.Error("failed to build metrics report", zap.Error(err))
		b.send(msg.Chat.ID, "❌ Error fetching metrics.", nil)
		return
	}
	b.send(msg.Chat.ID, report.Markdown(), nil)
}

func (b *Bot) send(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return sent, err
}

func (b *Bot) edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = keyboard
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatPlan(in lifeplan.UserInput, plan *lifeplan.GeneratedPlan) string {
	if plan == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 *%s's Plan*\n", escape(in.Name))
	if in.PrimaryFocus != "" {
		fmt.Fprintf(&sb, "_Focus: %s_\n", escape(string(in.PrimaryFocus)))
	}

	sb.WriteString("\n⏰ *Daily Routine*\n")
	for _, item := range plan.DailyRoutine {
		fmt.Fprintf(&sb, "• *%s*: %s (%s)\n", escape(item.TimeOfDay), escape(item.Activity), escape(item.Duration))
	}

	sb.WriteString("\n🌱 *Habits to Build*\n")
	for _, habit := range plan.HabitsToBuild {
		fmt.Fprintf(&sb, "• %s\n", escape(habit))
	}

	sb.WriteString("\n✅ *Actionable Steps*\n")
	for i, step := range plan.ActionableSteps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, escape(step))
	}

	fmt.Fprintf(&sb, "\n💬 _%s_\n", escape(plan.MotivationalQuote))
	return sb.String()
}
