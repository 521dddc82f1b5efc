package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/app"
	"github.com/Spok95/teacher-kpi/internal/bot/menu"
	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/export"
	"github.com/Spok95/teacher-kpi/internal/logging"
	"github.com/Spok95/teacher-kpi/internal/metrics"
	"github.com/Spok95/teacher-kpi/internal/models"
	"github.com/Spok95/teacher-kpi/internal/observability"
	"github.com/Spok95/teacher-kpi/internal/scoring"
	"github.com/Spok95/teacher-kpi/internal/tg"
)

type Service interface {
	TeacherDashboard(ctx context.Context, teacherID int64) (*app.Dashboard, error)
	SchoolWeightWarnings(ctx context.Context, schoolID int64) ([]scoring.WeightValidation, error)
	SchoolReport(ctx context.Context, schoolID int64) (*app.SchoolReport, error)
}

type Bot struct {
	api       tg.Sender
	svc       Service
	users     Users
	limiter   *ChatLimiter
	log       *zap.Logger
	reportDir string
	now       func() time.Time
}

func New(api tg.Sender, svc Service, users Users, reportDir string, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{api: api, svc: svc, users: users, limiter: NewChatLimiter(), log: log, reportDir: reportDir, now: time.Now}
}

// Run читает апдейты до отмены ctx. Каждое сообщение обрабатывается в своей горутине,
// повторная команда в занятом чате отклоняется.
func Run(ctx context.Context, api *tgbotapi.BotAPI, b *Bot) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if upd.Message == nil {
				continue
			}
			metrics.BotUpdates.Inc()
			go b.HandleMessage(ctx, upd.Message)
		}
	}
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := tg.Send(b.api, tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn("telegram send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	release, ok := b.limiter.acquire(chatID)
	if !ok {
		b.send(chatID, "⏳ Предыдущая команда ещё выполняется, подождите.")
		return
	}
	defer release()

	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerErrors.Inc()
			b.log.Error("bot handler panic", zap.Any("panic", r))
			b.send(chatID, "❌ Внутренняя ошибка. Попробуйте позже.")
		}
	}()

	user, err := b.users.ByTelegramID(ctx, msg.From.ID)
	if errors.Is(err, app.ErrNotFound) {
		b.send(chatID, "⚠️ Ваш Telegram не привязан к учётной записи. Обратитесь к администратору школы.")
		return
	}
	if err != nil {
		metrics.HandlerErrors.Inc()
		observability.CaptureErr(err)
		b.send(chatID, "❌ Данные временно недоступны. Попробуйте позже.")
		return
	}
	if !user.IsActive {
		rm := tgbotapi.NewMessage(chatID, "🚫 Доступ к боту временно закрыт. Обратитесь к администратору.")
		rm.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		_, _ = tg.Send(b.api, rm)
		return
	}

	ctx = ctxutil.WithPrincipal(ctx, ctxutil.Principal{UserID: user.ID, Role: user.Role, SchoolID: user.SchoolID})

	switch msg.Text {
	case "/start":
		m := tgbotapi.NewMessage(chatID, "Добро пожаловать! Выберите действие:")
		m.ReplyMarkup = menu.GetRoleMenu(user.Role)
		_, _ = tg.Send(b.api, m)
	case "/myscore", menu.BtnMyScore:
		b.myScore(ctx, chatID, user)
	case "/warnings", menu.BtnWarnings:
		b.warnings(ctx, chatID, user)
	case "/report", menu.BtnReport:
		b.report(ctx, chatID, user)
	default:
		b.send(chatID, "⚠️ Неизвестная команда. Используйте /start")
	}
}

func (b *Bot) failed(ctx context.Context, chatID int64, err error) {
	if errors.Is(err, app.ErrNotFound) {
		b.send(chatID, "❌ Данные не найдены.")
		return
	}
	metrics.HandlerErrors.Inc()
	logging.FromContext(ctx, b.log).Warn("bot command failed", zap.Error(err))
	b.send(chatID, "❌ Данные временно недоступны. Попробуйте позже.")
}

func (b *Bot) myScore(ctx context.Context, chatID int64, u *models.User) {
	if u.Role != models.Teacher {
		b.send(chatID, "Команда доступна только учителям.")
		return
	}
	d, err := b.svc.TeacherDashboard(ctx, u.ID)
	if err != nil {
		b.failed(ctx, chatID, err)
		return
	}
	b.send(chatID, formatDashboard(d))
}

func managerSchool(u *models.User) (int64, bool) {
	if u.Role != models.SchoolManager || u.SchoolID == nil {
		return 0, false
	}
	return *u.SchoolID, true
}

func (b *Bot) warnings(ctx context.Context, chatID int64, u *models.User) {
	schoolID, ok := managerSchool(u)
	if !ok {
		b.send(chatID, "Команда доступна только руководителям школ.")
		return
	}
	ws, err := b.svc.SchoolWeightWarnings(ctx, schoolID)
	if err != nil {
		b.failed(ctx, chatID, err)
		return
	}
	b.send(chatID, formatWarnings(ws))
}

func (b *Bot) report(ctx context.Context, chatID int64, u *models.User) {
	schoolID, ok := managerSchool(u)
	if !ok {
		b.send(chatID, "Команда доступна только руководителям школ.")
		return
	}
	rep, err := b.svc.SchoolReport(ctx, schoolID)
	if err != nil {
		b.failed(ctx, chatID, err)
		return
	}
	wb, err := export.SchoolReport(rep)
	if err != nil {
		b.failed(ctx, chatID, err)
		return
	}
	defer func() { _ = wb.Close() }()

	path, err := wb.SaveTemp(b.reportDir, export.BuildSchoolReportFilename(rep.School.Name, b.now()))
	if err != nil {
		b.failed(ctx, chatID, err)
		return
	}
	defer func() { _ = os.RemoveAll(filepath.Dir(path)) }()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = "Отчёт KPI по школе"
	if _, err := tg.Send(b.api, doc); err != nil {
		metrics.HandlerErrors.Inc()
		b.log.Warn("send report", zap.Error(err))
	}
}

// NotifyWeightWarnings рассылает руководителям школы список должностей с некорректными весами.
func (b *Bot) NotifyWeightWarnings(ctx context.Context, schoolID int64, invalid []scoring.WeightValidation) error {
	managers, err := b.users.ManagersWithTelegram(ctx, schoolID)
	if err != nil {
		return err
	}
	text := formatWarnings(invalid)
	var errs []error
	for _, m := range managers {
		if m.TelegramID == nil {
			continue
		}
		if _, err := tg.Send(b.api, tgbotapi.NewMessage(*m.TelegramID, text)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
