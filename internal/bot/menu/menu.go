package menu

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/teacher-kpi/internal/models"
)

const (
	BtnMyScore  = "📊 Мой рейтинг"
	BtnWarnings = "⚠️ Проверка весов"
	BtnReport   = "📥 Отчёт KPI"
)

// GetRoleMenu возвращает меню в зависимости от роли пользователя
func GetRoleMenu(role models.Role) tgbotapi.ReplyKeyboardMarkup {
	switch role {
	case models.Teacher:
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnMyScore)),
		)
	case models.SchoolManager:
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(BtnWarnings),
				tgbotapi.NewKeyboardButton(BtnReport),
			),
		)
	default:
		return tgbotapi.NewReplyKeyboard() // пустое меню
	}
}
