package bot

import (
	"context"
	"database/sql"

	"github.com/Spok95/teacher-kpi/internal/db"
	"github.com/Spok95/teacher-kpi/internal/models"
)

type Users interface {
	ByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	ManagersWithTelegram(ctx context.Context, schoolID int64) ([]models.User, error)
}

type pgUsers struct{ db *sql.DB }

func NewPGUsers(database *sql.DB) Users { return pgUsers{db: database} }

func (u pgUsers) ByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return db.GetUserByTelegramID(ctx, u.db, telegramID)
}

func (u pgUsers) ManagersWithTelegram(ctx context.Context, schoolID int64) ([]models.User, error) {
	return db.ListManagersWithTelegram(ctx, u.db, schoolID)
}
