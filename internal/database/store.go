package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	errs "github.com/edgard/groupmebot/internal/errors"
	"github.com/edgard/groupmebot/internal/logger"
)

// Store defines the interface for database operations.
// Every operation touches a single row (or clears a single table) and is
// atomic on its own.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveSetting upserts a settings value.
	SaveSetting(ctx context.Context, key, value string) error
	// GetSetting returns a settings value, or a NotConfigured error if the
	// key was never set. An empty stored value is returned as "".
	GetSetting(ctx context.Context, key string) (string, error)

	SaveSchedule(ctx context.Context, schedule string) error
	GetSchedule(ctx context.Context) (string, error)
	SaveSheetLink(ctx context.Context, link string) error
	GetSheetLink(ctx context.Context) (string, error)
	SaveGroupID(ctx context.Context, groupID string) error
	GetGroupID(ctx context.Context) (string, error)

	// SaveToken overwrites the single OAuth token slot.
	SaveToken(ctx context.Context, token string) error
	// GetToken returns the stored OAuth token, or "" if none was saved.
	GetToken(ctx context.Context) (string, error)

	// SaveMessage upserts a message record by id.
	SaveMessage(ctx context.Context, message *Message) error
	// GetAllMessages returns every logged message.
	GetAllMessages(ctx context.Context) ([]Message, error)
	// ClearMessages deletes every logged message.
	ClearMessages(ctx context.Context) error

	// MarkCalendarEventCreated records that a calendar event was created.
	MarkCalendarEventCreated(ctx context.Context, eventKey, groupID string) error
	// IsCalendarEventCreated reports whether eventKey was already created.
	IsCalendarEventCreated(ctx context.Context, eventKey string) (bool, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, log *slog.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	return &sqlxStore{
		db:     db,
		logger: log.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var notConfiguredMessages = map[string]string{
	SettingSchedule: MsgNoSchedule,
	SettingLink:     MsgNoSheet,
	SettingGroupID:  MsgNoGroupID,
}

func (s *sqlxStore) SaveSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("setting key cannot be empty")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving setting", "key", key, "error", err)
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}

	s.logger.DebugContext(ctx, "Setting saved", "key", key)
	return nil
}

func (s *sqlxStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		msg, ok := notConfiguredMessages[key]
		if !ok {
			msg = fmt.Sprintf("setting %q is not configured", key)
		}
		return "", errs.NewNotConfigured(msg)

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching setting", "key", key, "error", err)
		return "", err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting setting", "key", key, "error", err)
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}

	return value, nil
}

func (s *sqlxStore) SaveSchedule(ctx context.Context, schedule string) error {
	return s.SaveSetting(ctx, SettingSchedule, schedule)
}

func (s *sqlxStore) GetSchedule(ctx context.Context) (string, error) {
	return s.GetSetting(ctx, SettingSchedule)
}

func (s *sqlxStore) SaveSheetLink(ctx context.Context, link string) error {
	return s.SaveSetting(ctx, SettingLink, link)
}

func (s *sqlxStore) GetSheetLink(ctx context.Context) (string, error) {
	return s.GetSetting(ctx, SettingLink)
}

func (s *sqlxStore) SaveGroupID(ctx context.Context, groupID string) error {
	return s.SaveSetting(ctx, SettingGroupID, groupID)
}

func (s *sqlxStore) GetGroupID(ctx context.Context) (string, error) {
	return s.GetSetting(ctx, SettingGroupID)
}

func (s *sqlxStore) SaveToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, token) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token`, credentialRowID, token)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving token", "error", err)
		return fmt.Errorf("failed to save token: %w", err)
	}

	s.logger.InfoContext(ctx, "OAuth token saved")
	return nil
}

func (s *sqlxStore) GetToken(ctx context.Context) (string, error) {
	var token string
	err := s.db.GetContext(ctx, &token, `SELECT token FROM credentials WHERE id = ?`, credentialRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting token", "error", err)
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// SaveMessage upserts a message record; a repeated id replaces the row.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.ID == "" {
		return fmt.Errorf("message must have a non-empty id")
	}

	query := `
        INSERT INTO messages (id, created_at, group_id, sender_id)
        VALUES (:id, :created_at, :group_id, :sender_id)
        ON CONFLICT(id) DO UPDATE SET
            created_at = excluded.created_at,
            group_id = excluded.group_id,
            sender_id = excluded.sender_id;
    `

	if _, err := s.db.NamedExecContext(ctx, query, message); err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "message_id", message.ID, "error", err)
		return fmt.Errorf("failed to save message %s: %w", message.ID, err)
	}

	s.logger.DebugContext(ctx, "Message saved successfully", "message_id", message.ID, "group_id", message.GroupID)
	return nil
}

func (s *sqlxStore) GetAllMessages(ctx context.Context) ([]Message, error) {
	var messages []Message
	err := s.db.SelectContext(ctx, &messages,
		`SELECT id, created_at, group_id, sender_id FROM messages ORDER BY created_at, id`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting messages", "error", err)
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

func (s *sqlxStore) ClearMessages(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error clearing messages", "error", err)
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil {
		s.logger.InfoContext(ctx, "Cleared message log", "deleted", affected)
	}
	return nil
}

func (s *sqlxStore) MarkCalendarEventCreated(ctx context.Context, eventKey, groupID string) error {
	record := CalendarEvent{EventKey: eventKey, GroupID: groupID, CreatedAt: time.Now().UTC()}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO calendar_events (event_key, group_id, created_at)
		 VALUES (:event_key, :group_id, :created_at)
		 ON CONFLICT(event_key) DO NOTHING`, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording calendar event", "event_key", eventKey, "error", err)
		return fmt.Errorf("failed to record calendar event %q: %w", eventKey, err)
	}
	return nil
}

func (s *sqlxStore) IsCalendarEventCreated(ctx context.Context, eventKey string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM calendar_events WHERE event_key = ?`, eventKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error checking calendar event", "event_key", eventKey, "error", err)
		return false, fmt.Errorf("failed to check calendar event %q: %w", eventKey, err)
	}
	return count > 0, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
