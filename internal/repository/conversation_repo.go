package repository

import (
	"context"
	"database/sql"

	"github.com/subbu1904/CoinTrackBack/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(ctx context.Context) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations DEFAULT VALUES
		RETURNING id, created_at, last_message_at
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query).Scan(
		&conversation.ID,
		&conversation.CreatedAt,
		&conversation.LastMessageAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

// AddParticipants is idempotent per (conversation, user) pair: re-adding an
// existing participant is a no-op and keeps their unread counter.
func (r *ConversationRepository) AddParticipants(
	ctx context.Context,
	conversationID int64,
	userIDs []int64,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id)
		SELECT $1, uid FROM unnest($2::bigint[]) AS uid
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`, conversationID, userIDs)
	return err
}

func (r *ConversationRepository) IsParticipant(
	ctx context.Context,
	conversationID int64,
	userID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetByIDForParticipant returns pgx.ErrNoRows both when the conversation does
// not exist and when the caller is not a member, so non-members cannot probe
// for conversation existence.
func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	conversationID int64,
	participantID int64,
) (*models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.created_at,
			c.last_message_at,
			cp.unread_count,
			pids.ids,
			lm.id,
			lm.conversation_id,
			lm.sender_id,
			lm.content,
			lm.is_read,
			lm.created_at
		FROM conversations c
		JOIN conversation_participants cp
			ON cp.conversation_id = c.id AND cp.user_id = $2
		LEFT JOIN LATERAL (
			SELECT array_agg(user_id ORDER BY created_at, user_id) AS ids
			FROM conversation_participants
			WHERE conversation_id = c.id
		) pids ON TRUE
		LEFT JOIN LATERAL (
			SELECT id, conversation_id, sender_id, content, is_read, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		WHERE c.id = $1
	`

	var summary models.ConversationSummary
	var messageID sql.NullInt64
	var messageConversationID sql.NullInt64
	var messageSenderID sql.NullInt64
	var messageContent sql.NullString
	var messageIsRead sql.NullBool
	var messageCreatedAt sql.NullTime

	err := r.db.QueryRow(ctx, query, conversationID, participantID).Scan(
		&summary.ID,
		&summary.CreatedAt,
		&summary.LastMessageAt,
		&summary.UnreadCount,
		&summary.ParticipantIDs,
		&messageID,
		&messageConversationID,
		&messageSenderID,
		&messageContent,
		&messageIsRead,
		&messageCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if messageID.Valid {
		summary.LastMessage = &models.ChatMessage{
			ID:             messageID.Int64,
			ConversationID: messageConversationID.Int64,
			SenderID:       messageSenderID.Int64,
			Content:        messageContent.String,
			IsRead:         messageIsRead.Bool,
			CreatedAt:      messageCreatedAt.Time,
		}
	}

	return &summary, nil
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.created_at,
			c.last_message_at,
			cp.unread_count,
			pids.ids,
			lm.id,
			lm.conversation_id,
			lm.sender_id,
			lm.content,
			lm.is_read,
			lm.created_at
		FROM conversations c
		JOIN conversation_participants cp
			ON cp.conversation_id = c.id AND cp.user_id = $1
		LEFT JOIN LATERAL (
			SELECT array_agg(user_id ORDER BY created_at, user_id) AS ids
			FROM conversation_participants
			WHERE conversation_id = c.id
		) pids ON TRUE
		LEFT JOIN LATERAL (
			SELECT id, conversation_id, sender_id, content, is_read, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		ORDER BY c.last_message_at DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var messageID sql.NullInt64
		var messageConversationID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageContent sql.NullString
		var messageIsRead sql.NullBool
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.CreatedAt,
			&summary.LastMessageAt,
			&summary.UnreadCount,
			&summary.ParticipantIDs,
			&messageID,
			&messageConversationID,
			&messageSenderID,
			&messageContent,
			&messageIsRead,
			&messageCreatedAt,
		); err != nil {
			return nil, err
		}

		if messageID.Valid {
			summary.LastMessage = &models.ChatMessage{
				ID:             messageID.Int64,
				ConversationID: messageConversationID.Int64,
				SenderID:       messageSenderID.Int64,
				Content:        messageContent.String,
				IsRead:         messageIsRead.Bool,
				CreatedAt:      messageCreatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *ConversationRepository) ListParticipantIDs(
	ctx context.Context,
	conversationID int64,
) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id
		FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY created_at, user_id
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *ConversationRepository) Touch(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = NOW()
		WHERE id = $1
	`, conversationID)
	return err
}

// IncrementUnreadExcept bumps every participant's counter but the sender's in
// one relative update, so concurrent sends serialize on the row locks instead
// of losing increments to read-modify-write races.
func (r *ConversationRepository) IncrementUnreadExcept(
	ctx context.Context,
	conversationID int64,
	senderID int64,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversation_participants
		SET unread_count = unread_count + 1
		WHERE conversation_id = $1
		  AND user_id <> $2
	`, conversationID, senderID)
	return err
}

func (r *ConversationRepository) ResetUnread(
	ctx context.Context,
	conversationID int64,
	userID int64,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE conversation_participants
		SET unread_count = 0
		WHERE conversation_id = $1
		  AND user_id = $2
	`, conversationID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
