package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/subbu1904/CoinTrackBack/internal/models"
	"github.com/subbu1904/CoinTrackBack/internal/repository"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

type userReader interface {
	CountExisting(ctx context.Context, ids []int64) (int, error)
}

type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	userRepo         userReader
}

// ChatDelivery carries a stored message plus the participant ids it should be
// fanned out to.
type ChatDelivery struct {
	Message      *models.ChatMessage
	RecipientIDs []int64
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
	}
}

// ListConversations fails soft: a storage error degrades to an empty list so a
// flaky read never breaks the inbox view.
func (s *ChatService) ListConversations(
	ctx context.Context,
	actorID int64,
) ([]models.ConversationSummary, error) {
	if actorID <= 0 {
		return nil, ErrInvalidInput
	}

	summaries, err := s.conversationRepo.ListForParticipant(ctx, actorID)
	if err != nil {
		log.Printf("chat: list conversations for user %d: %v", actorID, err)
		return []models.ConversationSummary{}, nil
	}

	return summaries, nil
}

// GetConversation returns pgx.ErrNoRows both for a missing conversation and
// for a caller who is not a participant. A storage error degrades to the same
// not-found result, the get-shaped version of the empty list the other reads
// return.
func (s *ChatService) GetConversation(
	ctx context.Context,
	actorID int64,
	conversationID int64,
) (*models.ConversationSummary, error) {
	if actorID <= 0 || conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	summary, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("chat: get conversation %d for user %d: %v", conversationID, actorID, err)
		}
		return nil, pgx.ErrNoRows
	}

	return summary, nil
}

// ListMessages returns an empty list, not an error, when the caller is not a
// participant; storage errors degrade the same way.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	conversationID int64,
	page int,
	limit int,
) ([]models.ChatMessage, int, error) {
	if actorID <= 0 || conversationID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	member, err := s.conversationRepo.IsParticipant(ctx, conversationID, actorID)
	if err != nil {
		log.Printf("chat: membership check for user %d in conversation %d: %v", actorID, conversationID, err)
		return []models.ChatMessage{}, 0, nil
	}
	if !member {
		return []models.ChatMessage{}, 0, nil
	}

	messages, total, err := s.messageRepo.ListByConversation(
		ctx,
		conversationID,
		limit,
		(page-1)*limit,
	)
	if err != nil {
		log.Printf("chat: list messages in conversation %d: %v", conversationID, err)
		return []models.ChatMessage{}, 0, nil
	}

	return messages, total, nil
}

// SendMessage appends a message, advances last_message_at, and bumps every
// other participant's unread counter in one transaction. A reader can never
// observe the conversation touched without the message and all increments.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	conversationID int64,
	content string,
) (*ChatDelivery, error) {
	if actorID <= 0 || conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txConversationRepo := repository.NewConversationRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)

	member, err := txConversationRepo.IsParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, pgx.ErrNoRows
	}

	message, err := txMessageRepo.Create(ctx, conversationID, actorID, trimmed)
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.Touch(ctx, conversationID); err != nil {
		return nil, err
	}

	if err := txConversationRepo.IncrementUnreadExcept(ctx, conversationID, actorID); err != nil {
		return nil, err
	}

	participantIDs, err := txConversationRepo.ListParticipantIDs(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	recipientIDs := make([]int64, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id != actorID {
			recipientIDs = append(recipientIDs, id)
		}
	}

	return &ChatDelivery{
		Message:      message,
		RecipientIDs: recipientIDs,
	}, nil
}

// MarkAsRead flips is_read on the other participants' messages and resets the
// caller's unread counter, atomically. Non-members get false, not an error.
// Calling again with no new messages is a no-op that still reports true.
func (s *ChatService) MarkAsRead(
	ctx context.Context,
	actorID int64,
	conversationID int64,
) (bool, error) {
	if actorID <= 0 || conversationID <= 0 {
		return false, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txConversationRepo := repository.NewConversationRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)

	member, err := txConversationRepo.ResetUnread(ctx, conversationID, actorID)
	if err != nil {
		return false, err
	}
	if !member {
		return false, nil
	}

	if err := txMessageRepo.MarkConversationRead(ctx, conversationID, actorID); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return true, nil
}

// CreateConversation normalizes the participant list (dedupe, creator always
// included), verifies every id is a real user, and inserts the conversation
// and its participant rows in one transaction.
func (s *ChatService) CreateConversation(
	ctx context.Context,
	creatorID int64,
	participantIDs []int64,
) (*models.Conversation, error) {
	if creatorID <= 0 || len(participantIDs) == 0 {
		return nil, ErrInvalidInput
	}

	normalized := normalizeParticipants(creatorID, participantIDs)
	for _, id := range normalized {
		if id <= 0 {
			return nil, ErrInvalidInput
		}
	}

	count, err := s.userRepo.CountExisting(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if count != len(normalized) {
		return nil, pgx.ErrNoRows
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txConversationRepo := repository.NewConversationRepository(tx)

	conversation, err := txConversationRepo.Create(ctx)
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.AddParticipants(ctx, conversation.ID, normalized); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return conversation, nil
}

func normalizeParticipants(creatorID int64, participantIDs []int64) []int64 {
	seen := map[int64]struct{}{creatorID: {}}
	normalized := []int64{creatorID}
	for _, id := range participantIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		normalized = append(normalized, id)
	}
	return normalized
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
