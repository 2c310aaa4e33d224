package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/subbu1904/CoinTrackBack/internal/models"
	"github.com/subbu1904/CoinTrackBack/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestChatServiceConversationFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	creatorID := createChatTestUser(t, ctx, pool)
	secondID := createChatTestUser(t, ctx, pool)
	thirdID := createChatTestUser(t, ctx, pool)
	outsiderID := createChatTestUser(t, ctx, pool)
	t.Cleanup(func() { cleanupChatTestUsers(t, ctx, pool, creatorID, secondID, thirdID, outsiderID) })

	conversation, err := service.CreateConversation(ctx, creatorID, []int64{secondID, thirdID})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if conversation.LastMessageAt.Before(conversation.CreatedAt) {
		t.Fatalf("expected last_message_at >= created_at, got %v < %v",
			conversation.LastMessageAt, conversation.CreatedAt)
	}

	detail, err := service.GetConversation(ctx, creatorID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(detail.ParticipantIDs) != 3 {
		t.Fatalf("expected 3 participants, got %v", detail.ParticipantIDs)
	}
	for _, id := range []int64{creatorID, secondID, thirdID} {
		if unreadCountFor(t, ctx, pool, conversation.ID, id) != 0 {
			t.Fatalf("expected unread_count 0 for user %d after creation", id)
		}
	}

	delivery, err := service.SendMessage(ctx, creatorID, conversation.ID, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if delivery.Message.Content != "hello" || delivery.Message.SenderID != creatorID {
		t.Fatalf("unexpected message %+v", delivery.Message)
	}
	if len(delivery.RecipientIDs) != 2 {
		t.Fatalf("expected 2 recipients, got %v", delivery.RecipientIDs)
	}

	if got := unreadCountFor(t, ctx, pool, conversation.ID, creatorID); got != 0 {
		t.Fatalf("sender unread_count changed, got %d", got)
	}
	if got := unreadCountFor(t, ctx, pool, conversation.ID, secondID); got != 1 {
		t.Fatalf("expected unread_count 1 for second participant, got %d", got)
	}
	if got := unreadCountFor(t, ctx, pool, conversation.ID, thirdID); got != 1 {
		t.Fatalf("expected unread_count 1 for third participant, got %d", got)
	}

	detail, err = service.GetConversation(ctx, creatorID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation after send: %v", err)
	}
	if detail.LastMessage == nil || detail.LastMessage.ID != delivery.Message.ID {
		t.Fatalf("expected last message %d, got %+v", delivery.Message.ID, detail.LastMessage)
	}
	if !detail.LastMessageAt.After(conversation.LastMessageAt) {
		t.Fatalf("expected last_message_at to advance past %v, got %v",
			conversation.LastMessageAt, detail.LastMessageAt)
	}

	ok, err := service.MarkAsRead(ctx, secondID, conversation.ID)
	if err != nil || !ok {
		t.Fatalf("MarkAsRead: ok=%v err=%v", ok, err)
	}
	if got := unreadCountFor(t, ctx, pool, conversation.ID, secondID); got != 0 {
		t.Fatalf("expected unread_count 0 after MarkAsRead, got %d", got)
	}
	if got := unreadCountFor(t, ctx, pool, conversation.ID, thirdID); got != 1 {
		t.Fatalf("expected third participant unread_count untouched, got %d", got)
	}

	// Second call with no new messages is a no-op that still succeeds.
	ok, err = service.MarkAsRead(ctx, secondID, conversation.ID)
	if err != nil || !ok {
		t.Fatalf("repeat MarkAsRead: ok=%v err=%v", ok, err)
	}
	if got := unreadCountFor(t, ctx, pool, conversation.ID, secondID); got != 0 {
		t.Fatalf("expected unread_count still 0, got %d", got)
	}

	if _, err := service.GetConversation(ctx, outsiderID, conversation.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows for non-participant, got %v", err)
	}
}

func TestChatServiceDeduplicatesParticipants(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	creatorID := createChatTestUser(t, ctx, pool)
	otherID := createChatTestUser(t, ctx, pool)
	t.Cleanup(func() { cleanupChatTestUsers(t, ctx, pool, creatorID, otherID) })

	// Creator listed twice plus a duplicate of the other participant.
	conversation, err := service.CreateConversation(
		ctx,
		creatorID,
		[]int64{creatorID, otherID, otherID, creatorID},
	)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	var rowCount int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM conversation_participants
		WHERE conversation_id = $1
	`, conversation.ID).Scan(&rowCount)
	if err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if rowCount != 2 {
		t.Fatalf("expected exactly 2 participant rows, got %d", rowCount)
	}
}

func TestChatServiceAllowsSelfConversation(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	creatorID := createChatTestUser(t, ctx, pool)
	t.Cleanup(func() { cleanupChatTestUsers(t, ctx, pool, creatorID) })

	conversation, err := service.CreateConversation(ctx, creatorID, []int64{creatorID})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	detail, err := service.GetConversation(ctx, creatorID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(detail.ParticipantIDs) != 1 || detail.ParticipantIDs[0] != creatorID {
		t.Fatalf("expected lone creator participant, got %v", detail.ParticipantIDs)
	}
}

func TestChatServiceRejectsNonParticipantSend(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	creatorID := createChatTestUser(t, ctx, pool)
	memberID := createChatTestUser(t, ctx, pool)
	outsiderID := createChatTestUser(t, ctx, pool)
	t.Cleanup(func() { cleanupChatTestUsers(t, ctx, pool, creatorID, memberID, outsiderID) })

	conversation, err := service.CreateConversation(ctx, creatorID, []int64{memberID})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	before, err := service.GetConversation(ctx, creatorID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}

	if _, err := service.SendMessage(ctx, outsiderID, conversation.ID, "intruder"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows for outsider send, got %v", err)
	}

	// The aborted send must leave no trace: no message row, no timestamp
	// advance, no unread increments.
	var messageCount int
	if err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE conversation_id = $1
	`, conversation.ID).Scan(&messageCount); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if messageCount != 0 {
		t.Fatalf("expected no messages after rejected send, got %d", messageCount)
	}

	after, err := service.GetConversation(ctx, creatorID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation after rejected send: %v", err)
	}
	if !after.LastMessageAt.Equal(before.LastMessageAt) {
		t.Fatalf("last_message_at moved from %v to %v", before.LastMessageAt, after.LastMessageAt)
	}
	if got := unreadCountFor(t, ctx, pool, conversation.ID, memberID); got != 0 {
		t.Fatalf("expected unread_count 0 after rejected send, got %d", got)
	}

	messages, _, err := service.ListMessages(ctx, outsiderID, conversation.ID, 1, 50)
	if err != nil {
		t.Fatalf("ListMessages as outsider: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected empty message list for outsider, got %d", len(messages))
	}
}

func TestChatServiceSendRollsBackWhenFanOutFails(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	creatorID := createChatTestUser(t, ctx, pool)
	otherID := createChatTestUser(t, ctx, pool)
	t.Cleanup(func() { cleanupChatTestUsers(t, ctx, pool, creatorID, otherID) })

	conversation, err := service.CreateConversation(ctx, creatorID, []int64{otherID})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	// A trigger scoped to this conversation fails the unread increment after
	// the message insert and the timestamp touch have already run inside the
	// same transaction.
	if _, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION reject_unread_update() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'unread update rejected';
		END;
		$$ LANGUAGE plpgsql
	`); err != nil {
		t.Fatalf("create trigger function: %v", err)
	}
	triggerName := fmt.Sprintf("reject_unread_update_%d", conversation.ID)
	if _, err := pool.Exec(ctx, fmt.Sprintf(`
		CREATE TRIGGER %s
		BEFORE UPDATE ON conversation_participants
		FOR EACH ROW
		WHEN (NEW.conversation_id = %d)
		EXECUTE FUNCTION reject_unread_update()
	`, triggerName, conversation.ID)); err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	t.Cleanup(func() {
		if _, err := pool.Exec(ctx, fmt.Sprintf(
			"DROP TRIGGER IF EXISTS %s ON conversation_participants", triggerName,
		)); err != nil {
			t.Errorf("drop trigger: %v", err)
		}
		if _, err := pool.Exec(ctx, "DROP FUNCTION IF EXISTS reject_unread_update()"); err != nil {
			t.Errorf("drop trigger function: %v", err)
		}
	})

	before := lastMessageAtFor(t, ctx, pool, conversation.ID)

	_, err = service.SendMessage(ctx, creatorID, conversation.ID, "doomed")
	if err == nil {
		t.Fatal("expected SendMessage to fail")
	}
	if errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected a storage error, not not-found: %v", err)
	}

	// The whole transaction rolled back: no message row, no timestamp
	// advance, no counter change.
	var messageCount int
	if err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE conversation_id = $1
	`, conversation.ID).Scan(&messageCount); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if messageCount != 0 {
		t.Fatalf("expected no messages after failed send, got %d", messageCount)
	}
	if after := lastMessageAtFor(t, ctx, pool, conversation.ID); !after.Equal(before) {
		t.Fatalf("last_message_at moved from %v to %v", before, after)
	}
	if got := unreadCountFor(t, ctx, pool, conversation.ID, otherID); got != 0 {
		t.Fatalf("expected unread_count 0 after failed send, got %d", got)
	}
}

func TestChatServiceMessageOrdering(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	creatorID := createChatTestUser(t, ctx, pool)
	otherID := createChatTestUser(t, ctx, pool)
	t.Cleanup(func() { cleanupChatTestUsers(t, ctx, pool, creatorID, otherID) })

	conversation, err := service.CreateConversation(ctx, creatorID, []int64{otherID})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		sender := creatorID
		if content == "second" {
			sender = otherID
		}
		if _, err := service.SendMessage(ctx, sender, conversation.ID, content); err != nil {
			t.Fatalf("SendMessage(%q): %v", content, err)
		}
	}

	messages, total, err := service.ListMessages(ctx, creatorID, conversation.ID, 1, 50)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != len(contents) || len(messages) != len(contents) {
		t.Fatalf("expected %d messages, got %d (total %d)", len(contents), len(messages), total)
	}
	for i, message := range messages {
		if message.Content != contents[i] {
			t.Fatalf("expected message %d to be %q, got %q", i, contents[i], message.Content)
		}
		if i > 0 && message.CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Fatalf("messages out of order at index %d", i)
		}
	}

	detail, err := service.GetConversation(ctx, creatorID, conversation.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if detail.LastMessage == nil || detail.LastMessage.ID != messages[len(messages)-1].ID {
		t.Fatalf("last message mismatch: %+v vs %+v", detail.LastMessage, messages[len(messages)-1])
	}
}

func TestChatServiceConcurrentSendsKeepAllIncrements(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	firstID := createChatTestUser(t, ctx, pool)
	secondID := createChatTestUser(t, ctx, pool)
	readerID := createChatTestUser(t, ctx, pool)
	t.Cleanup(func() { cleanupChatTestUsers(t, ctx, pool, firstID, secondID, readerID) })

	conversation, err := service.CreateConversation(ctx, firstID, []int64{secondID, readerID})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	const sendsPerSender = 5
	var wg sync.WaitGroup
	errCh := make(chan error, 2*sendsPerSender)
	for _, sender := range []int64{firstID, secondID} {
		wg.Add(1)
		go func(senderID int64) {
			defer wg.Done()
			for i := 0; i < sendsPerSender; i++ {
				if _, err := service.SendMessage(ctx, senderID, conversation.ID, fmt.Sprintf("msg %d", i)); err != nil {
					errCh <- err
				}
			}
		}(sender)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent SendMessage: %v", err)
	}

	// The bystander saw every message; each sender missed only their own.
	if got := unreadCountFor(t, ctx, pool, conversation.ID, readerID); got != 2*sendsPerSender {
		t.Fatalf("expected reader unread_count %d, got %d", 2*sendsPerSender, got)
	}
	if got := unreadCountFor(t, ctx, pool, conversation.ID, firstID); got != sendsPerSender {
		t.Fatalf("expected first sender unread_count %d, got %d", sendsPerSender, got)
	}
	if got := unreadCountFor(t, ctx, pool, conversation.ID, secondID); got != sendsPerSender {
		t.Fatalf("expected second sender unread_count %d, got %d", sendsPerSender, got)
	}
}

func TestChatServiceListConversationsOrder(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	actorID := createChatTestUser(t, ctx, pool)
	otherID := createChatTestUser(t, ctx, pool)
	t.Cleanup(func() { cleanupChatTestUsers(t, ctx, pool, actorID, otherID) })

	first, err := service.CreateConversation(ctx, actorID, []int64{otherID})
	if err != nil {
		t.Fatalf("CreateConversation first: %v", err)
	}
	second, err := service.CreateConversation(ctx, actorID, []int64{otherID})
	if err != nil {
		t.Fatalf("CreateConversation second: %v", err)
	}

	// A message in the older conversation moves it to the front.
	if _, err := service.SendMessage(ctx, otherID, first.ID, "bump"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	summaries, err := service.ListConversations(ctx, actorID)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}

	positions := make(map[int64]int, len(summaries))
	for i, summary := range summaries {
		positions[summary.ID] = i
	}
	firstPos, ok := positions[first.ID]
	if !ok {
		t.Fatalf("first conversation missing from list")
	}
	secondPos, ok := positions[second.ID]
	if !ok {
		t.Fatalf("second conversation missing from list")
	}
	if firstPos >= secondPos {
		t.Fatalf("expected bumped conversation before idle one, got positions %d and %d", firstPos, secondPos)
	}

	bumped := summaries[firstPos]
	if bumped.LastMessage == nil || bumped.LastMessage.Content != "bump" {
		t.Fatalf("expected last message 'bump', got %+v", bumped.LastMessage)
	}
	if bumped.UnreadCount != 1 {
		t.Fatalf("expected caller unread_count 1, got %d", bumped.UnreadCount)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationChatService(pool *pgxpool.Pool) *ChatService {
	return NewChatService(
		pool,
		repository.NewConversationRepository(pool),
		repository.NewMessageRepository(pool),
		repository.NewUserRepository(pool),
	)
}

func unreadCountFor(
	t *testing.T,
	ctx context.Context,
	pool *pgxpool.Pool,
	conversationID int64,
	userID int64,
) int {
	t.Helper()

	var count int
	err := pool.QueryRow(ctx, `
		SELECT unread_count
		FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID).Scan(&count)
	if err != nil {
		t.Fatalf("read unread_count for user %d: %v", userID, err)
	}
	return count
}

func lastMessageAtFor(
	t *testing.T,
	ctx context.Context,
	pool *pgxpool.Pool,
	conversationID int64,
) time.Time {
	t.Helper()

	var ts time.Time
	err := pool.QueryRow(ctx, `
		SELECT last_message_at FROM conversations WHERE id = $1
	`, conversationID).Scan(&ts)
	if err != nil {
		t.Fatalf("read last_message_at for conversation %d: %v", conversationID, err)
	}
	return ts
}

func createChatTestUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("chat-test-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         "user",
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user.ID
}

func cleanupChatTestUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	if len(userIDs) == 0 {
		return
	}

	if _, err := pool.Exec(ctx, `
		DELETE FROM conversations
		WHERE id IN (
			SELECT conversation_id FROM conversation_participants WHERE user_id = ANY($1)
		)
	`, userIDs); err != nil {
		t.Fatalf("cleanup conversations: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
