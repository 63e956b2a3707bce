package repos

import (
	"driveshare/internal/domain"

	"github.com/jmoiron/sqlx"
)

type MessageRepo struct{ db *sqlx.DB }

func NewMessageRepo(db *sqlx.DB) *MessageRepo { return &MessageRepo{db: db} }

// EnsureConversation finds or creates the (car, renter) conversation thread.
func (r *MessageRepo) EnsureConversation(id, carID, renterID, ownerID string) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.Get(&conv, `
	  SELECT id, car_id, renter_id, owner_id, created_at
	  FROM conversations WHERE car_id = ? AND renter_id = ?
	`, carID, renterID)
	if err == nil {
		return conv, nil
	}
	if _, err := r.db.Exec(`
	  INSERT INTO conversations(id, car_id, renter_id, owner_id, created_at)
	  VALUES(?,?,?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(car_id, renter_id) DO NOTHING
	`, id, carID, renterID, ownerID); err != nil {
		return domain.Conversation{}, err
	}
	err = r.db.Get(&conv, `
	  SELECT id, car_id, renter_id, owner_id, created_at
	  FROM conversations WHERE car_id = ? AND renter_id = ?
	`, carID, renterID)
	return conv, err
}

func (r *MessageRepo) GetConversation(id string) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.Get(&conv, `
	  SELECT id, car_id, renter_id, owner_id, created_at FROM conversations WHERE id = ?
	`, id)
	return conv, err
}

func (r *MessageRepo) ListConversations(userID string) ([]domain.Conversation, error) {
	out := []domain.Conversation{}
	err := r.db.Select(&out, `
	  SELECT id, car_id, renter_id, owner_id, created_at
	  FROM conversations
	  WHERE renter_id = ? OR owner_id = ?
	  ORDER BY created_at DESC
	`, userID, userID)
	return out, err
}

func (r *MessageRepo) Append(m *domain.Message) error {
	_, err := r.db.Exec(`
	  INSERT INTO messages(id, conversation_id, sender_id, body, created_at)
	  VALUES(?,?,?,?,CURRENT_TIMESTAMP)
	`, m.ID, m.ConversationID, m.SenderID, m.Body)
	return err
}

func (r *MessageRepo) ListMessages(conversationID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Message{}
	err := r.db.Select(&out, `
	  SELECT id, conversation_id, sender_id, body, created_at
	  FROM messages
	  WHERE conversation_id = ?
	  ORDER BY created_at
	  LIMIT ?
	`, conversationID, limit)
	return out, err
}
