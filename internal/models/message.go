package models

// Message kinds. An image message may carry an empty body.
const (
	KindText  = "text"
	KindImage = "image"
)

// ChatMessage is a single entry in the community chat log. The id is assigned
// by the sending client; seq is assigned by the store at persistence time and
// breaks ordering ties between messages carrying the same client timestamp.
type ChatMessage struct {
	ID         string `db:"id" json:"id"`
	SenderID   string `db:"sender_id" json:"sender_id"`
	SenderName string `db:"sender_name" json:"sender_name"`
	SenderRole Role   `db:"sender_role" json:"sender_role"`
	Body       string `db:"body" json:"body"`
	ImageURL   string `db:"image_url" json:"image_url,omitempty"`
	Kind       string `db:"kind" json:"kind"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
	Seq        int64  `db:"seq" json:"seq"`
}

// Before reports whether m sorts ahead of other in the feed ordering:
// client timestamp first, persistence sequence as tiebreaker.
func (m ChatMessage) Before(other ChatMessage) bool {
	if m.CreatedAt != other.CreatedAt {
		return m.CreatedAt < other.CreatedAt
	}
	return m.Seq < other.Seq
}
