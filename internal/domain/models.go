package domain

type Car struct {
	ID          string  `db:"id" json:"id"`
	OwnerID     string  `db:"owner_id" json:"ownerId"`
	Title       string  `db:"title" json:"title"`
	Description string  `db:"description" json:"description"`
	Location    string  `db:"location" json:"location"`
	PricePerDay float64 `db:"price_per_day" json:"pricePerDay"`
	Available   bool    `db:"available" json:"available"`
	CreatedAt   string  `db:"created_at" json:"createdAt"`
	UpdatedAt   string  `db:"updated_at" json:"updatedAt,omitempty"`
}

// Availability is the response shape of the availability check endpoint.
type Availability struct {
	Status    string      `json:"status"` // FREE | BOOKED
	Conflicts []DateRange `json:"conflicts,omitempty"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Conversation struct {
	ID        string `db:"id" json:"id"`
	CarID     string `db:"car_id" json:"carId"`
	RenterID  string `db:"renter_id" json:"renterId"`
	OwnerID   string `db:"owner_id" json:"ownerId"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

type Message struct {
	ID             string `db:"id" json:"id"`
	ConversationID string `db:"conversation_id" json:"conversationId"`
	SenderID       string `db:"sender_id" json:"senderId"`
	Body           string `db:"body" json:"body"`
	CreatedAt      string `db:"created_at" json:"createdAt"`
}

type Review struct {
	ID        string `db:"id" json:"id"`
	CarID     string `db:"car_id" json:"carId"`
	AuthorID  string `db:"author_id" json:"authorId"`
	Rating    int    `db:"rating" json:"rating"`
	Comment   string `db:"comment" json:"comment"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}
