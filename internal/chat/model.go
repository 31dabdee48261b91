package chat

import "time"

// Conversation pairs two usernames under a stable conversation id. Created on
// the first message between the pair, never updated or deleted.
type Conversation struct {
	ConversationID   string `json:"conversationId"`
	SenderUsername   string `json:"senderUsername"`
	ReceiverUsername string `json:"receiverUsername"`
}

// Offer is the custom-offer attachment a seller can send inside a message.
// Accepted and Cancelled are the only fields mutated after creation.
type Offer struct {
	GigTitle        string  `json:"gigTitle"`
	Price           float64 `json:"price"`
	Description     string  `json:"description"`
	DeliveryInDays  int     `json:"deliveryInDays"`
	OldDeliveryDate string  `json:"oldDeliveryDate,omitempty"`
	NewDeliveryDate string  `json:"newDeliveryDate,omitempty"`
	Accepted        bool    `json:"accepted"`
	Cancelled       bool    `json:"cancelled"`
}

// Message is owned by the chat service. Immutable after creation except
// IsRead and the offer acceptance fields. Every message references an
// existing conversation's id.
type Message struct {
	ID               string    `json:"_id"`
	ConversationID   string    `json:"conversationId"`
	SenderUsername   string    `json:"senderUsername"`
	ReceiverUsername string    `json:"receiverUsername"`
	SenderPicture    string    `json:"senderPicture,omitempty"`
	ReceiverPicture  string    `json:"receiverPicture,omitempty"`
	Body             string    `json:"body"`
	File             string    `json:"file,omitempty"`
	GigID            string    `json:"gigId,omitempty"`
	SellerID         string    `json:"sellerId,omitempty"`
	BuyerID          string    `json:"buyerId,omitempty"`
	HasOffer         bool      `json:"hasOffer"`
	Offer            *Offer    `json:"offer,omitempty"`
	IsRead           bool      `json:"isRead"`
	CreatedAt        time.Time `json:"createdAt"`
}
