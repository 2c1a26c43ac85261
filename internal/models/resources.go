package models

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Resource names as they appear in platform URLs and cache keys.
const (
	ResourceConversations = "conversations"
	ResourceProducts      = "products"
	ResourceCategories    = "categories"
	ResourceOrders        = "orders"
	ResourcePlans         = "plans"
	ResourceInvitations   = "invitations"
)

// ConversationStatus represents the state of a customer conversation
type ConversationStatus string

const (
	ConversationOpen    ConversationStatus = "open"
	ConversationPending ConversationStatus = "pending"
	ConversationClosed  ConversationStatus = "closed"
)

// Channel identifies the messaging channel a conversation arrived on
type Channel string

const (
	ChannelFacebook Channel = "facebook"
	ChannelWhatsApp Channel = "whatsapp"
)

// Conversation represents a customer messaging thread
type Conversation struct {
	ID           uuid.UUID          `json:"id"`
	CompanyID    uuid.UUID          `json:"company_id"`
	Channel      Channel            `json:"channel"`
	CustomerName string             `json:"customer_name"`
	LastMessage  string             `json:"last_message"`
	Status       ConversationStatus `json:"status"`
	UnreadCount  int                `json:"unread_count"`
	AutoReply    bool               `json:"auto_reply"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Product represents a catalog item
type Product struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	CategoryID  uuid.UUID `json:"category_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SKU         string    `json:"sku"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderStatus represents the fulfilment state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Order represents a customer order
type Order struct {
	ID            uuid.UUID   `json:"id"`
	CompanyID     uuid.UUID   `json:"company_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	ItemCount     int         `json:"item_count"`
	Total         float64     `json:"total"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}

// SubscriptionPlan represents a billing plan offered to the company
type SubscriptionPlan struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Interval  string    `json:"interval"` // monthly, yearly
	Features  []string  `json:"features"`
	IsCurrent bool      `json:"is_current"`
	IsActive  bool      `json:"is_active"`
}

// InvitationStatus represents the state of a team invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation represents a pending team-member invitation
type Invitation struct {
	ID        uuid.UUID        `json:"id"`
	CompanyID uuid.UUID        `json:"company_id"`
	Email     string           `json:"email"`
	Role      string           `json:"role"`
	Status    InvitationStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// ListParams represents list query parameters accepted by the platform
type ListParams struct {
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
	Status     string `json:"status,omitempty"`
	Search     string `json:"search,omitempty"`
	RecentOnly bool   `json:"recent_only,omitempty"`
}

// Values encodes the parameters as a query string
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.RecentOnly {
		v.Set("recent_only", "true")
	}
	return v
}
