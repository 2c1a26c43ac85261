package handlers

import (
	"encoding/json"

	"github.com/replyhub/admin-gateway/internal/models"
)

// Demo datasets rendered when a page's fetch fails and nothing is
// cached. They are always delivered with the demo marker set; fallback
// data is never presented as live. Write-heavy views (orders,
// invitations) have no default and surface errors instead.

func defaultConversations() json.RawMessage {
	raw, _ := json.Marshal([]map[string]any{
		{
			"customer_name": "Sample Customer",
			"channel":       models.ChannelWhatsApp,
			"last_message":  "Hi! Is this product still available?",
			"status":        models.ConversationOpen,
			"unread_count":  2,
			"auto_reply":    true,
		},
		{
			"customer_name": "Jordan Demo",
			"channel":       models.ChannelFacebook,
			"last_message":  "Thanks, order received!",
			"status":        models.ConversationClosed,
			"unread_count":  0,
			"auto_reply":    false,
		},
	})
	return raw
}

func defaultProducts() json.RawMessage {
	raw, _ := json.Marshal([]map[string]any{
		{"name": "Sample T-Shirt", "sku": "DEMO-TS-01", "price": 19.99, "stock": 120, "is_active": true},
		{"name": "Sample Mug", "sku": "DEMO-MG-01", "price": 9.50, "stock": 40, "is_active": true},
		{"name": "Sample Sticker Pack", "sku": "DEMO-SP-01", "price": 4.00, "stock": 0, "is_active": false},
	})
	return raw
}

func defaultCategories() json.RawMessage {
	raw, _ := json.Marshal([]map[string]any{
		{"name": "Apparel", "description": "Clothing and accessories"},
		{"name": "Drinkware", "description": "Mugs and bottles"},
	})
	return raw
}

func defaultPlans() json.RawMessage {
	raw, _ := json.Marshal([]map[string]any{
		{
			"name":     "Starter",
			"price":    0.0,
			"interval": "monthly",
			"features": []string{"1 channel", "100 auto-replies/month"},
		},
		{
			"name":     "Growth",
			"price":    29.0,
			"interval": "monthly",
			"features": []string{"3 channels", "Unlimited auto-replies", "Order management"},
		},
	})
	return raw
}
