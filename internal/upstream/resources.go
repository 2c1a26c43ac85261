package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/models"
)

// Typed wrappers over Request. Every list decode re-checks that each
// record belongs to the requesting company; a record scoped to another
// tenant means the response cannot be trusted and is rejected as an
// envelope violation.

// ListConversations retrieves the company's conversations
func (c *Client) ListConversations(ctx context.Context, companyID uuid.UUID, params models.ListParams) ([]models.Conversation, *APIError) {
	data, apiErr := c.Request(ctx, http.MethodGet, models.ResourceConversations, companyID, "", params.Values(), nil)
	if apiErr != nil {
		return nil, apiErr
	}

	var conversations []models.Conversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, invalidEnvelope(fmt.Sprintf("failed to decode conversations: %v", err))
	}
	for _, conv := range conversations {
		if conv.CompanyID != companyID {
			return nil, invalidEnvelope(fmt.Sprintf("conversation %s is scoped to another company", conv.ID))
		}
	}
	return conversations, nil
}

// SetConversationAutoReply toggles auto-reply on a conversation
func (c *Client) SetConversationAutoReply(ctx context.Context, companyID, conversationID uuid.UUID, enabled bool) (json.RawMessage, *APIError) {
	body := map[string]bool{"auto_reply": enabled}
	return c.Request(ctx, http.MethodPatch, models.ResourceConversations, companyID, "/"+conversationID.String(), nil, body)
}

// ListProducts retrieves the company's products
func (c *Client) ListProducts(ctx context.Context, companyID uuid.UUID, params models.ListParams) ([]models.Product, *APIError) {
	data, apiErr := c.Request(ctx, http.MethodGet, models.ResourceProducts, companyID, "", params.Values(), nil)
	if apiErr != nil {
		return nil, apiErr
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, invalidEnvelope(fmt.Sprintf("failed to decode products: %v", err))
	}
	for _, p := range products {
		if p.CompanyID != companyID {
			return nil, invalidEnvelope(fmt.Sprintf("product %s is scoped to another company", p.ID))
		}
	}
	return products, nil
}

// CreateProduct creates a product
func (c *Client) CreateProduct(ctx context.Context, companyID uuid.UUID, values map[string]string) (json.RawMessage, *APIError) {
	return c.Request(ctx, http.MethodPost, models.ResourceProducts, companyID, "", nil, values)
}

// UpdateProduct updates a product
func (c *Client) UpdateProduct(ctx context.Context, companyID, productID uuid.UUID, values map[string]string) (json.RawMessage, *APIError) {
	return c.Request(ctx, http.MethodPut, models.ResourceProducts, companyID, "/"+productID.String(), nil, values)
}

// DeleteProduct deletes a product
func (c *Client) DeleteProduct(ctx context.Context, companyID, productID uuid.UUID) (json.RawMessage, *APIError) {
	return c.Request(ctx, http.MethodDelete, models.ResourceProducts, companyID, "/"+productID.String(), nil, nil)
}

// ListCategories retrieves the company's categories
func (c *Client) ListCategories(ctx context.Context, companyID uuid.UUID, params models.ListParams) ([]models.Category, *APIError) {
	data, apiErr := c.Request(ctx, http.MethodGet, models.ResourceCategories, companyID, "", params.Values(), nil)
	if apiErr != nil {
		return nil, apiErr
	}

	var categories []models.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, invalidEnvelope(fmt.Sprintf("failed to decode categories: %v", err))
	}
	for _, cat := range categories {
		if cat.CompanyID != companyID {
			return nil, invalidEnvelope(fmt.Sprintf("category %s is scoped to another company", cat.ID))
		}
	}
	return categories, nil
}

// CreateCategory creates a category
func (c *Client) CreateCategory(ctx context.Context, companyID uuid.UUID, values map[string]string) (json.RawMessage, *APIError) {
	return c.Request(ctx, http.MethodPost, models.ResourceCategories, companyID, "", nil, values)
}

// DeleteCategory deletes a category
func (c *Client) DeleteCategory(ctx context.Context, companyID, categoryID uuid.UUID) (json.RawMessage, *APIError) {
	return c.Request(ctx, http.MethodDelete, models.ResourceCategories, companyID, "/"+categoryID.String(), nil, nil)
}

// ListOrders retrieves the company's orders
func (c *Client) ListOrders(ctx context.Context, companyID uuid.UUID, params models.ListParams) ([]models.Order, *APIError) {
	data, apiErr := c.Request(ctx, http.MethodGet, models.ResourceOrders, companyID, "", params.Values(), nil)
	if apiErr != nil {
		return nil, apiErr
	}

	var orders []models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, invalidEnvelope(fmt.Sprintf("failed to decode orders: %v", err))
	}
	for _, o := range orders {
		if o.CompanyID != companyID {
			return nil, invalidEnvelope(fmt.Sprintf("order %s is scoped to another company", o.ID))
		}
	}
	return orders, nil
}

// UpdateOrderStatus transitions an order's fulfilment status
func (c *Client) UpdateOrderStatus(ctx context.Context, companyID, orderID uuid.UUID, status models.OrderStatus) (json.RawMessage, *APIError) {
	body := map[string]string{"status": string(status)}
	return c.Request(ctx, http.MethodPatch, models.ResourceOrders, companyID, "/"+orderID.String(), nil, body)
}

// ListPlans retrieves the subscription plans offered to the company
func (c *Client) ListPlans(ctx context.Context, companyID uuid.UUID) ([]models.SubscriptionPlan, *APIError) {
	data, apiErr := c.Request(ctx, http.MethodGet, models.ResourcePlans, companyID, "", nil, nil)
	if apiErr != nil {
		return nil, apiErr
	}

	var plans []models.SubscriptionPlan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, invalidEnvelope(fmt.Sprintf("failed to decode plans: %v", err))
	}
	for _, p := range plans {
		if p.CompanyID != companyID {
			return nil, invalidEnvelope(fmt.Sprintf("plan %s is scoped to another company", p.ID))
		}
	}
	return plans, nil
}

// SubscribePlan subscribes the company to a plan
func (c *Client) SubscribePlan(ctx context.Context, companyID, planID uuid.UUID) (json.RawMessage, *APIError) {
	return c.Request(ctx, http.MethodPost, models.ResourcePlans, companyID, "/"+planID.String()+"/subscribe", nil, nil)
}

// ListInvitations retrieves the company's pending invitations
func (c *Client) ListInvitations(ctx context.Context, companyID uuid.UUID, params models.ListParams) ([]models.Invitation, *APIError) {
	data, apiErr := c.Request(ctx, http.MethodGet, models.ResourceInvitations, companyID, "", params.Values(), nil)
	if apiErr != nil {
		return nil, apiErr
	}

	var invitations []models.Invitation
	if err := json.Unmarshal(data, &invitations); err != nil {
		return nil, invalidEnvelope(fmt.Sprintf("failed to decode invitations: %v", err))
	}
	for _, inv := range invitations {
		if inv.CompanyID != companyID {
			return nil, invalidEnvelope(fmt.Sprintf("invitation %s is scoped to another company", inv.ID))
		}
	}
	return invitations, nil
}

// CreateInvitation invites a team member
func (c *Client) CreateInvitation(ctx context.Context, companyID uuid.UUID, values map[string]string) (json.RawMessage, *APIError) {
	return c.Request(ctx, http.MethodPost, models.ResourceInvitations, companyID, "", nil, values)
}

// LoginCompany authenticates and decodes the resulting company
func (c *Client) LoginCompany(ctx context.Context, email, password string) (*models.Company, *APIError) {
	data, apiErr := c.Login(ctx, email, password)
	if apiErr != nil {
		return nil, apiErr
	}

	var company models.Company
	if err := json.Unmarshal(data, &company); err != nil {
		return nil, invalidEnvelope(fmt.Sprintf("failed to decode company: %v", err))
	}
	if company.ID == uuid.Nil {
		return nil, invalidEnvelope("login response carries no company id")
	}
	return &company, nil
}
