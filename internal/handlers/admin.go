package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/cache"
	"github.com/replyhub/admin-gateway/internal/fallback"
	"github.com/replyhub/admin-gateway/internal/form"
	"github.com/replyhub/admin-gateway/internal/middleware"
	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/replyhub/admin-gateway/internal/session"
	"github.com/replyhub/admin-gateway/internal/shell"
	"github.com/replyhub/admin-gateway/internal/upstream"
	"github.com/rs/zerolog/log"
)

var orderStatusRe = regexp.MustCompile(`^(pending|paid|shipped|delivered|cancelled)$`)

// AdminHandler serves the dashboard's resource pages. Each resource is
// backed by a long-lived page shell so cached reads survive across
// requests.
type AdminHandler struct {
	client   *upstream.Client
	sessions *session.Store
	pages    map[string]*shell.Page
}

// NewAdminHandler wires one page shell per resource
func NewAdminHandler(client *upstream.Client, sessions *session.Store, qcache *cache.QueryCache, auditor shell.Auditor) *AdminHandler {
	h := &AdminHandler{
		client:   client,
		sessions: sessions,
	}

	h.pages = map[string]*shell.Page{
		models.ResourceConversations: shell.NewPage(
			models.ResourceConversations, sessions, qcache,
			fallback.NewPresenter(models.ResourceConversations, defaultConversations()),
			h.fetchConversations, auditor),
		models.ResourceProducts: shell.NewPage(
			models.ResourceProducts, sessions, qcache,
			fallback.NewPresenter(models.ResourceProducts, defaultProducts()),
			h.fetchProducts, auditor),
		models.ResourceCategories: shell.NewPage(
			models.ResourceCategories, sessions, qcache,
			fallback.NewPresenter(models.ResourceCategories, defaultCategories()),
			h.fetchCategories, auditor),
		models.ResourceOrders: shell.NewPage(
			models.ResourceOrders, sessions, qcache,
			fallback.NewPresenter(models.ResourceOrders, nil),
			h.fetchOrders, auditor),
		models.ResourcePlans: shell.NewPage(
			models.ResourcePlans, sessions, qcache,
			fallback.NewPresenter(models.ResourcePlans, defaultPlans()),
			h.fetchPlans, auditor),
		models.ResourceInvitations: shell.NewPage(
			models.ResourceInvitations, sessions, qcache,
			fallback.NewPresenter(models.ResourceInvitations, nil),
			h.fetchInvitations, auditor),
	}

	return h
}

// Close closes every page shell
func (h *AdminHandler) Close() {
	for _, page := range h.pages {
		page.Close()
	}
}

// --- fetchers ---

func (h *AdminHandler) fetchConversations(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
	conversations, apiErr := h.client.ListConversations(ctx, companyID, params)
	if apiErr != nil {
		return nil, apiErr
	}
	return marshalList(conversations)
}

func (h *AdminHandler) fetchProducts(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
	products, apiErr := h.client.ListProducts(ctx, companyID, params)
	if apiErr != nil {
		return nil, apiErr
	}
	return marshalList(products)
}

func (h *AdminHandler) fetchCategories(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
	categories, apiErr := h.client.ListCategories(ctx, companyID, params)
	if apiErr != nil {
		return nil, apiErr
	}
	return marshalList(categories)
}

func (h *AdminHandler) fetchOrders(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
	orders, apiErr := h.client.ListOrders(ctx, companyID, params)
	if apiErr != nil {
		return nil, apiErr
	}
	return marshalList(orders)
}

func (h *AdminHandler) fetchPlans(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
	plans, apiErr := h.client.ListPlans(ctx, companyID)
	if apiErr != nil {
		return nil, apiErr
	}
	return marshalList(plans)
}

func (h *AdminHandler) fetchInvitations(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
	invitations, apiErr := h.client.ListInvitations(ctx, companyID, params)
	if apiErr != nil {
		return nil, apiErr
	}
	return marshalList(invitations)
}

func marshalList(v any) (json.RawMessage, *upstream.APIError) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &upstream.APIError{Kind: upstream.KindInvalidEnvelope, Message: fmt.Sprintf("failed to re-encode records: %v", err)}
	}
	return raw, nil
}

// --- reads ---

// ListResource renders a resource page
func (h *AdminHandler) ListResource(resource string) http.HandlerFunc {
	page := h.pages[resource]
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := page.View(r.Context(), listParams(r))
		if err != nil {
			h.handleShellErr(w, err)
			return
		}
		if snapshot.State == fallback.StateError {
			writeAPIError(w, snapshot.Err)
			return
		}
		writeData(w, http.StatusOK, snapshot)
	}
}

// --- mutations ---

// CreateProduct creates a product
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeValues(w, r)
	if !ok {
		return
	}

	fc := form.New(nil,
		form.Required("name"),
		form.Required("sku"),
		form.Required("price"),
		form.Numeric("price"),
		form.Numeric("stock"),
	)
	setFields(fc, values)

	company, ok := companyFrom(w, r)
	if !ok {
		return
	}
	h.runMutation(w, r, models.ResourceProducts, "product.create", fc, func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.CreateProduct(ctx, company.ID, v)
	}, http.StatusCreated)
}

// UpdateProduct updates a product
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(w, r)
	if !ok {
		return
	}
	values, ok := decodeValues(w, r)
	if !ok {
		return
	}

	fc := form.New(nil,
		form.Numeric("price"),
		form.Numeric("stock"),
	)
	setFields(fc, values)

	company, ok := companyFrom(w, r)
	if !ok {
		return
	}
	h.runMutation(w, r, models.ResourceProducts, "product.update", fc, func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.UpdateProduct(ctx, company.ID, productID, v)
	}, http.StatusOK)
}

// DeleteProduct deletes a product
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(w, r)
	if !ok {
		return
	}

	company, ok := companyFrom(w, r)
	if !ok {
		return
	}
	h.runMutation(w, r, models.ResourceProducts, "product.delete", form.New(nil), func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.DeleteProduct(ctx, company.ID, productID)
	}, http.StatusOK)
}

// CreateCategory creates a category
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeValues(w, r)
	if !ok {
		return
	}

	fc := form.New(nil, form.Required("name"), form.MinLen("name", 2))
	setFields(fc, values)

	company, ok := companyFrom(w, r)
	if !ok {
		return
	}
	h.runMutation(w, r, models.ResourceCategories, "category.create", fc, func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.CreateCategory(ctx, company.ID, v)
	}, http.StatusCreated)
}

// DeleteCategory deletes a category
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseID(w, r)
	if !ok {
		return
	}

	company, ok := companyFrom(w, r)
	if !ok {
		return
	}
	h.runMutation(w, r, models.ResourceCategories, "category.delete", form.New(nil), func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.DeleteCategory(ctx, company.ID, categoryID)
	}, http.StatusOK)
}

// UpdateOrderStatus transitions an order
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseID(w, r)
	if !ok {
		return
	}
	values, ok := decodeValues(w, r)
	if !ok {
		return
	}

	fc := form.New(nil,
		form.Required("status"),
		form.Pattern("status", orderStatusRe, "Unknown order status"),
	)
	setFields(fc, values)

	company, ok := companyFrom(w, r)
	if !ok {
		return
	}
	h.runMutation(w, r, models.ResourceOrders, "order.update_status", fc, func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.UpdateOrderStatus(ctx, company.ID, orderID, models.OrderStatus(v["status"]))
	}, http.StatusOK)
}

// SetConversationAutoReply toggles auto-reply on a conversation
func (h *AdminHandler) SetConversationAutoReply(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := parseID(w, r)
	if !ok {
		return
	}

	var body struct {
		AutoReply *bool `json:"auto_reply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AutoReply == nil {
		writeError(w, http.StatusBadRequest, "auto_reply is required")
		return
	}

	company, ok := companyFrom(w, r)
	if !ok {
		return
	}
	h.runMutation(w, r, models.ResourceConversations, "conversation.auto_reply", form.New(nil), func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.SetConversationAutoReply(ctx, company.ID, conversationID, *body.AutoReply)
	}, http.StatusOK)
}

// SubscribePlan subscribes the company to a plan
func (h *AdminHandler) SubscribePlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := parseID(w, r)
	if !ok {
		return
	}

	company, ok := companyFrom(w, r)
	if !ok {
		return
	}
	h.runMutation(w, r, models.ResourcePlans, "plan.subscribe", form.New(nil), func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.SubscribePlan(ctx, company.ID, planID)
	}, http.StatusOK)
}

// CreateInvitation invites a team member
func (h *AdminHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeValues(w, r)
	if !ok {
		return
	}

	fc := form.New(nil,
		form.Required("email"),
		form.Email("email"),
		form.Required("role"),
	)
	setFields(fc, values)

	company, ok := companyFrom(w, r)
	if !ok {
		return
	}
	h.runMutation(w, r, models.ResourceInvitations, "invitation.create", fc, func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.CreateInvitation(ctx, company.ID, v)
	}, http.StatusCreated)
}

// --- helpers ---

func (h *AdminHandler) runMutation(w http.ResponseWriter, r *http.Request, resource, action string, fc *form.Controller, op form.SubmitFunc, successStatus int) {
	result, err := h.pages[resource].Mutate(r.Context(), action, fc, op)
	if err != nil {
		h.handleShellErr(w, err)
		return
	}

	switch {
	case len(result.FieldErrors) > 0:
		writeFieldErrors(w, result.FieldErrors)
	case result.NoOp:
		writeError(w, http.StatusConflict, "a submit is already in flight")
	case result.Err != nil:
		writeAPIError(w, result.Err)
	default:
		writeData(w, successStatus, result.Data)
	}
}

func (h *AdminHandler) handleShellErr(w http.ResponseWriter, err error) {
	if errors.Is(err, shell.ErrLoggedOut) {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	log.Error().Err(err).Msg("Page failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func listParams(r *http.Request) models.ListParams {
	q := r.URL.Query()
	params := models.ListParams{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}
	if limit := q.Get("limit"); limit != "" {
		params.Limit, _ = strconv.Atoi(limit)
	}
	if offset := q.Get("offset"); offset != "" {
		params.Offset, _ = strconv.Atoi(offset)
	}
	if recent := q.Get("recent_only"); recent != "" {
		params.RecentOnly, _ = strconv.ParseBool(recent)
	}
	return params
}

func decodeValues(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return values, true
}

func setFields(fc *form.Controller, values map[string]string) {
	for name, value := range values {
		fc.SetField(name, value)
	}
}

func companyFrom(w http.ResponseWriter, r *http.Request) (*models.Company, bool) {
	company, ok := middleware.GetCompany(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
	}
	return company, ok
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
