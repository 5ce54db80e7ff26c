package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/dmitrijs2005/dealkeeper/internal/logging"
	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
	"github.com/dmitrijs2005/dealkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes the REST API. Routes are registered on a stdlib
// ServeMux using method-qualified patterns.
type Handler struct {
	users       *services.UserService
	deals       *services.DealService
	redemptions *services.RedemptionService
	health      func(ctx context.Context) map[string]error
	logger      logging.Logger
}

func NewHandler(us *services.UserService, ds *services.DealService, rs *services.RedemptionService, health func(ctx context.Context) map[string]error, l logging.Logger) *Handler {
	return &Handler{
		users:       us,
		deals:       ds,
		redemptions: rs,
		health:      health,
		logger:      l.With("module", "httpapi"),
	}
}

// userDTO is the wire shape of a user. The password hash never leaves
// the server.
type userDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Username: u.UserName, Role: string(u.Role)}
}

type authResponse struct {
	User  userDTO `json:"user"`
	Token string  `json:"token"`
}

type dealDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	UsageCap    *int32 `json:"usageCap,omitempty"`
}

func toDealDTO(d *models.Deal) dealDTO {
	return dealDTO{ID: d.ID, Title: d.Title, Description: d.Description, UsageCap: d.UsageCap}
}

type redemptionDTO struct {
	DealID string `json:"dealId"`
	Uses   int32  `json:"uses"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServiceError maps the sentinel error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, common.ErrorDuplicateUsername):
		writeError(w, http.StatusBadRequest, "username already taken")
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrorDealNotFound):
		writeError(w, http.StatusNotFound, "deal not found")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorRedemptionLimit):
		writeError(w, http.StatusConflict, "redemption limit reached")
	case errors.Is(err, common.ErrorStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// RegisterRoutes wires every route onto mux. The gate middleware runs on
// all /api routes; per-route guards add the 401/403 decisions.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, gate func(http.Handler) http.Handler) {
	admin := RequireRole(models.RoleAdmin)

	authed := func(hf http.HandlerFunc) http.Handler {
		return gate(RequireAuth(hf))
	}
	adminOnly := func(hf http.HandlerFunc) http.Handler {
		return gate(admin(hf))
	}

	// auth
	mux.Handle("POST /api/auth", gate(http.HandlerFunc(h.Register)))
	mux.Handle("PUT /api/auth", gate(http.HandlerFunc(h.Login)))
	mux.Handle("DELETE /api/auth", authed(h.Logout))

	// users
	mux.Handle("GET /api/user/me", authed(h.Me))
	mux.Handle("PUT /api/user/{id}", authed(h.UpdateUser))
	mux.Handle("DELETE /api/user/{id}", authed(h.DeleteUser))
	mux.Handle("GET /api/user", adminOnly(h.ListUsers))

	// deals
	mux.Handle("POST /api/deal", adminOnly(h.CreateDeal))
	mux.Handle("GET /api/deal", gate(http.HandlerFunc(h.ListDeals)))
	mux.Handle("GET /api/deal/{id}", gate(http.HandlerFunc(h.GetDeal)))
	mux.Handle("DELETE /api/deal/{id}", adminOnly(h.DeleteDeal))

	// redemptions
	mux.Handle("POST /api/deal/{id}/redeem", authed(h.Redeem))
	mux.Handle("GET /api/redemption", authed(h.ListRedemptions))

	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates an account and returns it logged in. The role comes
// from the request body; admin accounts are bootstrapped out of band.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleUser
	}
	if role == models.RoleAdmin {
		// self-service registration never grants admin
		caller := IdentityFromContext(r.Context())
		if !caller.HasRole(models.RoleAdmin) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
	}

	result, err := h.users.Register(r.Context(), req.Username, req.Password, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: toUserDTO(result.User), Token: result.Token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: toUserDTO(result.User), Token: result.Token})
}

// Logout revokes the presented token's session. Always succeeds for an
// authenticated caller, even on repeat.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), tokenFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), id.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(user))
}

type updateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUser lets a user edit their own account, or an admin edit any.
// Role changes are admin-only. The response carries a fresh token with
// the new claims.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("id")
	caller := IdentityFromContext(r.Context())
	if caller.ID != targetID && !caller.HasRole(models.RoleAdmin) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role != "" && !caller.HasRole(models.RoleAdmin) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	result, err := h.users.Update(r.Context(), targetID, services.UserUpdate{
		UserName: req.Username,
		Role:     models.Role(req.Role),
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: toUserDTO(result.User), Token: result.Token})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("id")
	caller := IdentityFromContext(r.Context())
	if caller.ID != targetID && !caller.HasRole(models.RoleAdmin) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.users.Delete(r.Context(), targetID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// ListUsers returns one page of users. Query params: page (from 0),
// limit, filter (username, '*' wildcards, defaults to all).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	filter := q.Get("filter")
	if filter == "" {
		filter = "*"
	}

	users, more, err := h.users.List(r.Context(), page, limit, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]userDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": dtos, "more": more})
}

type createDealRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UsageCap    *int32 `json:"usageCap"`
}

func (h *Handler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var req createDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deal, err := h.deals.Create(r.Context(), req.Title, req.Description, req.UsageCap)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDealDTO(deal))
}

func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.deals.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]dealDTO, 0, len(deals))
	for _, d := range deals {
		dtos = append(dtos, toDealDTO(d))
	}

	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetDeal(w http.ResponseWriter, r *http.Request) {
	deal, err := h.deals.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDealDTO(deal))
}

func (h *Handler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	if err := h.deals.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deal deleted"})
}

// Redeem consumes one use of a deal for the caller.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	caller := IdentityFromContext(r.Context())

	uses, err := h.redemptions.Redeem(r.Context(), caller.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, redemptionDTO{DealID: r.PathValue("id"), Uses: uses})
}

func (h *Handler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	caller := IdentityFromContext(r.Context())

	recs, err := h.redemptions.ListForUser(r.Context(), caller.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]redemptionDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, redemptionDTO{DealID: rec.DealID, Uses: rec.Uses})
	}

	writeJSON(w, http.StatusOK, dtos)
}

// HealthCheck pings the backends and reports per-backend status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := map[string]string{}
	for name, err := range h.health(r.Context()) {
		if err != nil {
			status = "DEGRADED"
			details[name] = err.Error()
		} else {
			details[name] = "OK"
		}
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
		h.logger.Warn(r.Context(), "health check degraded", "details", details)
	}

	writeJSON(w, code, map[string]any{"status": status, "details": details})
}
