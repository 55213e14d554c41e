package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"cobro-engine/internal/api/handler/dto"
	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/pkg/apperrors"
)

type ClientHandler struct {
	service client.Service
	logger  *slog.Logger
}

func NewClientHandler(s client.Service, l *slog.Logger) *ClientHandler {
	return &ClientHandler{
		service: s,
		logger:  l.With("component", "ClientHandler"),
	}
}

// CreateClient registers a new client on a route.
//
// @Summary Create a new client
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body dto.CreateClientRequest true "Client creation request payload"
// @Success 201 {object} dto.ClientResponse "Client successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients [post]
// @Security BearerAuth
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateClient(r.Context(), req.RouteID, req.Name, req.Address)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewClientResponse(created))
}

// GetClient retrieves a client.
//
// @Summary Retrieve client details
// @Tags Clients
// @Produce json
// @Param clientID path int true "Client ID"
// @Success 200 {object} dto.ClientResponse "Client details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID} [get]
// @Security BearerAuth
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := idFromURL(r, "clientID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	c, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewClientResponse(c))
}

// ListClients lists the clients of a route.
//
// @Summary List clients by route
// @Tags Clients
// @Produce json
// @Param routeID path int true "Route ID"
// @Success 200 {array} dto.ClientResponse "Clients successfully listed"
// @Failure 400 {object} dto.ErrorResponse "Invalid route ID"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /routes/{routeID}/clients [get]
// @Security BearerAuth
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	routeID, err := idFromURL(r, "routeID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	clients, err := h.service.ListClientsByRoute(r.Context(), routeID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.ClientResponse, len(clients))
	for i := range clients {
		resp[i] = dto.NewClientResponse(&clients[i])
	}
	respondJSON(w, http.StatusOK, resp)
}
