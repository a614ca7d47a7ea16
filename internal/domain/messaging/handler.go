package messaging

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"patient-access/internal/domain/users"
	"patient-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, gate *Gate) {
	r.Route("/messages", func(mr chi.Router) {
		mr.Get("/contacts", listContactsHandler(gate))
		mr.Get("/permissions/{otherUserID}", permissionHandler(gate))
	})
}

type contactResponse struct {
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Role      users.Role `json:"role"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type permissionResponse struct {
	OtherUserID string `json:"other_user_id"`
	CanMessage  bool   `json:"can_message"`
}

// listContactsHandler godoc
// @Summary Contactos habilitados para mensajería
// @Tags messages
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} contactResponse
// @Failure 401 {string} string "unauthorized"
// @Router /messages/contacts [get]
func listContactsHandler(gate *Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := gate.Contacts(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrUnknownUser) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]contactResponse, 0, len(items))
		for _, c := range items {
			out = append(out, contactResponse{
				UserID:    c.UserID,
				Name:      c.Name,
				Role:      c.Role,
				ExpiresAt: c.ExpiresAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// permissionHandler godoc
// @Summary ¿Puedo enviarle mensajes a este usuario?
// @Tags messages
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param otherUserID path string true "ID del otro usuario"
// @Success 200 {object} permissionResponse
// @Failure 401 {string} string "unauthorized"
// @Router /messages/permissions/{otherUserID} [get]
func permissionHandler(gate *Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		other := chi.URLParam(r, "otherUserID")
		allowed, err := gate.CanMessage(r.Context(), claims.UserID, other)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, permissionResponse{OtherUserID: other, CanMessage: allowed})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
