package accessgrants

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"patient-access/internal/domain/users"
	"patient-access/internal/middleware"
	"patient-access/internal/platform/pagination"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, dir users.Directory) {
	r.Route("/access", func(ar chi.Router) {
		// Paciente
		ar.Post("/", grantAccessHandler(svc))
		ar.Get("/", listMyGrantsHandler(svc, dir))
		ar.Delete("/{grantID}", revokeGrantHandler(svc))
		ar.Put("/{grantID}/extend", extendGrantHandler(svc))

		// Doctor
		ar.Get("/patients", listMyPatientsHandler(svc, dir))
	})
}

type grantAccessRequest struct {
	DoctorEmail string `json:"doctor_email"`
}

type extendGrantRequest struct {
	Days int `json:"days"`
}

type grantResponse struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	DoctorID  string    `json:"doctor_id"`
	ExpiresAt time.Time `json:"expires_at"`
	GrantedAt time.Time `json:"granted_at"`
	CreatedAt time.Time `json:"created_at"`
}

type activeGrantResponse struct {
	grantResponse
	DoctorName  string `json:"doctor_name"`
	DoctorEmail string `json:"doctor_email"`
}

type patientAccessResponse struct {
	GrantID      string    `json:"grant_id"`
	PatientID    string    `json:"patient_id"`
	PatientName  string    `json:"patient_name"`
	PatientEmail string    `json:"patient_email"`
	ExpiresAt    time.Time `json:"expires_at"`
	GrantedAt    time.Time `json:"granted_at"`
}

// grantAccessHandler godoc
// @Summary Dar acceso a un doctor
// @Description El paciente autenticado da (o refresca) acceso temporal a un doctor identificado por email. Si ya existía, se extiende la ventana; nunca se duplica.
// @Tags access
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body grantAccessRequest true "Email del doctor"
// @Success 201 {object} grantResponse
// @Failure 400 {string} string "invalid json / target is not a doctor"
// @Failure 401 {string} string "unauthorized / unknown caller"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "doctor not found"
// @Router /access [post]
func grantAccessHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req grantAccessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.DoctorEmail) == "" {
			http.Error(w, "doctor_email required", http.StatusBadRequest)
			return
		}

		g, err := svc.Grant(r.Context(), claims.UserID, req.DoctorEmail)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "doctor not found", http.StatusNotFound)
				return
			}
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

// listMyGrantsHandler godoc
// @Summary Listar mis accesos vigentes
// @Tags access
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} activeGrantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /access [get]
func listMyGrantsHandler(svc *Service, dir users.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !hasRole(r, dir, claims.UserID, users.RolePatient) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListActiveForPatient(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]activeGrantResponse, 0, len(items))
		for _, g := range items {
			out = append(out, activeGrantResponse{
				grantResponse: toGrantResponse(g.Grant),
				DoctorName:    g.DoctorName,
				DoctorEmail:   g.DoctorEmail,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// revokeGrantHandler godoc
// @Summary Revocar acceso
// @Tags access
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param grantID path string true "ID del grant"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /access/{grantID} [delete]
func revokeGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Revoke(r.Context(), chi.URLParam(r, "grantID"), claims.UserID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// extendGrantHandler godoc
// @Summary Extender acceso
// @Description Suma días al vencimiento actual (1..ACCESS_MAX_EXTEND_DAYS).
// @Tags access
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param grantID path string true "ID del grant"
// @Param payload body extendGrantRequest true "Días a extender"
// @Success 200 {object} grantResponse
// @Failure 400 {string} string "invalid json / days out of range"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /access/{grantID}/extend [put]
func extendGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req extendGrantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.Extend(r.Context(), chi.URLParam(r, "grantID"), claims.UserID, req.Days)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

// listMyPatientsHandler godoc
// @Summary Listar pacientes con acceso vigente
// @Tags access
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param page query int false "Página (0-based)"
// @Param size query int false "Tamaño de página (max 100)"
// @Success 200 {object} pagination.Page[patientAccessResponse]
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /access/patients [get]
func listMyPatientsHandler(svc *Service, dir users.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !hasRole(r, dir, claims.UserID, users.RoleDoctor) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		page, size := pagination.FromQuery(r.URL.Query())
		out, err := svc.ListPatientsForDoctor(r.Context(), claims.UserID, page, size)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, pagination.Map(out, func(p PatientAccess) patientAccessResponse {
			return patientAccessResponse{
				GrantID:      p.GrantID,
				PatientID:    p.PatientID,
				PatientName:  p.PatientName,
				PatientEmail: p.PatientEmail,
				ExpiresAt:    p.ExpiresAt,
				GrantedAt:    p.GrantedAt,
			}
		}))
	}
}

// hasRole consulta el directorio; el rol del token no es fuente de verdad.
func hasRole(r *http.Request, dir users.Directory, userID string, role users.Role) bool {
	u, err := dir.FindByID(r.Context(), userID)
	return err == nil && u.Role == role
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnknownUser):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		ID:        g.ID,
		PatientID: g.PatientID,
		DoctorID:  g.DoctorID,
		ExpiresAt: g.ExpiresAt,
		GrantedAt: g.GrantedAt,
		CreatedAt: g.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
