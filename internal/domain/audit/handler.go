package audit

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"patient-access/internal/domain/users"
	"patient-access/internal/middleware"
	"patient-access/internal/observability/metrics"
	"patient-access/internal/platform/pagination"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, dir users.Directory) {
	r.Get("/audit-logs", listAuditLogsHandler(svc, dir))
}

type entryResponse struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	ActorID     string    `json:"actor_id"`
	ActorName   string    `json:"actor_name"`
	ActorRole   ActorRole `json:"actor_role"`
	Action      Action    `json:"action"`
	RecordID    string    `json:"record_id,omitempty"`
	RecordTitle string    `json:"record_title,omitempty"`
	Details     string    `json:"details"`
	CreatedAt   time.Time `json:"created_at"`
}

// listAuditLogsHandler godoc
// @Summary Listar audit log
// @Description Paciente: eventos sobre sus datos. Doctor: eventos que él realizó. Otros roles: 403.
// @Tags audit
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param page query int false "Página (0-based)"
// @Param size query int false "Tamaño de página (max 100)"
// @Success 200 {object} pagination.Page[entryResponse]
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /audit-logs [get]
func listAuditLogsHandler(svc *Service, dir users.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		caller, err := dir.FindByID(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		page, size := pagination.FromQuery(r.URL.Query())

		var out pagination.Page[Entry]
		switch caller.Role {
		case users.RolePatient:
			out, err = svc.QueryForPatient(r.Context(), caller.ID, page, size)
		case users.RoleDoctor:
			out, err = svc.QueryForActor(r.Context(), caller.ID, page, size)
		case users.RoleHospital, users.RolePharmacy, users.RoleAmbulance,
			users.RoleLab, users.RoleInsurance, users.RoleAdmin:
			metrics.AccessDeniedTotal.WithLabelValues("audit").Inc()
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		default:
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, pagination.Map(out, toEntryResponse))
	}
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		PatientID:   e.PatientID,
		PatientName: e.PatientName,
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		ActorRole:   e.ActorRole,
		Action:      e.Action,
		RecordID:    e.RecordID,
		RecordTitle: e.RecordTitle,
		Details:     e.Details,
		CreatedAt:   e.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
