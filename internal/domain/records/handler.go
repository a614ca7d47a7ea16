package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"patient-access/internal/middleware"
	"patient-access/internal/platform/pagination"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/records", func(rr chi.Router) {
		rr.Get("/me", listMyRecordsHandler(svc))
		rr.Post("/{patientID}", addRecordHandler(svc))
		rr.Get("/{patientID}", listPatientRecordsHandler(svc))
	})
}

type addRecordRequest struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Diagnosis string `json:"diagnosis"`
}

type recordResponse struct {
	ID         string     `json:"id"`
	PatientID  string     `json:"patient_id"`
	DoctorID   string     `json:"doctor_id"`
	DoctorName string     `json:"doctor_name"`
	Type       RecordType `json:"type"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Diagnosis  string     `json:"diagnosis,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// addRecordHandler godoc
// @Summary Agregar registro clínico
// @Description El doctor necesita un acceso vigente otorgado por el paciente.
// @Tags records
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param patientID path string true "ID del paciente"
// @Param payload body addRecordRequest true "Tipo, título y contenido"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden / active access required"
// @Router /records/{patientID} [post]
func addRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req addRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		typ, ok := ParseType(req.Type)
		if !ok {
			http.Error(w, "invalid record type", http.StatusBadRequest)
			return
		}

		rec, err := svc.Add(r.Context(), claims.UserID, chi.URLParam(r, "patientID"), AddInput{
			Type:      typ,
			Title:     req.Title,
			Content:   req.Content,
			Diagnosis: req.Diagnosis,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// listPatientRecordsHandler godoc
// @Summary Listar registros de un paciente (doctor)
// @Tags records
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param patientID path string true "ID del paciente"
// @Param type query string false "Filtro por tipo"
// @Param page query int false "Página (0-based)"
// @Param size query int false "Tamaño de página (max 100)"
// @Success 200 {object} pagination.Page[recordResponse]
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden / active access required"
// @Router /records/{patientID} [get]
func listPatientRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		f, ok := parseFilter(r)
		if !ok {
			http.Error(w, "invalid record type", http.StatusBadRequest)
			return
		}

		out, err := svc.ListForDoctor(r.Context(), claims.UserID, chi.URLParam(r, "patientID"), f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pagination.Map(out, toRecordResponse))
	}
}

// listMyRecordsHandler godoc
// @Summary Listar mis registros (paciente)
// @Tags records
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param type query string false "Filtro por tipo"
// @Param page query int false "Página (0-based)"
// @Param size query int false "Tamaño de página (max 100)"
// @Success 200 {object} pagination.Page[recordResponse]
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /records/me [get]
func listMyRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		f, ok := parseFilter(r)
		if !ok {
			http.Error(w, "invalid record type", http.StatusBadRequest)
			return
		}

		out, err := svc.ListForPatient(r.Context(), claims.UserID, f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pagination.Map(out, toRecordResponse))
	}
}

func parseFilter(r *http.Request) (ListFilter, bool) {
	page, size := pagination.FromQuery(r.URL.Query())
	f := ListFilter{Page: page, Size: size}

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		typ, ok := ParseType(raw)
		if !ok {
			return ListFilter{}, false
		}
		f.Type = typ
	}
	return f, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrAccessRequired):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:         rec.ID,
		PatientID:  rec.PatientID,
		DoctorID:   rec.DoctorID,
		DoctorName: rec.DoctorName,
		Type:       rec.Type,
		Title:      rec.Title,
		Content:    rec.Content,
		Diagnosis:  rec.Diagnosis,
		CreatedAt:  rec.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
