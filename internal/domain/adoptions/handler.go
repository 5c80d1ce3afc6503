package adoptions

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pawfect-match/internal/domain/pets"
	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/schema"
	"pawfect-match/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	admin := middleware.RequireRole(auth.RoleAdmin)

	r.Route("/adoptions", func(ar chi.Router) {
		ar.With(middleware.RequireAuth).Post("/request", submitHandler(svc, log))
		ar.With(middleware.RequireAuth).Get("/my-requests", listMineHandler(svc, log))
		ar.With(middleware.RequireAuth).Delete("/{requestID}", cancelHandler(svc, log))

		ar.With(admin).Get("/admin", listAllHandler(svc, log))
		ar.With(admin).Get("/admin/derived-available", derivedAvailableHandler(svc, log))
		ar.With(admin).Get("/admin/consistency", consistencyHandler(svc, log))
		ar.With(admin).Put("/{requestID}/status", setStatusHandler(svc, log))
	})
}

type submitRequest struct {
	PetID   string `json:"pet_id" jsonschema:"minLength=1,maxLength=64"`
	Message string `json:"message,omitempty" jsonschema:"maxLength=2000"`
}

type setStatusRequest struct {
	Status string `json:"status" jsonschema:"minLength=1,maxLength=20"`
}

type requestResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PetID     string    `json:"pet_id"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type petSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Code  string `json:"code"`
	Breed string `json:"breed,omitempty"`
}

type userSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type myRequestResponse struct {
	requestResponse
	Pet petSummary `json:"pet"`
}

type adminRequestResponse struct {
	requestResponse
	User userSummary `json:"user"`
	Pet  petSummary  `json:"pet"`
}

type requestEnvelope struct {
	Message string          `json:"message"`
	Request requestResponse `json:"request"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type inconsistencyResponse struct {
	PetID       string `json:"pet_id"`
	PetCode     string `json:"pet_code"`
	Adopted     bool   `json:"adopted"`
	HasApproved bool   `json:"has_approved_request"`
}

type availablePetResponse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Breed   string `json:"breed"`
	Adopted bool   `json:"adopted"`
}

// submitHandler godoc
// @Summary Solicitar adopción
// @Description Una sola solicitud por (usuario, mascota), en cualquier estado.
// @Tags adoptions
// @Accept json
// @Produce json
// @Param payload body submitRequest true "Mascota y mensaje opcional"
// @Success 201 {object} requestEnvelope
// @Failure 401 {object} messageResponse
// @Failure 404 {object} messageResponse "mascota inexistente"
// @Failure 409 {object} messageResponse "solicitud duplicada o mascota ya adoptada"
// @Router /adoptions/request [post]
func submitHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middleware.GetIdentity(r.Context())

		var req submitRequest
		if err := schema.Decode(r.Body, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		created, err := svc.Submit(r.Context(), id.UserID, SubmitInput{PetID: req.PetID, Message: req.Message})
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, requestEnvelope{
			Message: "Adoption request submitted successfully.",
			Request: toRequestResponse(created),
		})
	}
}

func listMineHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middleware.GetIdentity(r.Context())

		items, err := svc.ListForUser(r.Context(), id.UserID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		out := make([]myRequestResponse, 0, len(items))
		for _, v := range items {
			out = append(out, myRequestResponse{
				requestResponse: toRequestResponse(v.Request),
				Pet:             petSummary{ID: v.PetID, Name: v.PetName, Code: v.PetCode, Breed: v.PetBreed},
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// cancelHandler godoc
// @Summary Cancelar solicitud propia
// @Tags adoptions
// @Produce json
// @Param requestID path string true "ID de la solicitud"
// @Success 200 {object} messageResponse
// @Failure 403 {object} messageResponse "no es el dueño"
// @Failure 404 {object} messageResponse
// @Router /adoptions/{requestID} [delete]
func cancelHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middleware.GetIdentity(r.Context())

		if err := svc.Cancel(r.Context(), chi.URLParam(r, "requestID"), id.UserID); err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Request cancelled successfully."})
	}
}

func listAllHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAll(r.Context())
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		out := make([]adminRequestResponse, 0, len(items))
		for _, v := range items {
			out = append(out, adminRequestResponse{
				requestResponse: toRequestResponse(v.Request),
				User:            userSummary{ID: v.UserID, Name: v.UserName, Email: v.UserEmail},
				Pet:             petSummary{ID: v.PetID, Name: v.PetName, Code: v.PetCode},
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// setStatusHandler godoc
// @Summary Aprobar o rechazar solicitud (admin)
// @Description Aprobar marca la mascota como adoptada. Rechazar no la desmarca.
// @Tags adoptions
// @Accept json
// @Produce json
// @Param requestID path string true "ID de la solicitud"
// @Param payload body setStatusRequest true "approved | rejected"
// @Success 200 {object} requestEnvelope
// @Failure 400 {object} messageResponse "status inválido"
// @Failure 404 {object} messageResponse
// @Failure 500 {object} messageResponse "aprobación incompleta"
// @Router /adoptions/{requestID}/status [put]
func setStatusHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setStatusRequest
		if err := schema.Decode(r.Body, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		updated, err := svc.SetStatus(r.Context(), chi.URLParam(r, "requestID"), Status(req.Status))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, requestEnvelope{
			Message: "Request " + string(updated.Status),
			Request: toRequestResponse(updated),
		})
	}
}

func derivedAvailableHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.DerivedAvailable(r.Context())
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toAvailable(items))
	}
}

func consistencyHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.CheckConsistency(r.Context())
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		out := make([]inconsistencyResponse, 0, len(items))
		for _, i := range items {
			out = append(out, inconsistencyResponse{
				PetID:       i.PetID,
				PetCode:     i.PetCode,
				Adopted:     i.Adopted,
				HasApproved: i.HasApproved,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var approval *ApprovalError
	switch {
	case errors.As(err, &approval):
		msg := "Approval failed; request status reverted."
		if !approval.Reverted {
			msg = "Approval failed; request is approved but pet was not marked adopted."
		}
		logger.FromContext(r.Context(), log).Error("adoption approval incomplete", map[string]any{"error": err})
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msg})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Request not found"})
	case errors.Is(err, ErrPetNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Pet not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, messageResponse{Message: "Unauthorized"})
	case errors.Is(err, ErrDuplicate):
		writeJSON(w, http.StatusConflict, messageResponse{Message: err.Error()})
	case errors.Is(err, ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid status"})
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
	default:
		logger.FromContext(r.Context(), log).Error("adoptions: unexpected error", map[string]any{"error": err})
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: ve.Error()})
		return
	}
	writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid json"})
}

func toRequestResponse(r Request) requestResponse {
	return requestResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		PetID:     r.PetID,
		Message:   r.Message,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toAvailable(items []pets.Pet) []availablePetResponse {
	out := make([]availablePetResponse, 0, len(items))
	for _, p := range items {
		out = append(out, availablePetResponse{ID: p.ID, Code: p.Code, Name: p.Name, Breed: p.Breed, Adopted: p.Adopted})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
