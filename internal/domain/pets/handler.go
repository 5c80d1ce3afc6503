package pets

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/schema"
	"pawfect-match/internal/ports/auth"
	"pawfect-match/internal/ports/blob"

	"github.com/go-chi/chi/v5"
)

// MaxUploadBytes limita el body multipart (imagen + campos).
const MaxUploadBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var errBadImage = errors.New("image must be jpeg, png, gif or webp")

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	admin := middleware.RequireRole(auth.RoleAdmin)

	r.Route("/pets", func(pr chi.Router) {
		// Público: solo disponibles (adopted=false)
		pr.Get("/", listAvailableHandler(svc, log))
		pr.With(admin).Get("/all", listAllHandler(svc, log))
		pr.Get("/{petID}", getPetHandler(svc, log))

		pr.With(admin).Post("/", createPetHandler(svc, log))
		pr.With(admin).Put("/{petID}", updatePetHandler(svc, log))
		pr.With(admin).Delete("/{petID}", deletePetHandler(svc, log))
	})
}

type createPetRequest struct {
	Name        string `json:"name" jsonschema:"minLength=1,maxLength=100"`
	Breed       string `json:"breed" jsonschema:"minLength=1,maxLength=100"`
	Age         string `json:"age" jsonschema:"minLength=1,maxLength=50"`
	Description string `json:"description" jsonschema:"minLength=1,maxLength=2000"`
}

type updatePetRequest struct {
	Name        *string `json:"name,omitempty" jsonschema:"minLength=1,maxLength=100"`
	Breed       *string `json:"breed,omitempty" jsonschema:"minLength=1,maxLength=100"`
	Age         *string `json:"age,omitempty" jsonschema:"minLength=1,maxLength=50"`
	Description *string `json:"description,omitempty" jsonschema:"minLength=1,maxLength=2000"`
}

type petResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Breed       string    `json:"breed"`
	Age         string    `json:"age"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Adopted     bool      `json:"adopted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type cascadeErrorResponse struct {
	Message    string `json:"message"`
	PetDeleted bool   `json:"pet_deleted"`
}

// listAvailableHandler godoc
// @Summary Listar mascotas disponibles
// @Tags pets
// @Produce json
// @Success 200 {array} petResponse
// @Router /pets [get]
func listAvailableHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAvailable(r.Context())
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponses(items))
	}
}

func listAllHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAll(r.Context())
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponses(items))
	}
}

func getPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// createPetHandler godoc
// @Summary Crear mascota (admin)
// @Description Acepta multipart/form-data (campo opcional `image`) o JSON sin imagen.
// @Tags pets
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param name formData string true "Nombre"
// @Param breed formData string true "Raza"
// @Param age formData string true "Edad"
// @Param description formData string true "Descripción"
// @Param image formData file false "Imagen"
// @Success 201 {object} petResponse
// @Failure 400 {object} messageResponse
// @Failure 401 {object} messageResponse
// @Failure 403 {object} messageResponse
// @Router /pets [post]
func createPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPetRequest
		image, err := readPetBody(w, r, &req)
		if err != nil {
			writeDecodeError(w, err)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			Name:        req.Name,
			Breed:       req.Breed,
			Age:         req.Age,
			Description: req.Description,
			Image:       image,
		})
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota (admin)
// @Description Update parcial; id, code y adopted no se modifican.
// @Tags pets
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /pets/{petID} [put]
func updatePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updatePetRequest
		image, err := readPetBody(w, r, &req)
		if err != nil {
			writeDecodeError(w, err)
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), UpdateInput{
			Name:        req.Name,
			Breed:       req.Breed,
			Age:         req.Age,
			Description: req.Description,
			Image:       image,
		})
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// deletePetHandler godoc
// @Summary Borrar mascota (admin)
// @Description Borra la mascota y todas sus solicitudes de adopción.
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Failure 500 {object} cascadeErrorResponse "mascota borrada pero quedaron solicitudes"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID")); err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Pet and related adoption requests deleted successfully."})
	}
}

// readPetBody acepta JSON o multipart. dst es el request tipado; los campos
// del form se validan contra el mismo schema que el JSON.
func readPetBody(w http.ResponseWriter, r *http.Request, dst any) (*blob.Object, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return nil, schema.Decode(r.Body, dst)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return nil, &schema.ValidationError{Detail: "invalid multipart form", Err: err}
	}

	fields := map[string]any{}
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	if err := schema.ValidateFields(fields, dst); err != nil {
		return nil, err
	}
	raw, _ := json.Marshal(fields)
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, schema.ErrInvalidJSON
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &schema.ValidationError{Detail: "invalid image", Err: err}
	}
	return imageObject(file, header)
}

func imageObject(file multipart.File, header *multipart.FileHeader) (*blob.Object, error) {
	br := bufio.NewReaderSize(file, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, &schema.ValidationError{Detail: "invalid image", Err: err}
	}

	ct := http.DetectContentType(head)
	if !allowedImageTypes[ct] {
		return nil, &schema.ValidationError{Detail: errBadImage.Error(), Err: errBadImage}
	}

	return &blob.Object{
		Filename:    header.Filename,
		ContentType: ct,
		Size:        header.Size,
		Body:        br,
	}, nil
}

func writeServiceError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var cascade *CascadeError
	switch {
	case errors.As(err, &cascade):
		logger.FromContext(r.Context(), log).Error("pet cascade incomplete", map[string]any{"pet_id": cascade.PetID, "error": cascade.Err})
		writeJSON(w, http.StatusInternalServerError, cascadeErrorResponse{
			Message:    "Pet deleted but related adoption requests could not be removed.",
			PetDeleted: true,
		})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Pet not found"})
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "name, breed, age and description are required"})
	default:
		logger.FromContext(r.Context(), log).Error("pets: unexpected error", map[string]any{"error": err})
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

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Breed:       p.Breed,
		Age:         p.Age,
		Description: p.Description,
		Image:       p.Image,
		Adopted:     p.Adopted,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPetResponses(items []Pet) []petResponse {
	out := make([]petResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPetResponse(p))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

