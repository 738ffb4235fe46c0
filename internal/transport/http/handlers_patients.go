package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	patientModel "clinicdesk/internal/patient/models"
	"clinicdesk/internal/platform/middleware"
	"clinicdesk/internal/transport/http/shared"
	dErrors "clinicdesk/pkg/domain-errors"
)

// PatientService defines the patient operations the transport needs.
type PatientService interface {
	List(ctx context.Context, query string, sortBy patientModel.SortKey) ([]patientModel.Patient, error)
	Get(ctx context.Context, id uuid.UUID) (patientModel.Patient, error)
	Create(ctx context.Context, draft patientModel.Draft) (patientModel.Patient, error)
	Update(ctx context.Context, id uuid.UUID, draft patientModel.Draft) (patientModel.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PatientHandler handles the patient collection endpoints. All of them sit
// behind the auth gate.
type PatientHandler struct {
	patients  PatientService
	logger    *slog.Logger
	validator middleware.JWTValidator
	checker   middleware.SessionChecker
}

func NewPatientHandler(
	patients PatientService,
	logger *slog.Logger,
	validator middleware.JWTValidator,
	checker middleware.SessionChecker) *PatientHandler {
	return &PatientHandler{
		patients:  patients,
		logger:    logger,
		validator: validator,
		checker:   checker,
	}
}

// Register registers the patient routes with the chi router.
func (h *PatientHandler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.RequireAuth(h.validator, h.checker, h.logger))
		gr.Get("/patients", h.handleList)
		gr.Post("/patients", h.handleCreate)
		gr.Get("/patients/{id}", h.handleGet)
		gr.Put("/patients/{id}", h.handleUpdate)
		gr.Delete("/patients/{id}", h.handleDelete)
	})
}

func (h *PatientHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := r.URL.Query()
	patients, err := h.patients.List(ctx, params.Get("q"), patientModel.SortKey(params.Get("sort")))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list patients",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if patients == nil {
		patients = []patientModel.Patient{}
	}
	shared.WriteJSON(w, http.StatusOK, patients)
}

func (h *PatientHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid patient id"))
		return
	}

	patient, err := h.patients.Get(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, patient)
}

func (h *PatientHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var draft patientModel.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.logger.WarnContext(ctx, "invalid create patient request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	patient, err := h.patients.Create(ctx, draft)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "failed to create patient",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, patient)
}

func (h *PatientHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid patient id"))
		return
	}

	var draft patientModel.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	patient, err := h.patients.Update(ctx, id, draft)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, patient)
}

func (h *PatientHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid patient id"))
		return
	}

	if err := h.patients.Delete(ctx, id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
