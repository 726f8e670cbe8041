package diagnosis

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	errMissingSymptoms = errors.New("symptoms field is required")
	errSymptomsType    = errors.New("symptoms must be a list of strings or a comma-separated string")
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

type diagnoseRequest struct {
	Symptoms json.RawMessage `json:"symptoms"`
}

// Handler serves the diagnosis endpoints from a fixed Service.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Diagnose handles POST /api/diagnose.
func (h *Handler) Diagnose(c *gin.Context) {
	log := slog.With("request_id", c.GetString(RequestIDKey))

	if !h.svc.Ready() {
		log.Warn("diagnose rejected, model not initialized")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrNotInitialized.Error()})
		return
	}

	var req diagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	symptoms, err := ParseSymptoms(req.Symptoms)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.svc.Diagnose(symptoms)
	switch {
	case errors.Is(err, ErrNoSymptoms), errors.Is(err, ErrNoValidSymptoms):
		log.Info("diagnose rejected", "reason", err.Error(), "symptoms", len(symptoms))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrNotInitialized):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.Error("diagnose failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "diagnosis failed"})
		return
	}

	log.Debug("diagnosed",
		"matched", len(result.MatchedSymptoms),
		"unrecognized", len(result.UnrecognizedSymptoms),
		"top", result.Results[0].Disease,
	)
	c.JSON(http.StatusOK, result)
}

// Symptoms handles GET /api/symptoms.
func (h *Handler) Symptoms(c *gin.Context) {
	if !h.svc.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrNotInitialized.Error()})
		return
	}
	vocab := h.svc.Model().Vocabulary()
	c.JSON(http.StatusOK, gin.H{
		"symptoms": vocab.Sorted(),
		"count":    vocab.Len(),
	})
}

// Status handles GET / and GET /health. It always answers 200 so clients can
// tell a degraded server from an unreachable one.
func (h *Handler) Status(c *gin.Context) {
	if !h.svc.Ready() {
		body := gin.H{"status": "degraded", "model_loaded": false}
		if err := h.svc.SetupError(); err != nil {
			body["error"] = err.Error()
		}
		c.JSON(http.StatusOK, body)
		return
	}
	m := h.svc.Model()
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"model_loaded": true,
		"diseases":     len(m.Diseases()),
		"symptoms":     m.Vocabulary().Len(),
		"examples":     m.Examples(),
	})
}

// ParseSymptoms accepts a JSON list of strings or a single comma-separated
// string. Both forms yield the same raw symptom list.
func ParseSymptoms(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errMissingSymptoms
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return SplitSymptoms(joined), nil
	}
	return nil, errSymptomsType
}
