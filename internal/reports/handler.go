package reports

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	afororepo "aduanas_portal_backend/internal/aforo/repository"
	"aduanas_portal_backend/platform/httpkit"
	"aduanas_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	dateLayout      = "2006-01-02"
	maxExportRows   = 50000
	defaultSpanDays = 31
)

// Handler handles reporting requests and API key management.
type Handler struct {
	repo    *Repository
	updates afororepo.UpdateLogReader
	val     *validator.Validator
}

// NewHandler creates the reports handler. The update-log reader comes from
// the aforo module so the ordered log is served from one code path.
func NewHandler(repo *Repository, updates afororepo.UpdateLogReader, val *validator.Validator) *Handler {
	return &Handler{repo: repo, updates: updates, val: val}
}

// ---- Authenticated snapshot endpoints ----

// CaseReportResponse is the case + worksheet snapshot plus the ordered log.
type CaseReportResponse struct {
	NE                   string             `json:"ne"`
	Executive            string             `json:"executive"`
	Consignee            string             `json:"consignee"`
	Classification       string             `json:"classification"`
	AforadorStatus       string             `json:"aforadorStatus"`
	RevisorStatus        string             `json:"revisorStatus"`
	PreliquidationStatus string             `json:"preliquidationStatus"`
	DigitacionStatus     string             `json:"digitacionStatus"`
	FacturacionStatus    string             `json:"facturacionStatus"`
	IncidentStatus       *string            `json:"incidentStatus,omitempty"`
	IsArchived           bool               `json:"isArchived"`
	FacturadoAt          *time.Time         `json:"facturadoAt,omitempty"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
	Updates              []CaseReportUpdate `json:"updates"`
}

// CaseReportUpdate is one ordered log row in the snapshot response.
type CaseReportUpdate struct {
	EntityKind string    `json:"entityKind"`
	Field      string    `json:"field"`
	OldValue   *string   `json:"oldValue,omitempty"`
	NewValue   *string   `json:"newValue,omitempty"`
	Comment    *string   `json:"comment,omitempty"`
	UpdatedBy  string    `json:"updatedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HandleCaseReport serves the full snapshot for one NE.
// GET /api/v1/reports/cases/:ne
func (h *Handler) HandleCaseReport(c *gin.Context) {
	ne := c.Param("ne")
	if err := h.val.Var(ne, "required,ne_format"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid NE", nil)
		return
	}

	snapshot, err := h.repo.GetCaseSnapshot(c.Request.Context(), ne)
	if httpkit.HandleError(c, err) {
		return
	}
	records, err := h.updates.ListEntriesByNE(c.Request.Context(), ne)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := CaseReportResponse{
		NE:                   snapshot.NE,
		Executive:            snapshot.Executive,
		Consignee:            snapshot.Consignee,
		Classification:       snapshot.Classification,
		AforadorStatus:       snapshot.AforadorStatus,
		RevisorStatus:        snapshot.RevisorStatus,
		PreliquidationStatus: snapshot.PreliquidationStatus,
		DigitacionStatus:     snapshot.DigitacionStatus,
		FacturacionStatus:    snapshot.FacturacionStatus,
		IncidentStatus:       snapshot.IncidentStatus,
		IsArchived:           snapshot.IsArchived,
		FacturadoAt:          snapshot.FacturadoAt,
		CreatedAt:            snapshot.CreatedAt,
		UpdatedAt:            snapshot.UpdatedAt,
		Updates:              make([]CaseReportUpdate, len(records)),
	}
	for i, rec := range records {
		resp.Updates[i] = CaseReportUpdate{
			EntityKind: rec.EntityKind,
			Field:      rec.Field,
			OldValue:   rec.OldValue,
			NewValue:   rec.NewValue,
			Comment:    rec.Comment,
			UpdatedBy:  rec.UpdatedBy,
			CreatedAt:  rec.CreatedAt,
		}
	}
	httpkit.OK(c, resp)
}

// ---- API-key gated CSV export ----

// HandleCaseUpdatesCSV streams update-log rows over a date range as CSV for
// external dashboard and Excel collaborators.
// GET /api/v1/export/case-updates.csv
func (h *Handler) HandleCaseUpdatesCSV(c *gin.Context) {
	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rows, err := h.repo.ListUpdateRows(c.Request.Context(), from, to, maxExportRows)
	if httpkit.HandleError(c, err) {
		return
	}

	if keyID, ok := c.Get("reportKeyID"); ok {
		if id, ok := keyID.(uuid.UUID); ok {
			h.repo.TouchAPIKey(c.Request.Context(), id)
		}
	}

	filename := fmt.Sprintf("case-updates_%s_%s.csv", from.Format(dateLayout), to.Format(dateLayout))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"ne", "entity_kind", "field", "old_value", "new_value", "comment", "updated_by", "created_at"})
	for _, row := range rows {
		_ = w.Write([]string{
			row.NE,
			row.EntityKind,
			row.Field,
			deref(row.OldValue),
			deref(row.NewValue),
			deref(row.Comment),
			row.UpdatedBy,
			row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
}

// ---- Admin API key management (JWT authenticated) ----

// CreateAPIKeyRequest names a new report API key.
type CreateAPIKeyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// APIKeyResponse represents a report API key in API responses. The plaintext
// key is only ever returned at creation time.
type APIKeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"keyPrefix"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// CreateAPIKeyResponse carries the one-time plaintext key.
type CreateAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

// HandleCreateAPIKey mints a new report API key.
// POST /api/v1/admin/report-keys
func (h *Handler) HandleCreateAPIKey(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "could not generate key", nil)
		return
	}

	createdBy := identity.UserID()
	key, err := h.repo.CreateAPIKey(c.Request.Context(), req.Name, hash, prefix, &createdBy)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, CreateAPIKeyResponse{
		APIKeyResponse: toAPIKeyResponse(key),
		Key:            plaintext,
	})
}

// HandleListAPIKeys lists report API keys.
// GET /api/v1/admin/report-keys
func (h *Handler) HandleListAPIKeys(c *gin.Context) {
	keys, err := h.repo.ListAPIKeys(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	result := make([]APIKeyResponse, len(keys))
	for i, k := range keys {
		result[i] = toAPIKeyResponse(k)
	}
	httpkit.OK(c, result)
}

// HandleRevokeAPIKey deactivates a report API key.
// DELETE /api/v1/admin/report-keys/:id
func (h *Handler) HandleRevokeAPIKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key ID", nil)
		return
	}
	if err := h.repo.RevokeAPIKey(c.Request.Context(), keyID); err != nil {
		httpkit.Error(c, http.StatusNotFound, "report API key not found", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func toAPIKeyResponse(k APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		KeyPrefix:  k.KeyPrefix,
		IsActive:   k.IsActive,
		CreatedAt:  k.CreatedAt,
		LastUsedAt: k.LastUsedAt,
	}
}

func parseDateRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -defaultSpanDays)
	to := now

	if fromRaw != "" {
		parsed, err := time.Parse(dateLayout, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date, expected YYYY-MM-DD")
		}
		from = parsed
	}
	if toRaw != "" {
		parsed, err := time.Parse(dateLayout, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date, expected YYYY-MM-DD")
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date precedes from date")
	}
	return from, to, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
