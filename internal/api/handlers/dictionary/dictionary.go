package dictionary

import (
	"net/http"
	"strings"

	"recipe-engine/internal/api/handlers"
	core "recipe-engine/internal/core/dictionary"
	"recipe-engine/internal/core/normalize"
	"recipe-engine/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// AddEntryRequest 新增字典項目
type AddEntryRequest struct {
	Source           string          `json:"source" binding:"required"`
	Target           core.Target     `json:"target"`
	NutritionPer100g *core.Nutrition `json:"nutrition_per_100g,omitempty"`
	Provenance       core.Provenance `json:"provenance,omitempty"`
}

// AddEntryResponse status 為 created 或 existing
type AddEntryResponse struct {
	Status string     `json:"status"`
	Entry  core.Entry `json:"entry"`
}

// LookupResponse 查詢結果
type LookupResponse struct {
	Term        string            `json:"term"`
	Slug        string            `json:"slug"`
	Translation *core.Translation `json:"translation"`
}

// Handler 字典處理器
type Handler struct {
	dict         *core.Dictionary
	translations *core.TranslationCache
}

// NewHandler 創建字典處理器
func NewHandler(dict *core.Dictionary, translations *core.TranslationCache) *Handler {
	return &Handler{dict: dict, translations: translations}
}

// HandleLookup GET /dictionary/:term
func (h *Handler) HandleLookup(c *gin.Context) {
	term := c.Param("term")
	t, err := h.dict.Lookup(c.Request.Context(), term)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if t == nil {
		handlers.RespondError(c, common.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, LookupResponse{Term: term, Slug: normalize.Slug(term), Translation: t})
}

// HandleReverseLookup GET /dictionary?english=...
func (h *Handler) HandleReverseLookup(c *gin.Context) {
	english := strings.TrimSpace(c.Query("english"))
	if english == "" {
		handlers.RespondError(c, common.NewValidationError("english query parameter is required"))
		return
	}
	entries, err := h.dict.ReverseLookup(c.Request.Context(), english)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"english": english, "entries": entries})
}

// HandleAdd POST /dictionary
func (h *Handler) HandleAdd(c *gin.Context) {
	var req AddEntryRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	if req.Provenance == "" {
		req.Provenance = core.ProvenanceAdmin
	}

	res, err := h.dict.AddEntry(c.Request.Context(), core.Entry{
		Source:           req.Source,
		Target:           req.Target,
		NutritionPer100g: req.NutritionPer100g,
		Provenance:       req.Provenance,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	respondInsert(c, res)
}

// HandlePromote POST /dictionary/:term/promote
func (h *Handler) HandlePromote(c *gin.Context) {
	res, err := h.dict.Promote(c.Request.Context(), h.translations, c.Param("term"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	respondInsert(c, res)
}

func respondInsert(c *gin.Context, res core.InsertResult) {
	status := http.StatusCreated
	if res.Status == core.InsertExisting {
		status = http.StatusOK
	}
	c.JSON(status, AddEntryResponse{Status: res.Status.String(), Entry: res.Entry})
}
