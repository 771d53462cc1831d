package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/titlememory-backend/internal/data/repos/pagination"
	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/http/response"
	"github.com/yungbote/titlememory-backend/internal/modules/competency"
	"github.com/yungbote/titlememory-backend/internal/platform/apierr"
	"github.com/yungbote/titlememory-backend/internal/platform/ctxutil"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
	"github.com/yungbote/titlememory-backend/internal/services"
)

const maxImportFileBytes = 10 << 20

type TitleMemoryHandler struct {
	log     *logger.Logger
	service services.TitleMemoryService
}

func NewTitleMemoryHandler(log *logger.Logger, service services.TitleMemoryService) *TitleMemoryHandler {
	return &TitleMemoryHandler{
		log:     log.With("handler", "TitleMemoryHandler"),
		service: service,
	}
}

type updateResponse struct {
	*titlememory.TitleMemory
	Cascade *competency.Outcome `json:"cascade,omitempty"`
}

type membershipRequest struct {
	TitleMemoryID    string   `json:"titleMemoryId"`
	UserID           string   `json:"userId"`
	Skills           []string `json:"skills"`
	LearningOutcomes []string `json:"learningOutcomes"`
}

func pageFromQuery(c *gin.Context) pagination.Request {
	return pagination.FromQuery(c.Query("page"), c.Query("limit"))
}

func (h *TitleMemoryHandler) fail(c *gin.Context, op string, err error) {
	e := apierr.As(err)
	if e.Status >= http.StatusInternalServerError {
		h.log.Error(op+" failed", "error", err)
	}
	_ = c.Error(err)
	response.RespondAPIError(c, e)
}

func bindError(err error) error {
	return apierr.Validation("malformed request body", err.Error())
}

// GET /api/title-memories
func (h *TitleMemoryHandler) List(c *gin.Context) {
	page, err := h.service.ListAll(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		h.fail(c, "ListAll", err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/title-memories/:id
func (h *TitleMemoryHandler) Get(c *gin.Context) {
	rec, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "GetByID", err)
		return
	}
	response.RespondOK(c, rec)
}

// GET /api/title-memories/:id/competencies
func (h *TitleMemoryHandler) GetCompetencies(c *gin.Context) {
	out, err := h.service.GetCompetencies(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "GetCompetencies", err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/title-memories/search
func (h *TitleMemoryHandler) Search(c *gin.Context) {
	var req titlememory.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "Search", bindError(err))
		return
	}
	var userID string
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		userID = rd.UserID
	}
	page, err := h.service.Search(c.Request.Context(), req, userID)
	if err != nil {
		h.fail(c, "Search", err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/title-memories/user/memories
func (h *TitleMemoryHandler) ListByUser(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		h.fail(c, "ListByUser", apierr.Unauthorized("no token provided"))
		return
	}
	page, err := h.service.ListByUser(c.Request.Context(), rd.UserID, pageFromQuery(c))
	if err != nil {
		h.fail(c, "ListByUser", err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/title-memories/permitted
func (h *TitleMemoryHandler) ListPermitted(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		h.fail(c, "ListPermitted", apierr.Unauthorized("no token provided"))
		return
	}
	page, err := h.service.ListPermitted(c.Request.Context(), rd.Token, pageFromQuery(c))
	if err != nil {
		h.fail(c, "ListPermitted", err)
		return
	}
	response.RespondOK(c, page)
}

// POST /api/title-memories
func (h *TitleMemoryHandler) Create(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		h.fail(c, "Create", apierr.Unauthorized("no token provided"))
		return
	}
	var in titlememory.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, "Create", bindError(err))
		return
	}
	rec, err := h.service.Create(c.Request.Context(), in, rd.UserID)
	if err != nil {
		h.fail(c, "Create", err)
		return
	}
	response.RespondCreated(c, rec)
}

// POST /api/title-memories/bulk
func (h *TitleMemoryHandler) BulkCreate(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		h.fail(c, "BulkCreate", apierr.Unauthorized("no token provided"))
		return
	}
	var in []titlememory.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, "BulkCreate", bindError(err))
		return
	}
	rows, err := h.service.BulkCreate(c.Request.Context(), in, rd.UserID)
	if err != nil {
		h.fail(c, "BulkCreate", err)
		return
	}
	response.RespondCreated(c, rows)
}

// POST /api/title-memories/import (multipart, field "files")
func (h *TitleMemoryHandler) Import(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		h.fail(c, "Import", apierr.Unauthorized("no token provided"))
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.fail(c, "Import", apierr.Validation("multipart form with files is required"))
		return
	}
	headers := form.File["files"]
	files := make([]services.ImportFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImportFileBytes {
			h.fail(c, "Import", apierr.Validation(fmt.Sprintf("%s exceeds %d bytes", fh.Filename, maxImportFileBytes)))
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.fail(c, "Import", apierr.Validation(fmt.Sprintf("%s could not be read", fh.Filename)))
			return
		}
		content, err := io.ReadAll(io.LimitReader(f, maxImportFileBytes))
		_ = f.Close()
		if err != nil {
			h.fail(c, "Import", apierr.Validation(fmt.Sprintf("%s could not be read", fh.Filename)))
			return
		}
		files = append(files, services.ImportFile{Name: fh.Filename, Content: content})
	}
	rows, err := h.service.BulkImportFromFiles(c.Request.Context(), files, rd.UserID)
	if err != nil {
		h.fail(c, "Import", err)
		return
	}
	response.RespondCreated(c, rows)
}

// PUT /api/title-memories/:id
func (h *TitleMemoryHandler) Update(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		h.fail(c, "Update", apierr.Unauthorized("no token provided"))
		return
	}
	var patch titlememory.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.fail(c, "Update", bindError(err))
		return
	}
	res, err := h.service.Update(c.Request.Context(), c.Param("id"), patch, rd.Token)
	if err != nil {
		h.fail(c, "Update", err)
		return
	}
	response.RespondOK(c, updateResponse{TitleMemory: res.Record, Cascade: res.Cascade})
}

// DELETE /api/title-memories/:id
func (h *TitleMemoryHandler) Delete(c *gin.Context) {
	if err := h.service.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "SoftDelete", err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Title memory deleted successfully"})
}

// POST /api/title-memories/check-owner
func (h *TitleMemoryHandler) CheckOwner(c *gin.Context) {
	var req membershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "CheckOwnership", bindError(err))
		return
	}
	owner, err := h.service.CheckOwnership(c.Request.Context(), req.TitleMemoryID, req.UserID)
	if err != nil {
		h.fail(c, "CheckOwnership", err)
		return
	}
	if !owner {
		response.RespondAPIError(c, apierr.Forbidden("title memory does not belong to this user"))
		return
	}
	response.RespondOK(c, gin.H{"owner": true, "message": "title memory belongs to this user"})
}

// POST /api/title-memories/validate-skills
func (h *TitleMemoryHandler) ValidateSkills(c *gin.Context) {
	var req membershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "HasSkills", bindError(err))
		return
	}
	if _, err := h.service.HasSkills(c.Request.Context(), req.TitleMemoryID, req.Skills); err != nil {
		h.fail(c, "HasSkills", err)
		return
	}
	response.RespondOK(c, gin.H{"valid": true, "message": "title memory has the requested skills"})
}

// POST /api/title-memories/validate-outcomes
func (h *TitleMemoryHandler) ValidateOutcomes(c *gin.Context) {
	var req membershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "HasOutcomes", bindError(err))
		return
	}
	if _, err := h.service.HasOutcomes(c.Request.Context(), req.TitleMemoryID, req.LearningOutcomes); err != nil {
		h.fail(c, "HasOutcomes", err)
		return
	}
	response.RespondOK(c, gin.H{"valid": true, "message": "title memory has the requested learning outcomes"})
}
