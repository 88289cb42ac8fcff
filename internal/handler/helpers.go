package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/wizard"
	"github.com/jayzilla/service-booking/internal/platform/middleware"
	"github.com/jayzilla/service-booking/internal/platform/response"
)

// attachmentsFormKey is the multipart key carrying image files.
const attachmentsFormKey = "attachments"

// fieldsRequest is the JSON body for field-carrying wizard actions.
type fieldsRequest struct {
	Fields map[wizard.Field]string `json:"fields"`
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

func paramUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// bindFields reads an optional {"fields": {...}} body. An empty body yields no fields.
func bindFields(c *gin.Context) (map[wizard.Field]string, bool) {
	if c.Request.ContentLength == 0 {
		return nil, true
	}
	var req fieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return nil, false
	}
	return req.Fields, true
}

// readAttachments loads every file under the attachments key into memory.
// Files larger than the per-file limit are truncated one byte past it so that
// attachment.Inspect still rejects them.
func readAttachments(form *multipart.Form) ([]attachment.Staged, error) {
	if form == nil {
		return nil, nil
	}
	headers := form.File[attachmentsFormKey]
	files := make([]attachment.Staged, 0, len(headers))
	for _, fh := range headers {
		staged, err := readAttachment(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, staged)
	}
	return files, nil
}

func readAttachment(fh *multipart.FileHeader) (attachment.Staged, error) {
	f, err := fh.Open()
	if err != nil {
		return attachment.Staged{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, attachment.MaxFileSize+1))
	if err != nil {
		return attachment.Staged{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return attachment.Staged{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// submissionFailed writes the response for a failed submission. Retryable failures
// map to 503 and rejected ones to 422; both carry the submit result so the client
// can keep the draft on screen.
func submissionFailed(c *gin.Context, result interface{}, err error) {
	var subErr *wizard.SubmissionError
	if !errors.As(err, &subErr) {
		response.Error(c, err)
		return
	}

	status, code := http.StatusUnprocessableEntity, "submission_rejected"
	if subErr.Retryable() {
		status, code = http.StatusServiceUnavailable, "submission_unavailable"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"data":    result,
		"error": gin.H{
			"code":    code,
			"message": subErr.Message,
			"fields":  fieldMap(subErr.Fields),
		},
	})
}

// invalidResult writes a 422 for a correctable validation outcome.
func invalidResult(c *gin.Context, result wizard.Result) {
	response.Fail(c, http.StatusUnprocessableEntity, "validation_error", result.Message, fieldMap(result.Errors))
}

// staleQuote writes a 422 carrying the current server quote for re-display.
func staleQuote(c *gin.Context, result wizard.Result, quote interface{}) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, response.APIResponse{
		Success: false,
		Data:    gin.H{"quote": quote},
		Error:   &response.APIError{
			Code:    "quote_changed",
			Message: result.Message,
			Fields:  fieldMap(result.Errors),
		},
	})
}

func fieldMap(errs []wizard.FieldError) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	m := make(map[string]string, len(errs))
	for _, fe := range errs {
		m[string(fe.Field)] = fe.Message
	}
	return m
}
