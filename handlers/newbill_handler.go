package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"billed-backend/models"
	"billed-backend/service"
	"billed-backend/session"
	"billed-backend/store"
	"billed-backend/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewBillFormHandler runs the new-bill form workflow for form posts
type NewBillFormHandler struct {
	store       store.BillStore
	sessions    session.Store
	timeout     time.Duration
	maxFileSize int64
	log         *zap.Logger
}

// NewNewBillFormHandler creates a handler submitting through st
func NewNewBillFormHandler(st store.BillStore, sessions session.Store, timeout time.Duration, maxFileSize int64, log *zap.Logger) *NewBillFormHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &NewBillFormHandler{
		store:       st,
		sessions:    sessions,
		timeout:     timeout,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// Submit handles POST /api/newbill.
// On submission it answers 303 with Location set to the view the workflow
// navigated to; a failed store step is reported in the body.
func (h *NewBillFormHandler) Submit(c *gin.Context) {
	sessionID := c.GetHeader(SessionHeader)
	if sessionID == "" {
		respondError(c, http.StatusUnauthorized, "MISSING_SESSION", SessionHeader+" header is required")
		return
	}

	var target string
	workflow := service.NewNewBillWorkflow(
		service.WithBillStore(h.store),
		service.WithSessionProvider(session.NewProvider(h.sessions, sessionID)),
		service.WithNavigator(func(path string) { target = path }),
		service.WithLogger(h.log),
		service.WithTimeout(h.timeout),
	)

	fileHeader, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	default:
		if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
			respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
				fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
			return
		}
		defer file.Close()

		input := &service.FileInput{Files: []*models.Attachment{{
			Name:        fileHeader.Filename,
			ContentType: validators.ContentTypeFor(fileHeader.Filename),
			Size:        fileHeader.Size,
			Content:     file,
		}}}
		if err := workflow.HandleChangeFile(input); err != nil {
			respondError(c, http.StatusUnprocessableEntity, "INVALID_FILE_TYPE", service.InvalidFormatMessage)
			return
		}
	}

	bill, err := workflow.Submit(c.Request.Context(), service.FormSnapshot{
		Type:       c.PostForm("expense-type"),
		Name:       c.PostForm("expense-name"),
		Amount:     c.PostForm("amount"),
		Date:       c.PostForm("datepicker"),
		VAT:        c.PostForm("vat"),
		Pct:        c.PostForm("pct"),
		Commentary: c.PostForm("commentary"),
	})

	if errors.Is(err, service.ErrNoSession) {
		respondError(c, http.StatusUnauthorized, "NO_SESSION", "No employee is signed in")
		return
	}

	c.Header("Location", target)
	if err != nil {
		kind := "unknown"
		var subErr *service.SubmitError
		if errors.As(err, &subErr) {
			kind = string(subErr.Kind)
		}
		c.JSON(http.StatusSeeOther, gin.H{
			"success":  false,
			"location": target,
			"error": gin.H{
				"code":    "SUBMIT_FAILED",
				"kind":    kind,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusSeeOther, gin.H{
		"success":  true,
		"location": target,
		"data":     bill,
	})
}
