package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"billed-backend/models"
	"billed-backend/service"
	"billed-backend/storage"
	"billed-backend/store"
	"billed-backend/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BillHandler serves the bill store API and stored attachments
type BillHandler struct {
	store       store.BillStore
	bills       *service.BillsService
	storage     storage.Storage
	maxFileSize int64
	log         *zap.Logger
}

// NewBillHandler creates a new bill handler
func NewBillHandler(st store.BillStore, bills *service.BillsService, fs storage.Storage, maxFileSize int64, log *zap.Logger) *BillHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BillHandler{
		store:       st,
		bills:       bills,
		storage:     fs,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// CreateBill handles POST /api/bills
func (h *BillHandler) CreateBill(c *gin.Context) {
	req := store.CreateRequest{Email: c.PostForm("email")}
	if req.Email == "" {
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "email is required")
		return
	}

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
		if !validators.ValidateExtension(fileHeader.Filename) {
			respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", service.InvalidFormatMessage)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
			return
		}
		defer file.Close()

		req.File = &models.Attachment{
			Name:        fileHeader.Filename,
			ContentType: validators.ContentTypeFor(fileHeader.Filename),
			Size:        fileHeader.Size,
			Content:     file,
		}
	}

	result, err := h.store.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrInvalidFileType) {
			respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", service.InvalidFormatMessage)
			return
		}
		h.log.Error("Failed to create bill", zap.String("email", req.Email), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", err.Error())
		return
	}

	respondData(c, http.StatusCreated, result)
}

// UpdateBill handles PUT /api/bills/:id and PUT /api/bills
func (h *BillHandler) UpdateBill(c *gin.Context) {
	var bill models.Bill
	if err := c.ShouldBindJSON(&bill); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	saved, err := h.store.Update(c.Request.Context(), store.UpdateRequest{
		Bill:     &bill,
		Selector: c.Param("id"),
	})
	if err != nil {
		h.log.Error("Failed to update bill", zap.String("key", c.Param("id")), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", err.Error())
		return
	}

	respondData(c, http.StatusOK, saved)
}

// ListBills handles GET /api/bills?email=
func (h *BillHandler) ListBills(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "email query parameter is required")
		return
	}

	result, err := h.bills.ListBills(c.Request.Context(), service.ListBillsRequest{Email: email})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	respondData(c, http.StatusOK, result.Bills)
}

// GetBill handles GET /api/bills/:id
func (h *BillHandler) GetBill(c *gin.Context) {
	result, err := h.bills.GetBill(c.Request.Context(), service.GetBillRequest{ID: c.Param("id")})
	if err != nil {
		if errors.Is(err, service.ErrBillNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Bill not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	respondData(c, http.StatusOK, result.Bill)
}

// GetFile handles GET /files/*path
func (h *BillHandler) GetFile(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")

	reader, err := h.storage.Download(c.Request.Context(), storagePath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "File not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED",
			fmt.Sprintf("Failed to download file: %v", err))
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, validators.ContentTypeFor(storagePath), reader, nil)
}
