package controller

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kolawole99/henry-capstone/models"
	"github.com/Kolawole99/henry-capstone/services"
	"github.com/Kolawole99/henry-capstone/storage"
)

// FileController handles file upload, listing and deletion, and drives the
// vector index on both sides of the file lifecycle.
type FileController struct {
	store     storage.Store
	indexes   ChunkIndexes
	uploadDir string
	logger    *zap.Logger
}

// NewFileController builds the controller. uploadDir is created if missing.
func NewFileController(store storage.Store, indexes ChunkIndexes, uploadDir string, logger *zap.Logger) (*FileController, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileController{store: store, indexes: indexes, uploadDir: uploadDir, logger: logger}, nil
}

// Upload is the handler for POST /api/v1/files. The multipart form carries
// the file and an optional agent_id field scoping it to that agent's
// collection. The file record is committed before ingestion: if the index is
// unreachable the upload still succeeds and ingestion can be retried, which
// beats losing the upload.
func (c *FileController) Upload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing file field"})
		return
	}
	agentID := ctx.PostForm("agent_id")

	reqCtx := ctx.Request.Context()
	if agentID != "" {
		agent, err := c.store.GetAgent(reqCtx, agentID)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load agent"})
			return
		}
		if agent == nil {
			ctx.JSON(http.StatusNotFound, models.ErrorResponse{Error: "agent not found"})
			return
		}
	}

	fileID := uuid.New().String()
	destPath := filepath.Join(c.uploadDir, fileID+"_"+filepath.Base(fileHeader.Filename))
	if err := ctx.SaveUploadedFile(fileHeader, destPath); err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save file"})
		return
	}

	record := &models.File{
		ID:       fileID,
		Name:     fileHeader.Filename,
		Filepath: destPath,
		Size:     fileHeader.Size,
		AgentID:  agentID,
	}
	if err := c.store.CreateFile(reqCtx, record); err != nil {
		_ = os.Remove(destPath)
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to record file"})
		return
	}

	chunks := 0
	if index, err := c.indexes.IndexFor(reqCtx, agentID); err != nil {
		c.logger.Warn("index unreachable, file recorded but not ingested",
			zap.String("file_id", fileID), zap.Error(err))
	} else if chunks, err = index.IngestFile(reqCtx, destPath, fileID); err != nil {
		if errors.Is(err, services.ErrEmptyDocument) {
			c.logger.Warn("uploaded file has no extractable text", zap.String("file_id", fileID))
		} else {
			c.logger.Warn("ingestion failed, file recorded but not ingested",
				zap.String("file_id", fileID), zap.Error(err))
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"id":          record.ID,
		"name":        record.Name,
		"size":        record.Size,
		"agent_id":    record.AgentID,
		"chunks":      chunks,
		"uploaded_at": record.UploadedAt.Format(time.RFC3339),
	})
}

// List is the handler for GET /api/v1/files. An agent_id query parameter
// narrows the listing to one agent.
func (c *FileController) List(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()

	var (
		files []*models.File
		err   error
	)
	if agentID := ctx.Query("agent_id"); agentID != "" {
		files, err = c.store.ListFilesByAgent(reqCtx, agentID)
	} else {
		files, err = c.store.ListFiles(reqCtx)
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list files"})
		return
	}

	responses := make([]models.FileResponse, 0, len(files))
	for _, file := range files {
		responses = append(responses, models.FileResponse{
			ID:         file.ID,
			Name:       file.Name,
			Size:       file.Size,
			AgentID:    file.AgentID,
			UploadedAt: file.UploadedAt.Format(time.RFC3339),
		})
	}
	ctx.JSON(http.StatusOK, responses)
}

// Delete is the handler for DELETE /api/v1/files/:id. Chunks are removed
// from the owning collection first; only then are the physical file and its
// record dropped, so a reachable record always points at removable chunks.
func (c *FileController) Delete(ctx *gin.Context) {
	fileID := ctx.Param("id")
	reqCtx := ctx.Request.Context()

	file, err := c.store.GetFile(reqCtx, fileID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load file"})
		return
	}
	if file == nil {
		ctx.JSON(http.StatusNotFound, models.ErrorResponse{Error: "file not found"})
		return
	}

	index, err := c.indexes.IndexFor(reqCtx, file.AgentID)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "vector index unreachable"})
		return
	}
	deleted, err := index.DeleteFile(reqCtx, fileID)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "failed to delete file chunks"})
		return
	}

	if err := os.Remove(file.Filepath); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("failed to remove uploaded file", zap.String("path", file.Filepath), zap.Error(err))
	}
	if err := c.store.DeleteFile(reqCtx, fileID); err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete file record"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "file deleted", "chunks_deleted": deleted})
}
