package handlers

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FilesHandler struct {
	Files *services.FileService
}

func NewFilesHandler(files *services.FileService) *FilesHandler {
	return &FilesHandler{Files: files}
}

func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	folderID, err := parseOptionalUUID(c.FormValue("folderID"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folderID")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	file, err := h.Files.Upload(c.Context(), services.UploadInput{
		Reader:       stream,
		OriginalName: fileHeader.Filename,
		MimeType:     contentType,
		Size:         fileHeader.Size,
		FolderID:     folderID,
		OwnerID:      *requesterID,
	})
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, file)
}

func (h *FilesHandler) Download(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	info, err := h.Files.Download(c.Context(), fileID, *requesterID)
	if err != nil {
		return utils.AppError(c, err)
	}

	c.Set(fiber.HeaderContentType, info.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", info.Filename))
	return c.SendFile(info.Path)
}

type renameFileRequest struct {
	Name string `json:"name"`
}

func (h *FilesHandler) Rename(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req renameFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	file, err := h.Files.Rename(c.Context(), fileID, req.Name, *requesterID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, file)
}

type moveFilesRequest struct {
	FileIDs  []uuid.UUID `json:"fileIDs"`
	FolderID *string     `json:"folderID"`
}

func (h *FilesHandler) Move(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req moveFilesRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.FileIDs) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "fileIDs is required")
	}

	var folderID *uuid.UUID
	if req.FolderID != nil {
		parsed, err := parseOptionalUUID(*req.FolderID)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid folderID")
		}
		folderID = parsed
	}

	moved, err := h.Files.Move(c.Context(), req.FileIDs, folderID, *requesterID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"moved": moved})
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	if err := h.Files.Delete(c.Context(), fileID, *requesterID); err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (h *FilesHandler) Search(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	query := strings.TrimSpace(c.Query("q"))
	files, err := h.Files.Search(c.Context(), query, *requesterID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, files)
}

type shareFileRequest struct {
	UserIDs     []uuid.UUID        `json:"userIDs"`
	AccessLevel models.AccessLevel `json:"accessLevel"`
}

func (h *FilesHandler) Share(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req shareFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.UserIDs) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "userIDs is required")
	}

	shares, err := h.Files.ShareWithUsers(c.Context(), fileID, *requesterID, req.UserIDs, req.AccessLevel)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, shares)
}

func (h *FilesHandler) SharedWithMe(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	shares, err := h.Files.SharedWith(c.Context(), *requesterID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, shares)
}
