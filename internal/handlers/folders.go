package handlers

import (
	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FoldersHandler struct {
	Folders *services.FolderService
}

func NewFoldersHandler(folders *services.FolderService) *FoldersHandler {
	return &FoldersHandler{Folders: folders}
}

type createFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentID"`
}

func (h *FoldersHandler) Create(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var parentID *uuid.UUID
	if req.ParentID != nil {
		parsed, err := parseOptionalUUID(*req.ParentID)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid parentID")
		}
		parentID = parsed
	}

	folder, err := h.Folders.Create(c.Context(), req.Name, parentID, *requesterID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, folder)
}

func (h *FoldersHandler) List(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	parentID, err := parseOptionalUUID(c.Query("parentID"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentID")
	}

	var folders []models.Folder
	if c.QueryBool("all", false) {
		folders, err = h.Folders.List(c.Context(), parentID)
	} else {
		folders, err = h.Folders.ListForOwner(c.Context(), parentID, *requesterID)
	}
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, folders)
}

func (h *FoldersHandler) Tree(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	parentID, err := parseOptionalUUID(c.Query("parentID"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentID")
	}

	tree, err := h.Folders.Tree(c.Context(), parentID, *requesterID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, tree)
}

type renameFolderRequest struct {
	Name string `json:"name"`
}

func (h *FoldersHandler) Update(c *fiber.Ctx) error {
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var req renameFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	folder, err := h.Folders.Rename(c.Context(), folderID, req.Name)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, folder)
}

func (h *FoldersHandler) Delete(c *fiber.Ctx) error {
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	if err := h.Folders.Delete(c.Context(), folderID); err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

type shareFolderRequest struct {
	UserIDs     []uuid.UUID        `json:"userIDs"`
	AccessLevel models.AccessLevel `json:"accessLevel"`
}

func (h *FoldersHandler) Share(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var req shareFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.UserIDs) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "userIDs is required")
	}

	shares, err := h.Folders.ShareWithUsers(c.Context(), folderID, *requesterID, req.UserIDs, req.AccessLevel)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, shares)
}

func (h *FoldersHandler) SharedWithMe(c *fiber.Ctx) error {
	requesterID := middleware.GetRequesterID(c)
	if requesterID == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	shares, err := h.Folders.SharedWith(c.Context(), *requesterID)
	if err != nil {
		return utils.AppError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, shares)
}
