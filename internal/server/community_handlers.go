// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"underground/internal/models"
	"underground/internal/repository"
	"underground/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetCollaborations handles GET /api/community/collaborations. Status
// defaults to open; pass status=all to list everything.
func (s *Server) GetCollaborations(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	status := c.Query("status", models.CollaborationStatusOpen)
	if status == "all" {
		status = ""
	}

	collabs, err := s.communityService.ListCollaborations(c.UserContext(), repository.CollaborationFilter{
		Genre:  c.Query("genre"),
		Status: status,
	}, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(collabs)
}

// CreateCollaboration handles POST /api/community/collaborations.
func (s *Server) CreateCollaboration(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Genre       string `json:"genre"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	collab, err := s.communityService.CreateCollaboration(c.UserContext(), service.CreateCollaborationInput{
		UserID:      currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(collab)
}

// GetCollaboration handles GET /api/community/collaborations/:id.
func (s *Server) GetCollaboration(c *fiber.Ctx) error {
	collabID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	collab, err := s.communityService.GetCollaboration(c.UserContext(), collabID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(collab)
}

// UpdateCollaboration handles PUT /api/community/collaborations/:id
// (poster only; updates the status string).
func (s *Server) UpdateCollaboration(c *fiber.Ctx) error {
	collabID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	collab, err := s.communityService.UpdateCollaborationStatus(
		c.UserContext(), currentUserID(c), collabID, req.Status)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(collab)
}

// DeleteCollaboration handles DELETE /api/community/collaborations/:id.
func (s *Server) DeleteCollaboration(c *fiber.Ctx) error {
	collabID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.DeleteCollaboration(c.UserContext(), currentUserID(c), collabID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Collaboration deleted"})
}

// SendMessage handles POST /api/community/messages.
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		ReceiverID uint   `json:"receiver_id"`
		Content    string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.communityService.SendMessage(
		c.UserContext(), currentUserID(c), req.ReceiverID, req.Content)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetThread handles GET /api/community/messages/:userId. Fetching the thread
// marks every unread message from the counterpart as read.
func (s *Server) GetThread(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 50)
	messages, err := s.communityService.Thread(
		c.UserContext(), currentUserID(c), otherID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(messages)
}

// GetConversations handles GET /api/community/conversations.
func (s *Server) GetConversations(c *fiber.Ctx) error {
	conversations, err := s.communityService.Conversations(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(conversations)
}

// GetNotifications handles GET /api/community/notifications.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID := currentUserID(c)
	p := parsePagination(c, 20)
	unreadOnly := c.QueryBool("unread_only", false)

	notifs, err := s.communityService.Notifications(c.UserContext(), userID, unreadOnly, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	unread, err := s.communityService.UnreadNotificationCount(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifs,
		"unread_count":  unread,
	})
}

// MarkNotificationsRead handles PUT /api/community/notifications/read.
// With ids it marks those notifications; without it marks everything.
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	if len(req.IDs) == 0 {
		marked, err := s.communityService.MarkAllNotificationsRead(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.JSON(fiber.Map{"marked": marked})
	}

	for _, id := range req.IDs {
		if err := s.communityService.MarkNotificationRead(c.UserContext(), userID, id); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}
	return c.JSON(fiber.Map{"marked": len(req.IDs)})
}

// GetCommunityStats handles GET /api/community/stats.
func (s *Server) GetCommunityStats(c *fiber.Ctx) error {
	stats, err := s.communityService.Stats(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(stats)
}
