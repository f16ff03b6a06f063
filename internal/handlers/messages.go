package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinicdesk-server/internal/middleware"
	"clinicdesk-server/internal/models"
	"clinicdesk-server/internal/utils"
)

// MessageHandler handles messaging between users.
type MessageHandler struct {
	DB *gorm.DB
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{DB: db}
}

// MessageResponse is a message with sender and recipient fields attached.
type MessageResponse struct {
	models.Message
	Sender    *models.UserSanitized `json:"sender,omitempty"`
	Recipient *models.UserSanitized `json:"recipient,omitempty"`
}

func messageResponse(m models.Message) MessageResponse {
	resp := MessageResponse{Message: m}
	if m.Sender.ID != "" {
		u := m.Sender.Sanitize()
		resp.Sender = &u
	}
	if m.Recipient.ID != "" {
		u := m.Recipient.Sanitize()
		resp.Recipient = &u
	}
	return resp
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required,uuid"`
	Subject     string `json:"subject" binding:"required"`
	Content     string `json:"content" binding:"required"`
	ReplyToID   string `json:"replyToId"`
}

// SendMessage creates a message addressed to another user and drops a
// notification for them.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	senderID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	if req.RecipientID == senderID {
		utils.BadRequest(c, "Cannot send a message to yourself")
		return
	}

	var recipient models.User
	if err := h.DB.First(&recipient, "id = ?", req.RecipientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Recipient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.ReplyToID != "" {
		var parent models.Message
		if err := h.DB.First(&parent, "id = ?", req.ReplyToID).Error; err != nil {
			utils.BadRequest(c, "Message being replied to does not exist")
			return
		}
	}

	message := models.Message{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		ReplyToID:   req.ReplyToID,
		Subject:     req.Subject,
		Content:     req.Content,
	}

	if err := h.DB.Create(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to send message: "+err.Error())
		return
	}

	if err := notify(h.DB, recipient.ID, models.NotificationMessage,
		"New message", req.Subject, message.ID); err != nil {
		utils.InternalServerError(c, "Failed to create notification: "+err.Error())
		return
	}

	utils.Created(c, "Message sent successfully", message)
}

// GetMessages returns the current user's messages. ?box=sent returns sent
// mail, anything else the inbox. Soft-deleted messages are excluded.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	query := h.DB.Preload("Sender").Preload("Recipient").
		Where("is_deleted = ?", false).
		Order("created_at desc")

	if c.Query("box") == "sent" {
		query = query.Where("sender_id = ?", userID)
	} else {
		query = query.Where("recipient_id = ?", userID)
	}

	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}

	responses := make([]MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = messageResponse(m)
	}

	utils.Success(c, "Messages fetched successfully", responses)
}

// GetUnreadCount returns the number of unread inbox messages.
func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var count int64
	if err := h.DB.Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ? AND is_deleted = ?", userID, false, false).
		Count(&count).Error; err != nil {
		utils.InternalServerError(c, "Failed to count messages: "+err.Error())
		return
	}

	utils.Success(c, "Unread count fetched successfully", gin.H{"count": count})
}

// MarkMessageAsRead marks an inbox message as read. Only the recipient may do
// this.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	messageID := c.Param("id")

	var message models.Message
	if err := h.DB.First(&message, "id = ?", messageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if message.RecipientID != userID {
		utils.Forbidden(c, "Only the recipient can mark a message as read")
		return
	}

	if !message.IsRead {
		now := time.Now()
		message.IsRead = true
		message.ReadAt = &now
		if err := h.DB.Save(&message).Error; err != nil {
			utils.InternalServerError(c, "Failed to update message: "+err.Error())
			return
		}
	}

	utils.Success(c, "Message marked as read", message)
}

// DeleteMessage soft-deletes a message. Either party may do it.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	messageID := c.Param("id")

	var message models.Message
	if err := h.DB.First(&message, "id = ?", messageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if message.SenderID != userID && message.RecipientID != userID {
		utils.Forbidden(c, "You are not a party to this message")
		return
	}

	message.IsDeleted = true
	if err := h.DB.Save(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete message: "+err.Error())
		return
	}

	utils.Success(c, "Message deleted", nil)
}
