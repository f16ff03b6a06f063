package handlers

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinicdesk-server/internal/middleware"
	"clinicdesk-server/internal/models"
	"clinicdesk-server/internal/utils"
)

// maxProfileImageSize caps uploads at 2 MB.
const maxProfileImageSize = 2 << 20

// UploadHandler stores profile images as database blobs.
type UploadHandler struct {
	DB *gorm.DB
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(db *gorm.DB) *UploadHandler {
	return &UploadHandler{DB: db}
}

// UploadProfileImage accepts a multipart "file" field, replaces any previous
// image for the user and records the serving path on the user row.
func (h *UploadHandler) UploadProfileImage(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "A 'file' form field is required")
		return
	}
	if fileHeader.Size > maxProfileImageSize {
		utils.BadRequest(c, "File exceeds the 2 MB limit")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		utils.BadRequest(c, "Only image uploads are allowed")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.InternalServerError(c, "Failed to open uploaded file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxProfileImageSize))
	if err != nil {
		utils.InternalServerError(c, "Failed to read uploaded file: "+err.Error())
		return
	}

	var image models.ProfileImage
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.ProfileImage{}).Error; err != nil {
			return err
		}
		image = models.ProfileImage{
			UserID:   userID,
			FileName: fileHeader.Filename,
			FileType: contentType,
			FileData: data,
		}
		if err := tx.Create(&image).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("profile_image", "/api/v1/uploads/profile-image/"+image.ID).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to store profile image: "+err.Error())
		return
	}

	utils.Created(c, "Profile image uploaded successfully", gin.H{
		"id":       image.ID,
		"fileName": image.FileName,
		"fileType": image.FileType,
		"url":      "/api/v1/uploads/profile-image/" + image.ID,
	})
}

// GetProfileImage serves a stored image with its original content type.
func (h *UploadHandler) GetProfileImage(c *gin.Context) {
	imageID := c.Param("id")

	var image models.ProfileImage
	if err := h.DB.First(&image, "id = ?", imageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Image not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	c.Data(200, image.FileType, image.FileData)
}

// DeleteProfileImage removes the current user's image and clears the user
// row's reference to it.
func (h *UploadHandler) DeleteProfileImage(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&models.ProfileImage{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("profile_image", "").Error
	})
	if err == gorm.ErrRecordNotFound {
		utils.NotFound(c, "No profile image to delete")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to delete profile image: "+err.Error())
		return
	}

	utils.Success(c, "Profile image deleted", nil)
}
