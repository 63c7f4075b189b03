package server

import (
	"io"

	"devgram/internal/models"
	"devgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadMedia handles POST /api/media (multipart field "file").
// @Summary Upload an image
// @Description Stores a resized WebP rendition and a thumbnail; put the returned url into a post image or avatar
// @Tags media
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "JPEG, PNG or GIF"
// @Success 200 {object} service.MediaResult
// @Failure 400 {object} models.ErrorResponse
// @Router /media [post]
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	if file.Size > s.mediaService.MaxUploadSizeBytes() {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("File too large"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	result, err := s.mediaService.Upload(c.UserContext(), service.UploadMediaInput{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
