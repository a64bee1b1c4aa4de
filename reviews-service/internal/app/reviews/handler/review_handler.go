package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shopreviews/pkg/logger"
	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
	}
}

// ListReviews handles GET /reviews/.
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	reviews, err := h.reviewService.ListActive(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list reviews")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get reviews"})
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// CreateReview handles POST /reviews/.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	caller, ok := principalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req entity.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: formatValidationError(err)})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), caller, &req)
	if err != nil {
		h.writeServiceError(c, err, "Failed to create review")
		return
	}

	c.JSON(http.StatusCreated, review)
}

// DeleteReview handles DELETE /reviews/:review_id.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	caller, ok := principalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	reviewID, ok := parseReviewID(c)
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), reviewID, caller); err != nil {
		h.writeServiceError(c, err, "Failed to delete review")
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: "Review deleted"})
}

// GetReviewHistory handles GET /reviews/:review_id/history.
func (h *ReviewHandler) GetReviewHistory(c *gin.Context) {
	reviewID, ok := parseReviewID(c)
	if !ok {
		return
	}

	entries, err := h.reviewService.ReviewHistory(c.Request.Context(), reviewID)
	if err != nil {
		h.writeServiceError(c, err, "Failed to get review history")
		return
	}

	c.JSON(http.StatusOK, entries)
}

func parseReviewID(c *gin.Context) (int64, bool) {
	reviewID, err := strconv.ParseInt(c.Param("review_id"), 10, 64)
	if err != nil || reviewID <= 0 {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid review ID"})
		return 0, false
	}
	return reviewID, true
}

func (h *ReviewHandler) writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Review not found"})
	case errors.Is(err, service.ErrDuplicateReview):
		c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Review already exists for this product"})
	case errors.Is(err, service.ErrInvalidGrade):
		c.JSON(http.StatusUnprocessableEntity, entity.ErrorResponse{Error: "Grade must be between 1 and 5"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "Access denied"})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: fallback})
	}
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
