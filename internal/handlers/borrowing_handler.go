package handlers

import (
	"fmt"
	"log"
	"time"

	"inventaris/internal/middleware"
	"inventaris/internal/models"
	"inventaris/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// BorrowingHandler handles HTTP requests for the borrowing lifecycle.
type BorrowingHandler struct {
	service  *services.BorrowingService
	validate *validator.Validate
}

// NewBorrowingHandler creates a new BorrowingHandler.
func NewBorrowingHandler(service *services.BorrowingService) *BorrowingHandler {
	return &BorrowingHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the borrowing routes with the Fiber app. Approval
// and rejection require the admin role; identity itself is checked upstream
// by the auth middleware.
func (h *BorrowingHandler) RegisterRoutes(router fiber.Router) {
	borrowingRoutes := router.Group("/borrowings")
	borrowingRoutes.Get("/", h.HandleGetBorrowings)
	borrowingRoutes.Get("/:id", h.HandleGetBorrowingByID)
	borrowingRoutes.Post("/", h.HandleCreateBorrowing)
	borrowingRoutes.Post("/:id/approve", middleware.RequireRole(models.RoleAdmin), h.HandleApproveBorrowing)
	borrowingRoutes.Post("/:id/reject", middleware.RequireRole(models.RoleAdmin), h.HandleRejectBorrowing)
	borrowingRoutes.Delete("/:id", h.HandleCancelBorrowing)
	borrowingRoutes.Post("/:id/return", h.HandleReturnBorrowing)
	borrowingRoutes.Patch("/:id/extend", h.HandleExtendBorrowing)
}

// HandleGetBorrowings lists borrowings: admins see everything, regular users
// only their own.
func (h *BorrowingHandler) HandleGetBorrowings(c *fiber.Ctx) error {
	var (
		borrowings []models.Borrowing
		err        error
	)
	if roleFromContext(c) == models.RoleAdmin {
		borrowings, err = h.service.GetAllBorrowings()
	} else {
		borrowings, err = h.service.GetBorrowingsByUser(userIDFromContext(c))
	}
	if err != nil {
		log.Printf("Error getting borrowings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve borrowings",
			"error":   err.Error(),
		})
	}
	return c.JSON(borrowings)
}

// HandleGetBorrowingByID retrieves a single borrowing by its ID.
func (h *BorrowingHandler) HandleGetBorrowingByID(c *fiber.Ctx) error {
	borrowingID := c.Params("id")
	borrowing, err := h.service.GetBorrowingByID(borrowingID)
	if err != nil {
		log.Printf("Error getting borrowing by ID %s: %v", borrowingID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not retrieve borrowing %s", borrowingID),
			"error":   err.Error(),
		})
	}
	return c.JSON(borrowing)
}

// HandleCreateBorrowing creates a new borrowing request in pending status.
// The borrower identity comes from the authenticated context.
func (h *BorrowingHandler) HandleCreateBorrowing(c *fiber.Ctx) error {
	var req services.CreateBorrowingRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing borrowing request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	borrowing, err := h.service.Create(c.UserContext(), req, userIDFromContext(c), time.Now())
	if err != nil {
		log.Printf("Error creating borrowing: %v", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not create borrowing",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(borrowing)
}

// HandleApproveBorrowing approves a pending borrowing, reserving stock.
func (h *BorrowingHandler) HandleApproveBorrowing(c *fiber.Ctx) error {
	borrowingID := c.Params("id")
	borrowing, err := h.service.Approve(c.UserContext(), borrowingID, userIDFromContext(c), time.Now())
	if err != nil {
		log.Printf("Error approving borrowing %s: %v", borrowingID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not approve borrowing %s", borrowingID),
			"error":   err.Error(),
		})
	}
	return c.JSON(borrowing)
}

// HandleRejectBorrowing rejects a pending borrowing.
func (h *BorrowingHandler) HandleRejectBorrowing(c *fiber.Ctx) error {
	borrowingID := c.Params("id")
	borrowing, err := h.service.Reject(borrowingID, userIDFromContext(c), time.Now())
	if err != nil {
		log.Printf("Error rejecting borrowing %s: %v", borrowingID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not reject borrowing %s", borrowingID),
			"error":   err.Error(),
		})
	}
	return c.JSON(borrowing)
}

// HandleCancelBorrowing cancels (removes) a pending borrowing.
func (h *BorrowingHandler) HandleCancelBorrowing(c *fiber.Ctx) error {
	borrowingID := c.Params("id")
	if err := h.service.Cancel(borrowingID); err != nil {
		log.Printf("Error cancelling borrowing %s: %v", borrowingID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not cancel borrowing %s", borrowingID),
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Borrowing %s cancelled", borrowingID),
	})
}

// HandleReturnBorrowing completes a borrowing, releasing its stock. The
// return date defaults to now when the body omits it.
func (h *BorrowingHandler) HandleReturnBorrowing(c *fiber.Ctx) error {
	borrowingID := c.Params("id")
	var body struct {
		ReturnDate *time.Time `json:"return_date"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			log.Printf("Error parsing return request body: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid request body",
				"error":   err.Error(),
			})
		}
	}

	borrowing, err := h.service.Return(c.UserContext(), borrowingID, body.ReturnDate, time.Now())
	if err != nil {
		log.Printf("Error returning borrowing %s: %v", borrowingID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not return borrowing %s", borrowingID),
			"error":   err.Error(),
		})
	}
	return c.JSON(borrowing)
}

// HandleExtendBorrowing pushes out the due date of an active borrowing.
func (h *BorrowingHandler) HandleExtendBorrowing(c *fiber.Ctx) error {
	borrowingID := c.Params("id")
	var body struct {
		DueDate time.Time `json:"due_date"`
	}
	if err := c.BodyParser(&body); err != nil {
		log.Printf("Error parsing extend request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if body.DueDate.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "due_date is required",
		})
	}

	borrowing, err := h.service.Extend(borrowingID, body.DueDate)
	if err != nil {
		log.Printf("Error extending borrowing %s: %v", borrowingID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not extend borrowing %s", borrowingID),
			"error":   err.Error(),
		})
	}
	return c.JSON(borrowing)
}

// userIDFromContext reads the authenticated user ID stored by the auth
// middleware.
func userIDFromContext(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

// roleFromContext reads the authenticated role stored by the auth middleware.
func roleFromContext(c *fiber.Ctx) models.Role {
	if role, ok := c.Locals("role").(string); ok {
		return models.Role(role)
	}
	return ""
}
