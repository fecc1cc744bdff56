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

// ItemHandler handles HTTP requests for inventory items.
type ItemHandler struct {
	service  *services.ItemService
	validate *validator.Validate
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service *services.ItemService) *ItemHandler {
	return &ItemHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the item routes with the Fiber app. Mutations are
// restricted to admins.
func (h *ItemHandler) RegisterRoutes(router fiber.Router) {
	itemRoutes := router.Group("/items")
	itemRoutes.Get("/", h.HandleGetItems)
	itemRoutes.Get("/:id", h.HandleGetItemByID)
	itemRoutes.Post("/", middleware.RequireRole(models.RoleAdmin), h.HandleCreateItem)
	itemRoutes.Put("/:id", middleware.RequireRole(models.RoleAdmin), h.HandleUpdateItem)
	itemRoutes.Patch("/:id/stock", middleware.RequireRole(models.RoleAdmin), h.HandleAdjustStock)
	itemRoutes.Delete("/:id", middleware.RequireRole(models.RoleAdmin), h.HandleDeleteItem)
}

// HandleGetItems retrieves all items.
func (h *ItemHandler) HandleGetItems(c *fiber.Ctx) error {
	items, err := h.service.GetAllItems()
	if err != nil {
		log.Printf("Error getting all items: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve items",
			"error":   err.Error(),
		})
	}
	return c.JSON(items)
}

// HandleGetItemByID retrieves a single item by its ID.
func (h *ItemHandler) HandleGetItemByID(c *fiber.Ctx) error {
	itemID := c.Params("id")
	item, err := h.service.GetItemByID(itemID)
	if err != nil {
		log.Printf("Error getting item by ID %s: %v", itemID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not retrieve item %s", itemID),
			"error":   err.Error(),
		})
	}
	return c.JSON(item)
}

// HandleCreateItem creates a new item.
func (h *ItemHandler) HandleCreateItem(c *fiber.Ctx) error {
	var item models.Item
	if err := c.BodyParser(&item); err != nil {
		log.Printf("Error parsing item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(item); err != nil {
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

	if err := h.service.CreateItem(&item, time.Now()); err != nil {
		log.Printf("Error creating item: %v", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not create item",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleUpdateItem updates an item's descriptive fields. Stock is changed
// through the dedicated stock endpoint so the ledger bookkeeping holds.
func (h *ItemHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var item models.Item
	if err := c.BodyParser(&item); err != nil {
		log.Printf("Error parsing item update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	item.ID = c.Params("id")

	if err := h.service.UpdateItem(&item); err != nil {
		log.Printf("Error updating item %s: %v", item.ID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not update item %s", item.ID),
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Item %s updated successfully", item.ID),
	})
}

// HandleAdjustStock sets a new total stock for the item.
func (h *ItemHandler) HandleAdjustStock(c *fiber.Ctx) error {
	itemID := c.Params("id")
	var body struct {
		Stock *int `json:"stock"`
	}
	if err := c.BodyParser(&body); err != nil {
		log.Printf("Error parsing stock adjustment body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if body.Stock == nil || *body.Stock < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "stock must be a non-negative integer",
		})
	}

	if err := h.service.AdjustStock(c.UserContext(), itemID, *body.Stock); err != nil {
		log.Printf("Error adjusting stock for item %s: %v", itemID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not adjust stock for item %s", itemID),
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Item %s stock adjusted to %d", itemID, *body.Stock),
	})
}

// HandleDeleteItem deletes an item.
func (h *ItemHandler) HandleDeleteItem(c *fiber.Ctx) error {
	itemID := c.Params("id")
	if err := h.service.DeleteItem(itemID); err != nil {
		log.Printf("Error deleting item %s: %v", itemID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": fmt.Sprintf("Could not delete item %s", itemID),
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Item %s deleted successfully", itemID),
	})
}
