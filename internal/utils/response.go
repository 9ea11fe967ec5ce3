package utils

import "github.com/gofiber/fiber/v2"

// APIResponse describes the common structure for API responses. Warning is
// set on policy rejections so clients can distinguish "the backend refused
// for business reasons" from a hard failure.
type APIResponse struct {
	Success bool        `json:"success"`
	Warning bool        `json:"warning,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Reasons []string    `json:"reasons,omitempty"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
	})
}

// SendWarning reports a policy rejection: the request was understood and no
// state changed, but the action is refused for the stated reasons. Reasons
// are relayed verbatim.
func SendWarning(c *fiber.Ctx, message string, reasons []string) error {
	if message == "" {
		message = "action not allowed"
	}

	return c.Status(fiber.StatusConflict).JSON(APIResponse{
		Success: false,
		Warning: true,
		Message: message,
		Reasons: reasons,
	})
}
