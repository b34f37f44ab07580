package response

import (
	stderrors "errors"

	appErrors "scanpay/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

// ValidationError reports field-level failures as a list when details are
// available.
func ValidationError(c *fiber.Ctx, message string, details interface{}) error {
	body := fiber.Map{"error": message}
	if details != nil {
		body["details"] = details
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// DomainError writes a coded error with the status its code maps to.
func DomainError(c *fiber.Ctx, err error) error {
	var de *appErrors.DomainError
	if !stderrors.As(err, &de) {
		return ServerError(c, "internal error")
	}
	return c.Status(statusFor(de.Code)).JSON(fiber.Map{
		"error": de.Message,
		"code":  de.Code,
	})
}

func statusFor(code string) int {
	switch code {
	case appErrors.ErrRecordNotFound.Code:
		return fiber.StatusNotFound
	case appErrors.ErrHashImmutable.Code, appErrors.ErrAlreadySubmitted.Code:
		return fiber.StatusConflict
	case appErrors.ErrInvalidQR.Code, appErrors.ErrInvalidAmount.Code, appErrors.ErrAmountExceedsLimit.Code:
		return fiber.StatusUnprocessableEntity
	case appErrors.ErrQuoteFailed.Code, appErrors.ErrSettlementFailed.Code, appErrors.ErrPayoutFailed.Code:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
