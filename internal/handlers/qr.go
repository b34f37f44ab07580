package handlers

import (
	"errors"

	"scanpay/internal/services/qr"
	"scanpay/internal/utils/response"
	"scanpay/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
)

type QRHandler struct {
	qrService qr.Service
}

func NewQRHandler(qrService qr.Service) *QRHandler {
	return &QRHandler{qrService: qrService}
}

type interpretRequest struct {
	QRData string `json:"qrData" validate:"required,max=2048"`
}

type renderRequest struct {
	Record *qr.Record `json:"record" validate:"required"`
	Size   int        `json:"size" validate:"omitempty,min=64,max=1024"`
}

// Interpret parses and validates scanned text. Foreign payloads are a 400,
// invalid payment URIs a 422 carrying the result.
func (h *QRHandler) Interpret(c *fiber.Ctx) error {
	var req interpretRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.ValidationError(c, "Invalid request", err)
	}

	res, err := h.qrService.Interpret(c.UserContext(), req.QRData)
	switch {
	case errors.Is(err, qr.ErrNotPaymentURI):
		return response.BadRequest(c, "Not a UPI payment QR code")
	case errors.Is(err, qr.ErrInvalidPayload):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Invalid UPI QR code",
			"data":  res,
		})
	case err != nil:
		return response.ServerError(c, "Failed to interpret QR code")
	}
	return response.Success(c, "QR code interpreted", res)
}

// Render returns the record as a PNG QR code.
func (h *QRHandler) Render(c *fiber.Ctx) error {
	var req renderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.ValidationError(c, "Invalid request", err)
	}

	png, err := qr.RenderPNG(req.Record, req.Size)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
