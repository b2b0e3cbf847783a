package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/fintegro/bankhook/internal/payment/domain"
	"github.com/shopspring/decimal"
)

type bankWebhookRequest struct {
	OperationID    string          `json:"operation_id"`
	Amount         decimal.Decimal `json:"amount"`
	PayerINN       string          `json:"payer_inn"`
	DocumentNumber string          `json:"document_number"`
	DocumentDate   time.Time       `json:"document_date"`
}

func (s *Server) HandleBankWebhook(c *gin.Context) {
	var req bankWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.OperationID) == "" {
		AbortWithError(c, newValidationError("operation_id", "required", "operation_id is required"))
		return
	}

	result, err := s.paymentSvc.Ingest(c.Request.Context(), paymentdomain.IngestRequest{
		OperationID:    req.OperationID,
		Amount:         req.Amount,
		PayerINN:       req.PayerINN,
		DocumentNumber: req.DocumentNumber,
		DocumentDate:   req.DocumentDate,
	})
	if err != nil {
		if errors.Is(err, paymentdomain.ErrAlreadyProcessed) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"message": "payment already processed",
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":       "success",
		"balance":      result.Balance.StringFixed(2),
		"operation_id": result.OperationID.String(),
	})
}
