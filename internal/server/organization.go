package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/fintegro/bankhook/internal/payment/domain"
)

func (s *Server) GetOrganizationBalance(c *gin.Context) {
	resp, err := s.organizationSvc.GetBalance(c.Request.Context(), c.Param("inn"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inn":     resp.INN,
		"balance": resp.Balance.StringFixed(2),
	})
}

type listPaymentsQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=50"`
}

func (s *Server) ListOrganizationPayments(c *gin.Context) {
	var query listPaymentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.ListByINN(c.Request.Context(), paymentdomain.ListPaymentsRequest{
		INN:       c.Param("inn"),
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteOrganization(c *gin.Context) {
	if err := s.organizationSvc.Delete(c.Request.Context(), c.Param("inn")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
