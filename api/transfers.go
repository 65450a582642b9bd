/*
Copyright 2025 Velora Payments Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/velorapay/velora/api/model"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/model"
)

// errorResponse renders an error with its machine-readable code and the
// HTTP status the taxonomy maps it to.
func errorResponse(c *gin.Context, err error) {
	c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  apierror.CodeOf(err),
	})
}

// CreateTransfer opens a transfer and drives it through its synchronous
// phases. It binds the incoming JSON request to a CreateTransfer object,
// validates it, and hands it to the orchestrator.
//
// Responses:
// - 400 Bad Request: binding or validation failure.
// - 201 Created: the transfer reached PAYING_OUT.
// - orchestration failures map through the error taxonomy.
func (a Api) CreateTransfer(c *gin.Context) {
	var newTransfer model2.CreateTransfer
	if err := c.ShouldBindJSON(&newTransfer); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := newTransfer.ValidateCreateTransfer(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.velora.CreateTransfer(c.Request.Context(), newTransfer.ToTransferRequest())
	if err != nil {
		logrus.Error(err)
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetTransferStatus answers a status poll for one transfer.
func (a Api) GetTransferStatus(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /transfers/:id"})
		return
	}

	view, err := a.velora.GetTransferStatus(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CancelTransfer stops a transfer that has not begun moving funds.
//
// Responses:
// - 200 OK: `{"canceled": bool}`; false once funds are moving.
// - 404 Not Found: unknown transfer id.
func (a Api) CancelTransfer(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /transfers/:id/cancel"})
		return
	}

	canceled, err := a.velora.CancelTransfer(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"canceled": canceled})
}

// ListTransfers returns a user's transfers, newest first.
func (a Api) ListTransfers(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	transfers, err := a.velora.ListTransfers(c.Request.Context(), userID, limit, offset)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

// GetRate returns the live exchange rate for a currency pair.
func (a Api) GetRate(c *gin.Context) {
	source := c.Query("source")
	dest := c.Query("dest")
	if source == "" || dest == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and dest query parameters are required"})
		return
	}

	rate, err := a.velora.GetRate(c.Request.Context(), source, dest)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"source": source, "dest": dest, "rate": rate})
}

// LockQuote fixes the current rate into a time-bounded quote.
func (a Api) LockQuote(c *gin.Context) {
	var req model2.LockQuote
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := req.ValidateLockQuote(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	quote, err := a.velora.LockRate(c.Request.Context(), req.SourceCurrency, req.DestCurrency, req.SendAmount)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, quote)
}

// CompareRails prices a prospective transfer on every rail and recommends
// one.
func (a Api) CompareRails(c *gin.Context) {
	var req model2.CompareRails
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := req.ValidateCompareRails(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	recommendation, err := a.velora.CompareRails(c.Request.Context(),
		req.SendAmount, req.SendCurrency, req.ReceiveCurrency, model.Rail(req.Preferred))
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, recommendation)
}
