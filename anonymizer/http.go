// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package anonymizer

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type anonymizeResult struct {
	Input      string `json:"input"`
	Anonymized string `json:"anonymized,omitempty"`
	Error      string `json:"error,omitempty"`
}

type anonymizeQuery struct {
	Address string `form:"address" binding:"required"`
}

type anonymizeBatch struct {
	Addresses []string `json:"addresses" binding:"required,min=1,max=10000"`
}

func (c *Component) initHTTP() {
	c.d.HTTP.GinRouter.GET("/api/v0/anonymizer/anonymize", c.anonymizeHTTPHandler)
	c.d.HTTP.GinRouter.POST("/api/v0/anonymizer/anonymize", c.anonymizeBatchHTTPHandler)
}

func (c *Component) anonymizeHTTPHandler(gc *gin.Context) {
	var query anonymizeQuery
	if err := gc.ShouldBindQuery(&query); err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": "missing address"})
		return
	}
	result, err := c.AnonymizeString(query.Address)
	if err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	gc.JSON(http.StatusOK, anonymizeResult{
		Input:      query.Address,
		Anonymized: result,
	})
}

func (c *Component) anonymizeBatchHTTPHandler(gc *gin.Context) {
	var batch anonymizeBatch
	if err := gc.ShouldBindJSON(&batch); err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": "invalid request: expected a list of addresses"})
		return
	}
	results := make([]anonymizeResult, 0, len(batch.Addresses))
	for _, input := range batch.Addresses {
		anonymized, err := c.AnonymizeString(input)
		result := anonymizeResult{Input: input, Anonymized: anonymized}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	gc.JSON(http.StatusOK, gin.H{"results": results})
}
