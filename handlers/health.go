// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck processes GET /health requests.
//
// Liveness only; readiness of AWS credentials and the trending store is
// observed through the metrics endpoint instead.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Root processes GET / requests with a short service banner.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "kook-backend",
		"message": "K-Food recipe API",
	})
}
