// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes registers all resource packages. The lending
// middleware is installed on the API group, so every resource handler
// finds a connection lease in its request context.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/momeni/pglend/pkg/adapter/restful/gin/dbrs"
	"github.com/momeni/pglend/pkg/adapter/restful/gin/lendmw"
	"github.com/momeni/pglend/pkg/core/usecase/lenduc"
)

// Prefix is the path prefix of all REST APIs.
const Prefix = "/api/pglend/v1"

// Register installs the lending middleware of the uc use case on the
// Prefix group of the e engine and registers the resources on it.
func Register(e *gin.Engine, uc *lenduc.UseCase) {
	r := e.Group(Prefix, lendmw.New(uc))
	dbrs.Register(r, uc.Pool())
}
