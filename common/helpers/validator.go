// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers

import (
	"net"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is a validator instance to be used everywhere. Fields are reported
// with their name in lowercase, as in the configuration file.
var Validate *validator.Validate

// isListen validates a <dns>:<port> combination for fields typically used for
// listening address.
func isListen(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return false
	}
	// An empty host means all addresses
	if host == "" || net.ParseIP(host) != nil {
		return true
	}
	return Validate.Var(host, "hostname_rfc1123") == nil
}

func init() {
	Validate = validator.New()
	Validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.ToLower(field.Name)
	})
	Validate.RegisterValidation("listen", isListen)
}
