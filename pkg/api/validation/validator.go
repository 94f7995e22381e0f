// PadCompat Core
// Copyright (c) 2026 The PadCompat Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of PadCompat Core.
//
// PadCompat Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// PadCompat Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with PadCompat Core.  If not, see <http://www.gnu.org/licenses/>.

// Package validation checks API request bodies with go-playground/validator,
// including custom tags for the protocol and connectivity vocabularies.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/padcompat/padcompat-core/pkg/compat"
)

var (
	ErrMissingBody = errors.New("missing request body")
	ErrInvalidBody = errors.New("invalid request body")
)

// Validator handles validation of API request bodies.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the custom tags registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("protocol", validateProtocol)
	_ = v.RegisterValidation("connectivity", validateConnectivity)
	_ = v.RegisterValidation("notblank", validateNotBlank)

	return &Validator{validate: v}
}

// DefaultValidator is a shared validator instance for API use.
var DefaultValidator = NewValidator()

// Validate validates a struct and returns an *Error listing every failed
// field.
func (v *Validator) Validate(params any) error {
	if err := v.validate.Struct(params); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// DecodeAndValidate reads a JSON body into dest and validates it. Unknown
// fields are rejected.
func DecodeAndValidate[T any](body io.Reader, dest *T) error {
	if body == nil {
		return ErrMissingBody
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrMissingBody
		}
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return DefaultValidator.Validate(dest)
}

// validateProtocol accepts any spelling ParseProtocol understands.
func validateProtocol(fl validator.FieldLevel) bool {
	_, ok := compat.ParseProtocol(fl.Field().String())
	return ok
}

// validateConnectivity accepts a connectivity mode or its label. The empty
// string and "Not Supported" are accepted and mean the protocol is absent.
func validateConnectivity(fl validator.FieldLevel) bool {
	val := strings.TrimSpace(fl.Field().String())
	if val == "" || strings.EqualFold(val, compat.LabelNotSupported) {
		return true
	}
	_, ok := compat.ParseConnectivity(val)
	return ok
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
