// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
)

// Required fails when s is empty after trimming whitespace.
func Required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

// RequiredField returns a criterio field error when value is blank.
func RequiredField(field, value string) error {
	return criterio.Run(field, value, Required)
}
