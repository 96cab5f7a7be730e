package checkout

import (
	"strconv"
	"strings"
)

// ValidateInput checks the checkout form fields before any order is placed.
// The address must be non-blank and the phone number numeric and positive.
func ValidateInput(address, phone string) error {
	if strings.TrimSpace(address) == "" {
		return &ValidationError{Field: "address", Message: "delivery address is required"}
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return &ValidationError{Field: "phone", Message: "phone number is required"}
	}

	n, err := strconv.ParseInt(phone, 10, 64)
	if err != nil || n <= 0 {
		return &ValidationError{Field: "phone", Message: "phone number must be numeric and positive"}
	}

	return nil
}
