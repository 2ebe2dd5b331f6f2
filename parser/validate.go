package parser

import (
	"fmt"
	"strings"

	"shopharvest/models"
)

// ValidateRecord ensures the harvester captured the required fields.
func ValidateRecord(r *models.ListingRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("record missing name")
	}
	if strings.TrimSpace(r.ListingURL) == "" {
		return fmt.Errorf("record missing listing URL for %s", r.Name)
	}
	return nil
}
