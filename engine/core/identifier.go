package core

import (
	"github.com/google/uuid"
)

// NewBuildID returns a fresh identifier for a partition report.
func NewBuildID() string {
	return uuid.New().String()
}
