package models

import "github.com/google/uuid"

func shortID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

func NewRunID() string        { return shortID("run") }
func NewVideoID() string      { return shortID("video") }
func NewSOPID() string        { return shortID("sop") }
func NewExecutionID() string  { return shortID("exec") }
func NewValidationID() string { return shortID("val") }
