package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/backend/models"
	"task-manager/backend/policy"
)

// Error classes surfaced to the transport layer. Operations wrap them with context;
// anything that does not wrap one of these is an internal failure.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("not authorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("credentials expired")
)

func authorize(caller models.Caller, action policy.Action, assigned bool) error {
	if !policy.Decide(caller, action, assigned).Allowed() {
		return fmt.Errorf("%w: not allowed to %s", ErrForbidden, action)
	}
	return nil
}

func parseObjectID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid %s ID format", ErrValidation, what)
	}
	return oid, nil
}
