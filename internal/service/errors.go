package service

import "errors"

// Errores sentinel del dominio; los handlers los mapean a codigos HTTP.
var (
	ErrEmptyMessage         = errors.New("message is empty")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrPersonalityNotFound  = errors.New("personality not found")
	ErrPersonalityExists    = errors.New("personality name already exists for user")
	ErrInvalidArchetype     = errors.New("unknown archetype")
	ErrForbidden            = errors.New("resource does not belong to user")
	ErrConversationBusy     = errors.New("conversation has a message in flight")
)
