package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrMarkerNotFound    = errors.New("marker not found")
	ErrMarkerTerminal    = errors.New("marker already finished")
	ErrInvalidStatus     = errors.New("invalid marker status")
	ErrInvalidTransition = errors.New("invalid marker transition")
	ErrEmptyPrompt       = errors.New("empty prompt")
	ErrInvalidPosition   = errors.New("invalid position")
	ErrMessengerFailed   = errors.New("failed to send marker")

	ErrInteractionNotFound = errors.New("interaction not found")
	ErrInteractionKind     = errors.New("unknown interaction kind")
	ErrItemNotFound        = errors.New("item not found")
	ErrUnsupportedMedia    = errors.New("unsupported media")
	ErrProjectLocked       = errors.New("project is opened by another process")
	ErrProjectClosed       = errors.New("project is closed")
	ErrProjectNotFound     = errors.New("project not found")
	ErrInvalidProjectName  = errors.New("invalid project name")
	ErrUnknownSlot         = errors.New("unknown version slot")
	ErrUnknownElement      = errors.New("unsupported element type")
)
