package protocol

import "errors"

var (
	ErrUnknownKind     = errors.New("protocol: unknown message type")
	ErrShortHeader     = errors.New("protocol: short chunk header")
	ErrPayloadTooLarge = errors.New("protocol: payload too large")
	ErrBadPayload      = errors.New("protocol: malformed payload")
)
