package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Model service errors
	ErrModelFatal     = errors.New("model service fatal error")
	ErrModelTransient = errors.New("model service transient error")
	ErrEmptyResponse  = errors.New("model returned empty response")

	// Embedding errors
	ErrEmbeddingFailed = errors.New("embedding failed")

	// Retrieval errors
	ErrKnowledgeBaseNotLoaded = errors.New("knowledge base not loaded")

	// Checkpoint errors
	ErrCheckpointCorrupt = errors.New("checkpoint is corrupt")
	ErrRunNotFound       = errors.New("no results for run")

	// Validation errors
	ErrNoQuestions      = errors.New("no questions to process")
	ErrInvalidQuestion  = errors.New("invalid question")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorClass partitions model service failures
type ErrorClass string

const (
	ErrorClassTransient ErrorClass = "transient"
	ErrorClassFatal     ErrorClass = "fatal"
)

// ModelError is a classified model service failure
type ModelError struct {
	Class      ErrorClass
	StatusCode int
	Err        error
}

func (e *ModelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model %s error (HTTP %d): %v", e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model %s error: %v", e.Class, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the class sentinels
func (e *ModelError) Is(target error) bool {
	switch target {
	case ErrModelFatal:
		return e.Class == ErrorClassFatal
	case ErrModelTransient:
		return e.Class == ErrorClassTransient
	}
	return false
}
