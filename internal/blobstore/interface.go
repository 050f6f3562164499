package blobstore

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrTooLarge is returned by Put when the payload exceeds the store limit.
	ErrTooLarge = errors.New("blob exceeds size limit")
	// ErrNotFound is returned by Open for unknown keys.
	ErrNotFound = errors.New("blob not found")
)

// PutResult describes one persisted blob payload.
type PutResult struct {
	SHA256    string
	SizeBytes int64
	Key       string
	// Created is false when identical content was already stored.
	Created bool
}

// BlobStore is the byte storage behind task image references.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

var _ BlobStore = (*LocalCAS)(nil)
