package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"novatask/internal/api"
	"novatask/internal/blobstore"
	"novatask/internal/models"
)

// sniffLen is the number of bytes http.DetectContentType looks at.
const sniffLen = 512

// ImageService stores uploaded image bytes and links them to tasks.
type ImageService struct {
	blobs   blobstore.BlobStore
	tasks   *TaskService
	allowed map[string]struct{}
}

// NewImageService constructs an ImageService accepting the given media types.
func NewImageService(blobs blobstore.BlobStore, tasks *TaskService, allowedMediaTypes []string) *ImageService {
	allowed := make(map[string]struct{}, len(allowedMediaTypes))
	for _, mediaType := range allowedMediaTypes {
		allowed[strings.ToLower(strings.TrimSpace(mediaType))] = struct{}{}
	}
	return &ImageService{blobs: blobs, tasks: tasks, allowed: allowed}
}

// Upload validates and stores body, then appends its key to the task images.
func (s *ImageService) Upload(ctx context.Context, taskID string, body io.Reader) (api.ImageUploadResponse, models.Task, error) {
	var resp api.ImageUploadResponse
	if s == nil || s.blobs == nil {
		return resp, models.Task{}, fmt.Errorf("image storage is not configured")
	}

	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		return resp, models.Task{}, err
	}

	br := bufio.NewReaderSize(body, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return resp, models.Task{}, badRequest(fmt.Errorf("read image: %w", err))
	}
	if len(head) == 0 {
		return resp, models.Task{}, badRequestCode(fmt.Errorf("image body is required"), ErrCodeMissingRequired)
	}
	mediaType := sniffMediaType(head)
	if _, ok := s.allowed[mediaType]; !ok {
		return resp, models.Task{}, badRequestCode(fmt.Errorf("media type %s is not allowed", mediaType), ErrCodeInvalidMediaType)
	}

	put, err := s.blobs.Put(ctx, br)
	if err != nil {
		return resp, models.Task{}, err
	}

	task, err := s.tasks.AttachImage(ctx, taskID, put.Key)
	if err != nil {
		if put.Created {
			_ = s.blobs.Delete(context.WithoutCancel(ctx), put.Key)
		}
		return resp, models.Task{}, err
	}

	resp = api.ImageUploadResponse{
		Key:       put.Key,
		SHA256:    put.SHA256,
		SizeBytes: put.SizeBytes,
		MediaType: mediaType,
	}
	return resp, task, nil
}

// Open returns the stored bytes for key.
func (s *ImageService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s == nil || s.blobs == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}
	if !blobstore.IsKey(key) {
		return nil, badRequest(fmt.Errorf("invalid blob key"))
	}
	return s.blobs.Open(ctx, key)
}

func sniffMediaType(head []byte) string {
	detected := http.DetectContentType(head)
	mediaType, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return strings.ToLower(detected)
	}
	return strings.ToLower(mediaType)
}
