package server

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"
)

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	if !s.imagesEnabled(w, r) {
		return
	}
	if ct := strings.TrimSpace(r.Header.Get("Content-Type")); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "image/") && !strings.HasPrefix(strings.ToLower(ct), "application/octet-stream") {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("content type %s is not an image", ct), ErrCodeInvalidMediaType))
		return
	}

	resp, task, err := s.images.Upload(r.Context(), id, r.Body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp.Task, err = s.taskResponse(r.Context(), task)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.log().Info("image attached", "task_id", id, "key", resp.Key, "size_bytes", resp.SizeBytes)
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	if !s.imagesEnabled(w, r) {
		return
	}
	rc, err := s.images.Open(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, sniffLen)
	head, _ := br.Peek(sniffLen)
	w.Header().Set("Content-Type", http.DetectContentType(head))
	// Keys are content digests, so a stored body never changes.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, br); err != nil {
		s.log().Warn("stream blob", "key", r.PathValue("key"), "error", err)
	}
}

func (s *Server) imagesEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.images != nil {
		return true
	}
	s.writeErrorReq(w, r, http.StatusNotImplemented, makeAPIError(http.StatusNotImplemented, "unimplemented", 0, fmt.Errorf("image storage is not configured")))
	return false
}
