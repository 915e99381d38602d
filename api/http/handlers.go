// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"planStore/internal/docstore"
	"planStore/pkg/log"
	"planStore/pkg/pool"
)

type getResponse struct {
	Value *string `json:"value"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type postRequest struct {
	Value interface{} `json:"value"`
}

type patchRequest struct {
	Action string      `json:"action"`
	Item   interface{} `json:"item"`
	ID     interface{} `json:"id"`
}

// handleGet returns the document as JSON text, or null when there is none
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	value, found, err := s.cfg.Store.Get(r.Context(), key)
	if err != nil {
		s.writeStoreError(w, r, "get", key, err)
		return
	}

	resp := getResponse{}
	if found {
		text, err := marshalValue(value)
		if err != nil {
			s.writeStoreError(w, r, "get", key, err)
			return
		}
		resp.Value = &text
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePost replaces the document. A string value holding JSON text is
// stored parsed.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req postRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.cfg.Store.Set(r.Context(), key, docstore.UnwrapJSONString(req.Value)); err != nil {
		s.writeStoreError(w, r, "set", key, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// handlePatch applies an add, update or delete to a list document
func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req patchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	_, err := s.cfg.Store.Patch(r.Context(), key, docstore.Patch{
		Action: docstore.Action(req.Action),
		Item:   req.Item,
		ID:     req.ID,
	})
	if err != nil {
		s.writeStoreError(w, r, "patch", key, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// decodeBody reads one JSON object, keeping numbers as written
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	err := dec.Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
	default:
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
	}
	return false
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op, key string, err error) {
	if docstore.IsInvalidRequest(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Error("storage request failed",
		log.String("operation", op),
		log.KeyString(key),
		log.RequestID(requestIDFrom(r.Context())),
		log.Err(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

// marshalValue renders a document as compact JSON text without HTML escaping
func marshalValue(v interface{}) (string, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"failed to encode response"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
