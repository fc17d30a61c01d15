package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	errx "github.com/deckforge/server/internal/core/error"
	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/deck/pipeline"
	"github.com/deckforge/server/internal/document"
	"github.com/deckforge/server/internal/export"
	"github.com/deckforge/server/internal/themes"
	logx "github.com/deckforge/server/pkg/logger"
)

type handlers struct {
	runner pipeline.Runner
	repo   model.DeckRepository
	cfg    Config
}

func (h *handlers) decodeRequest(w http.ResponseWriter, r *http.Request) (model.GenerateRequest, error) {
	var req model.GenerateRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.maxJSONBody())
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, errx.New(errx.ErrInvalidRequest, http.StatusRequestEntityTooLarge, "request body too large")
		}
		return req, errx.BadRequest(errx.ErrInvalidRequest, "invalid JSON body")
	}
	return req, nil
}

// createDeck runs the full pipeline and stores the result.
func (h *handlers) createDeck(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deck, err := h.runner.Generate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.repo.Save(r.Context(), deck); err != nil {
		writeError(w, r, fmt.Errorf("save deck: %w", err))
		return
	}

	logx.Info().
		Str("deck_id", deck.ID).
		Int("slides", len(deck.Slides)).
		Strs("fallbacks", deck.Meta.Fallbacks).
		Float64("cost_usd", deck.Meta.CostUSD).
		Msg("deck generated")
	writeJSON(w, http.StatusCreated, deck)
}

func (h *handlers) createOutline(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	outline, err := h.runner.Outline(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outline)
}

func (h *handlers) getDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

func (h *handlers) deleteDeck(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *handlers) exportDeck(w http.ResponseWriter, r *http.Request) {
	exporter, err := export.Get(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	deck, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := exporter.Export(deck)
	if err != nil {
		writeError(w, r, fmt.Errorf("export %s: %w", exporter.Format(), err))
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(deck, exporter)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logx.Warn().Err(err).Str("deck_id", deck.ID).Msg("failed to write export")
	}
}

// uploadDocument extracts text from a multipart "file" field so it can be
// sent back as GenerateRequest.Document.
func (h *handlers) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorMessage(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeErrorMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, `missing "file" field`)
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxUploadBytes {
		writeErrorMessage(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	doc, err := document.Extract(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handlers) listThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themes.List())
}

func (h *handlers) listFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, export.Formats())
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
