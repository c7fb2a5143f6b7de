package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/budgetnest/internal/export"
	"github.com/MrJamesThe3rd/budgetnest/internal/http/respond"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/export", h.download)
}

// download serves ?format=csv (default), txt or zip (both files).
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var (
		buf         bytes.Buffer
		contentType string
	)

	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = h.svc.WriteCSV(r.Context(), p, &buf)
	case "txt":
		contentType = "text/plain; charset=utf-8"

		var summary string

		summary, err = h.svc.Summary(r.Context(), p)
		buf.WriteString(summary)
	case "zip":
		contentType = "application/zip"
		err = h.writeZip(r, &buf)
	default:
		http.Error(w, "format must be csv, txt or zip", http.StatusBadRequest)
		return
	}

	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(p, format)))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

func (h *Handler) writeZip(r *http.Request, buf *bytes.Buffer) error {
	p, err := respond.Period(r)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(buf)

	csvFile, err := zw.Create(export.Filename(p, "csv"))
	if err != nil {
		return fmt.Errorf("creating csv entry: %w", err)
	}

	if err := h.svc.WriteCSV(r.Context(), p, csvFile); err != nil {
		return err
	}

	summary, err := h.svc.Summary(r.Context(), p)
	if err != nil {
		return err
	}

	txtFile, err := zw.Create(export.Filename(p, "txt"))
	if err != nil {
		return fmt.Errorf("creating summary entry: %w", err)
	}

	if _, err := txtFile.Write([]byte(summary)); err != nil {
		return fmt.Errorf("writing summary entry: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing zip: %w", err)
	}

	return nil
}
