package importcsv

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetnest/internal/encoding"
	"github.com/MrJamesThe3rd/budgetnest/internal/http/respond"
	"github.com/MrJamesThe3rd/budgetnest/internal/importer"
)

const maxUpload = 10 << 20

type Handler struct {
	importSvc *importer.Service
	maxUpload int64
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc, maxUpload: maxUpload}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/import", h.importCSV)
}

type expenseResponse struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  string          `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

type skippedResponse struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type importResponse struct {
	Charset   encoding.Charset  `json:"charset"`
	Imported  int               `json:"imported"`
	Suggested int               `json:"suggested"`
	Expenses  []expenseResponse `json:"expenses"`
	Skipped   []skippedResponse `json:"skipped"`
}

// importCSV accepts either a multipart form with a "file" field or a raw CSV body.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var body io.Reader = r.Body

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		body = file
	}

	report, err := h.importSvc.Import(r.Context(), p, body)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := importResponse{
		Charset:   report.Charset,
		Imported:  len(report.Imported),
		Suggested: report.Suggested,
		Expenses:  make([]expenseResponse, 0, len(report.Imported)),
		Skipped:   make([]skippedResponse, 0, len(report.Skipped)),
	}

	for _, e := range report.Imported {
		resp.Expenses = append(resp.Expenses, expenseResponse(e))
	}

	for _, s := range report.Skipped {
		resp.Skipped = append(resp.Skipped, skippedResponse(s))
	}

	respond.JSON(w, http.StatusCreated, resp)
}
