package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"salonledger/internal/aggregate"
	"salonledger/internal/core"
	"salonledger/internal/log"
	"salonledger/internal/services"
)

const (
	opListTransactions  = "list_transactions"
	opCreateTransaction = "create_transaction"
	opUpdateTransaction = "update_transaction"
	opDeleteTransaction = "delete_transaction"
	opClearTransactions = "clear_transactions"
	opListStaff         = "list_staff"
	opAddStaff          = "add_staff"
	opDeleteStaff       = "delete_staff"
	opExportFiltered    = "export_filtered"
	opDownloadExport    = "download_export"
	opRateLimit         = "rate_limit"
)

type listResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Totals       aggregate.Summary  `json:"totals"`
}

type staffRequest struct {
	Name string `json:"name"`
}

type staffResponse struct {
	Staff []string `json:"staff"`
}

type exportFileResponse struct {
	File string `json:"file"`
	Path string `json:"path"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, opListTransactions, err)
		return
	}
	txs, err := s.ledger.List(r.Context(), f)
	if err != nil {
		writeError(w, r, opListTransactions, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Transactions: txs,
		Totals:       aggregate.Summarize(txs),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, opCreateTransaction, err)
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		writeError(w, r, opCreateTransaction, err)
		return
	}
	res, err := s.ledger.Create(r.Context(), t, req.RememberStaff)
	if err != nil {
		writeError(w, r, opCreateTransaction, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, opUpdateTransaction, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, opUpdateTransaction, err)
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		writeError(w, r, opUpdateTransaction, err)
		return
	}
	res, err := s.ledger.Update(r.Context(), id, t)
	if err != nil {
		writeError(w, r, opUpdateTransaction, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, opDeleteTransaction, err)
		return
	}
	rep, err := s.ledger.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, opDeleteTransaction, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleClearTransactions wipes every transaction. The caller must pass
// confirm=true.
func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, r, opClearTransactions, badRequest{msg: "clearing the ledger requires confirm=true"})
		return
	}
	rep, err := s.ledger.ClearAll(r.Context())
	if err != nil {
		writeError(w, r, opClearTransactions, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request) {
	s.writeStaff(w, r, http.StatusOK)
}

func (s *Server) handleAddStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, opAddStaff, err)
		return
	}
	if err := s.ledger.AddStaff(r.Context(), sanitizeInput(req.Name)); err != nil {
		writeError(w, r, opAddStaff, err)
		return
	}
	s.writeStaff(w, r, http.StatusCreated)
}

func (s *Server) handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.PathValue("name"))
	if err := s.ledger.DeleteStaff(r.Context(), name); err != nil {
		writeError(w, r, opDeleteStaff, err)
		return
	}
	s.writeStaff(w, r, http.StatusOK)
}

// writeStaff responds with the current staff list.
func (s *Server) writeStaff(w http.ResponseWriter, r *http.Request, status int) {
	names, err := s.ledger.ListStaff(r.Context())
	if err != nil {
		writeError(w, r, opListStaff, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, status, staffResponse{Staff: names})
}

// handleSummary serves the dashboard for date=D, or from/to, defaulting
// to today.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from, to core.Date

	if day, err := queryDate(q, "date"); err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	} else if !day.IsZero() {
		from, to = day, day
	} else {
		f, err := parseFilter(q)
		if err != nil {
			writeError(w, r, log.OpSummary, err)
			return
		}
		from, to = f.From, f.To
		if from.IsZero() && to.IsZero() {
			today := core.DateOf(s.now())
			from, to = today, today
		}
	}

	sum, err := s.ledger.Summary(r.Context(), from, to)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	rep, err := s.ledger.ExportAll(r.Context())
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	status := http.StatusOK
	if !rep.OK() {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, rep)
}

func (s *Server) handleExportFiltered(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, opExportFiltered, err)
		return
	}
	path, err := s.ledger.ExportFiltered(r.Context(), f)
	if err != nil {
		writeError(w, r, opExportFiltered, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportFileResponse{File: filepath.Base(path), Path: path})
}

// handleDownloadExport serves a workbook from the export directory. Only
// plain .xlsx file names are accepted.
func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if s.exportDir == "" {
		writeError(w, r, opDownloadExport, fmt.Errorf("file export: %w", services.ErrNotConfigured))
		return
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		!strings.EqualFold(filepath.Ext(name), ".xlsx") {
		writeError(w, r, opDownloadExport, badRequest{msg: fmt.Sprintf("invalid export file name %q", name)})
		return
	}

	path := filepath.Join(s.exportDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, r, opDownloadExport, errExportNotFound{name: name})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// errExportNotFound is answered with 404.
type errExportNotFound struct {
	name string
}

func (e errExportNotFound) Error() string { return "export " + e.name + " not found" }
