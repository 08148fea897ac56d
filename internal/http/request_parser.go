// Package http provides the JSON API over the ledger service.
//
// This file decodes request bodies and query strings into domain values.
// Amounts arrive as JSON numbers or as strings with "." thousands
// separators, the way staff type them.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"salonledger/internal/core"
	"salonledger/internal/services"
)

// transactionRequest is the body of POST and PUT /transactions.
type transactionRequest struct {
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Amount        json.RawMessage `json:"amount"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"payment_method"`
	InvoiceCount  int             `json:"invoice_count"`
	StaffName     string          `json:"staff_name"`
	PurchaseItem  string          `json:"purchase_item"`
	BossOrder     string          `json:"boss_order"`
	ImagePath     string          `json:"image_path"`
	DebtAmount    json.RawMessage `json:"debt_amount"`
	Date          string          `json:"date"`
	RememberStaff bool            `json:"remember_staff"`
}

// decodeJSON reads one JSON value from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest{msg: "cannot read request body"}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return badRequest{msg: "empty request body"}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return badRequest{msg: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return nil
}

// toTransaction converts the request into a transaction ready for the
// service, which canonicalizes and validates it.
func (req transactionRequest) toTransaction() (core.Transaction, error) {
	typ, err := core.ParseType(req.Type)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "type", Reason: "must be one of thu, chi, tip, chi_ho"}
	}
	amount, err := parseMoney(req.Amount, "amount")
	if err != nil {
		return core.Transaction{}, err
	}
	debt, err := parseMoney(req.DebtAmount, "debt_amount")
	if err != nil {
		return core.Transaction{}, err
	}

	var date core.Date
	if d := strings.TrimSpace(req.Date); d != "" {
		if date, err = core.ParseDate(d); err != nil {
			return core.Transaction{}, &core.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
	}

	return core.Transaction{
		Type:           typ,
		Category:       sanitizeInput(req.Category),
		Amount:         amount,
		Description:    sanitizeInput(req.Description),
		PaymentMethod:  core.PaymentMethod(sanitizeInput(req.PaymentMethod)),
		InvoiceCount:   req.InvoiceCount,
		StaffName:      sanitizeInput(req.StaffName),
		PurchaseItem:   sanitizeInput(req.PurchaseItem),
		BossOrder:      sanitizeInput(req.BossOrder),
		AttachmentPath: sanitizeInput(req.ImagePath),
		DebtAmount:     debt,
		Date:           date,
	}, nil
}

// parseMoney accepts a JSON number or a string such as "500.000". An
// absent value is zero; the validator decides whether zero is allowed.
func parseMoney(raw json.RawMessage, field string) (core.Money, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	invalid := &core.ValidationError{Field: field, Reason: "must be a whole number of VND", Err: core.ErrInvalidAmount}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, invalid
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "0" {
			return 0, nil
		}
		m, err := core.ParseAmount(s)
		if err != nil {
			return 0, invalid
		}
		return m, nil
	}

	var m core.Money
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0, invalid
	}
	return m, nil
}

// parseFilter reads from, to and type from the query string.
func parseFilter(q url.Values) (services.Filter, error) {
	var f services.Filter
	var err error
	if f.From, err = queryDate(q, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(q, "to"); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.Compare(f.To) > 0 {
		return f, &core.ValidationError{Field: "from", Reason: "must not be after to"}
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		typ, err := core.ParseType(v)
		if err != nil {
			return f, &core.ValidationError{Field: "type", Reason: "must be one of thu, chi, tip, chi_ho"}
		}
		f.Type = typ
	}
	return f, nil
}

func queryDate(q url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: key, Reason: "must be YYYY-MM-DD"}
	}
	return d, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest{msg: fmt.Sprintf("invalid transaction id %q", r.PathValue("id"))}
	}
	return id, nil
}
