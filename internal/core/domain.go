package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Transaction kinds as persisted in the data file.
const (
	TypeIncome  Type = "thu"
	TypeExpense Type = "chi"
	TypeTip     Type = "tip"
	TypeAdvance Type = "chi_ho"
)

const (
	PaymentCash         PaymentMethod = "Tiền mặt"
	PaymentBankTransfer PaymentMethod = "Chuyển khoản"
	PaymentCard         PaymentMethod = "Quẹt thẻ"
)

// Category literals with special meaning in reports.
const (
	CategoryServiceRevenue = "Doanh thu dịch vụ"
	CategoryProductRevenue = "Doanh thu sản phẩm"
	CategoryDebt           = "Công nợ"
	CategoryOther          = "Khác"
	CategoryTip            = "TIP"
	CategoryAdvance        = "CHI HỘ"
)

// BossOrderLegacyYes replaces boss_order=true from records written before
// the field carried the authorizer's name.
const BossOrderLegacyYes = "Có"

const (
	dateLayout      = "2006-01-02"
	displayLayout   = "02/01/2006"
	timestampLayout = "2006-01-02 15:04:05"
)

type (
	Type          string
	PaymentMethod string

	// Date is a calendar day stored at midnight UTC.
	Date struct {
		time.Time
	}

	// Timestamp is a wall-clock time with second precision.
	Timestamp struct {
		time.Time
	}

	// Money is an amount in whole currency units (VND).
	Money int64

	Transaction struct {
		ID             int64         `json:"id"`
		Type           Type          `json:"type" validate:"oneof=thu chi tip chi_ho"`
		Category       string        `json:"category"`
		Amount         Money         `json:"amount" validate:"gt=0"`
		Description    string        `json:"description"`
		PaymentMethod  PaymentMethod `json:"payment_method"`
		InvoiceCount   int           `json:"invoice_count" validate:"gte=0"`
		StaffName      string        `json:"staff_name" validate:"notblank"`
		PurchaseItem   string        `json:"purchase_item"`
		BossOrder      string        `json:"boss_order"`
		AttachmentPath string        `json:"image_path"`
		DebtAmount     Money         `json:"debt_amount" validate:"gte=0"`
		Date           Date          `json:"date"`
		CreatedAt      Timestamp     `json:"created_at"`
		UpdatedAt      *Timestamp    `json:"updated_at,omitempty"`
	}
)

// Types lists the transaction kinds in report pass order.
var Types = []Type{TypeIncome, TypeExpense, TypeTip, TypeAdvance}

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentBankTransfer, PaymentCard}

// IncomeCategories are the categories offered for income entries.
var IncomeCategories = []string{CategoryServiceRevenue, CategoryProductRevenue, CategoryDebt, CategoryOther}

// ExpenseCategories are suggestions; expense categories are free text.
var ExpenseCategories = []string{
	"Đồ ăn",
	"Đồ dùng salon",
	"Nước uống",
	"Ship/Giao hàng",
	"Nạp điện thoại",
	"Giữ xe",
	"Sửa chữa",
	CategoryOther,
}

func (t Type) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTip, TypeAdvance:
		return true
	}
	return false
}

// Label is the display name used in reports.
func (t Type) Label() string {
	switch t {
	case TypeIncome:
		return "Thu"
	case TypeExpense:
		return "Chi"
	case TypeTip:
		return "TIP"
	case TypeAdvance:
		return "CHI HỘ"
	}
	return string(t)
}

// ParseType accepts the stored value or the display label, case-insensitively.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for _, t := range Types {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Label()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentBankTransfer, PaymentCard:
		return true
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD. Longer ISO values are cut to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Display formats the date as DD/MM/YYYY.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(displayLayout)
}

// Compare orders two dates by calendar day.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewTimestamp keeps the wall clock of t at second precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// ParseTimestamp parses "YYYY-MM-DD HH:MM:SS".
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return Timestamp{Time: t}, nil
}

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(timestampLayout)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// UnmarshalJSON accepts both encodings boss_order has had over time: a
// boolean flag in the oldest records, the authorizer's name afterwards.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	aux := struct {
		*plain
		BossOrder json.RawMessage `json:"boss_order"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	bo, err := decodeBossOrder(aux.BossOrder)
	if err != nil {
		return fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	t.BossOrder = bo
	return nil
}

func decodeBossOrder(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		if flag {
			return BossOrderLegacyYes, nil
		}
		return "", nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", fmt.Errorf("boss_order: expected bool or string, got %s", raw)
	}
	return strings.TrimSpace(name), nil
}

// QualifiesForInvoices reports whether invoice_count is meaningful for t.
func (t Transaction) QualifiesForInvoices() bool {
	return t.Type == TypeIncome &&
		(t.Category == CategoryServiceRevenue || t.Category == CategoryProductRevenue)
}

// CarriesDebt reports whether debt_amount is meaningful for t.
func (t Transaction) CarriesDebt() bool {
	return t.Type == TypeIncome && t.Category == CategoryDebt
}
