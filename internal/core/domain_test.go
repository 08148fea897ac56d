package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func validIncome() Transaction {
	return Transaction{
		Type:          TypeIncome,
		Category:      CategoryServiceRevenue,
		Amount:        500000,
		PaymentMethod: PaymentCash,
		InvoiceCount:  2,
		StaffName:     "An",
		Date:          NewDate(2024, 1, 1),
	}
}

func validExpense() Transaction {
	return Transaction{
		Type:          TypeExpense,
		Category:      "Đồ dùng salon",
		Amount:        100000,
		PaymentMethod: PaymentCash,
		PurchaseItem:  "Găng tay",
		StaffName:     "An",
		Date:          NewDate(2024, 1, 1),
	}
}

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		tx := validIncome()
		tx.Date = tc.d
		err := tx.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate_AllTypes(t *testing.T) {
	base := map[Type]Transaction{
		TypeIncome:  validIncome(),
		TypeExpense: validExpense(),
		TypeTip:     {Type: TypeTip, Amount: 20000, StaffName: "Bình", Date: NewDate(2024, 1, 1)},
		TypeAdvance: {Type: TypeAdvance, Amount: 300000, StaffName: "Chi", Date: NewDate(2024, 1, 1)},
	}
	for typ, good := range base {
		if err := good.Canonical().Validate(); err != nil {
			t.Fatalf("%s: expected ok, got %v", typ, err)
		}

		zero := good
		zero.Amount = 0
		assertField(t, zero.Validate(), "amount")

		neg := good
		neg.Amount = -5
		assertField(t, neg.Validate(), "amount")

		blankStaff := good
		blankStaff.StaffName = "   "
		assertField(t, blankStaff.Validate(), "staff_name")
	}
}

func TestTransactionValidate_ExpenseOnlyRules(t *testing.T) {
	noCat := validExpense()
	noCat.Category = " "
	assertField(t, noCat.Validate(), "category")

	noItem := validExpense()
	noItem.PurchaseItem = ""
	assertField(t, noItem.Validate(), "purchase_item")

	// The same blanks are fine on the other kinds.
	for _, typ := range []Type{TypeIncome, TypeTip, TypeAdvance} {
		tx := Transaction{Type: typ, Amount: 1000, StaffName: "An", Date: NewDate(2024, 1, 1)}
		if typ == TypeIncome {
			tx.PaymentMethod = PaymentCard
		}
		if err := tx.Validate(); err != nil {
			t.Fatalf("%s with blank category/purchase_item: unexpected %v", typ, err)
		}
	}
}

func TestTransactionValidate_TypeAndPaymentMethod(t *testing.T) {
	bad := validIncome()
	bad.Type = "loan"
	assertField(t, bad.Validate(), "type")

	noMethod := validExpense()
	noMethod.PaymentMethod = ""
	assertField(t, noMethod.Validate(), "payment_method")

	wrongMethod := validIncome()
	wrongMethod.PaymentMethod = "Bitcoin"
	assertField(t, wrongMethod.Validate(), "payment_method")
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on %s, got %v", field, err)
	}
	if verr.Field != field {
		t.Fatalf("expected field %s, got %s (%s)", field, verr.Field, verr.Reason)
	}
}

func TestCanonical(t *testing.T) {
	tip := Transaction{Type: TypeTip, Category: "whatever", PaymentMethod: PaymentCash, InvoiceCount: 3, PurchaseItem: "x", BossOrder: "Sếp"}.Canonical()
	if tip.Category != CategoryTip || tip.PaymentMethod != "" || tip.InvoiceCount != 0 || tip.PurchaseItem != "" || tip.BossOrder != "" {
		t.Fatalf("tip not canonical: %+v", tip)
	}

	adv := Transaction{Type: TypeAdvance, PaymentMethod: PaymentCard}.Canonical()
	if adv.Category != CategoryAdvance || adv.PaymentMethod != "" {
		t.Fatalf("advance not canonical: %+v", adv)
	}

	other := Transaction{Type: TypeIncome, Category: CategoryOther, InvoiceCount: 5, DebtAmount: 10}.Canonical()
	if other.InvoiceCount != 0 || other.DebtAmount != 0 {
		t.Fatalf("income outside revenue/debt categories kept counters: %+v", other)
	}

	debt := Transaction{Type: TypeIncome, Category: CategoryDebt, DebtAmount: 150000}.Canonical()
	if debt.DebtAmount != 150000 {
		t.Fatalf("debt income lost its debt amount: %+v", debt)
	}

	product := Transaction{Type: TypeIncome, Category: CategoryProductRevenue, InvoiceCount: 4}.Canonical()
	if product.InvoiceCount != 4 {
		t.Fatalf("product revenue lost its invoices: %+v", product)
	}
}

func TestTransactionJSON_LegacyRecords(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		boss string
	}{
		{"bool true", `{"id":1,"type":"chi","amount":1000,"boss_order":true,"date":"2024-01-01"}`, BossOrderLegacyYes},
		{"bool false", `{"id":1,"type":"chi","amount":1000,"boss_order":false,"date":"2024-01-01"}`, ""},
		{"string", `{"id":1,"type":"chi","amount":1000,"boss_order":"Chị Lan","date":"2024-01-01"}`, "Chị Lan"},
		{"absent", `{"id":1,"type":"thu","amount":1000,"date":"2024-01-01"}`, ""},
		{"null", `{"id":1,"type":"chi","amount":1000,"boss_order":null,"date":"2024-01-01"}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var tx Transaction
			if err := json.Unmarshal([]byte(tc.raw), &tx); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if tx.BossOrder != tc.boss {
				t.Fatalf("boss_order = %q, want %q", tx.BossOrder, tc.boss)
			}
			if tx.InvoiceCount != 0 || tx.StaffName != "" || tx.PurchaseItem != "" || tx.AttachmentPath != "" || tx.DebtAmount != 0 {
				t.Fatalf("absent fields should default to zero values: %+v", tx)
			}
		})
	}

	var tx Transaction
	if err := json.Unmarshal([]byte(`{"id":1,"type":"chi","amount":1,"boss_order":42}`), &tx); err == nil {
		t.Fatal("expected error for numeric boss_order")
	}
}

func TestTransactionJSON_RoundTrip(t *testing.T) {
	updated := NewTimestamp(time.Date(2024, 1, 2, 9, 30, 0, 0, time.Local))
	in := validExpense()
	in.ID = 7
	in.BossOrder = "Anh Tuấn"
	in.AttachmentPath = "images/20240101_090000_000001.jpg"
	in.Description = "Mua ở chợ Bến Thành"
	in.CreatedAt = NewTimestamp(time.Date(2024, 1, 1, 8, 15, 42, 123, time.Local))
	in.UpdatedAt = &updated

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Transaction
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != in.ID || out.BossOrder != in.BossOrder || out.Description != in.Description ||
		out.Date != in.Date || out.CreatedAt != in.CreatedAt || out.UpdatedAt == nil || *out.UpdatedAt != *in.UpdatedAt {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
	if out.CreatedAt.String() != "2024-01-01 08:15:42" {
		t.Fatalf("created_at = %q", out.CreatedAt.String())
	}
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]Type{"thu": TypeIncome, "Chi": TypeExpense, "TIP": TypeTip, "chi_ho": TypeAdvance, "CHI HỘ": TypeAdvance} {
		got, err := ParseType(in)
		if err != nil || got != want {
			t.Fatalf("ParseType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseType("loan"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name   string
		txs    []Transaction
		lastID int64
		want   int64
	}{
		{"empty", nil, 0, 1},
		{"dense", []Transaction{{ID: 1}, {ID: 2}}, 2, 3},
		{"gap in the middle", []Transaction{{ID: 1}, {ID: 3}}, 3, 4},
		{"newest deleted", []Transaction{{ID: 1}, {ID: 2}}, 3, 4},
		{"all cleared", nil, 5, 6},
		{"stale mark", []Transaction{{ID: 1}, {ID: 9}}, 2, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextID(tt.txs, tt.lastID); got != tt.want {
				t.Errorf("NextID() = %d, want %d", got, tt.want)
			}
		})
	}
	if got := MaxID([]Transaction{{ID: 4}, {ID: 2}}); got != 4 {
		t.Errorf("MaxID() = %d, want 4", got)
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2024, 3, 9)
	if d.String() != "2024-03-09" || d.Display() != "09/03/2024" {
		t.Fatalf("formatting: %s %s", d.String(), d.Display())
	}
	p, err := ParseDate("2024-03-09T00:00:00")
	if err != nil || p != d {
		t.Fatalf("ParseDate long form: %v %v", p, err)
	}
	late := time.Date(2024, 3, 9, 23, 59, 0, 0, time.FixedZone("ICT", 7*3600))
	if DateOf(late) != d {
		t.Fatalf("DateOf ignores time of day: %v", DateOf(late))
	}
}
