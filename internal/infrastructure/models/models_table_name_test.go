package models

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func TestTableNames(t *testing.T) {
	naming := schema.NamingStrategy{}
	want := map[string]interface{}{
		"users":        User{},
		"payments":     Payment{},
		"transactions": Transaction{},
	}
	for table, m := range want {
		s, err := schema.Parse(m, &sync.Map{}, naming)
		if err != nil {
			t.Fatalf("parse %T: %v", m, err)
		}
		if s.Table != table {
			t.Fatalf("unexpected table name for %T: %s", m, s.Table)
		}
	}
}

func TestTransactionColumns(t *testing.T) {
	s, err := schema.Parse(&Transaction{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, col := range []string{"tx_hash", "cancel_tx_hash", "can_cancel", "type", "payment_id"} {
		if s.LookUpField(col) == nil {
			t.Fatalf("missing column %s", col)
		}
	}
	if got := len(All()); got != 3 {
		t.Fatalf("expected 3 models, got %d", got)
	}
}
