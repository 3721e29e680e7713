package models

import "testing"

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{"pending", "confirmed", "shipped", "delivered", "completed", "cancelled"} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range []OrderStatus{"", "paid", "PENDING"} {
		if s.Valid() {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
