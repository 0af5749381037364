package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher_CostFloor(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{"下限未満は引き上げ", 4, MinBcryptCost},
		{"ゼロ", 0, MinBcryptCost},
		{"下限ちょうど", 10, 10},
		{"下限超過", 11, 11},
		{"上限超過", 99, bcrypt.MaxCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewBcryptHasher(tt.cost).Cost(); got != tt.want {
				t.Errorf("Cost() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(MinBcryptCost)

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if hash == "correct horse battery staple" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("Hash() returned unexpected value %q", hash)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != MinBcryptCost {
		t.Errorf("bcrypt cost = %d (%v), want %d", cost, err, MinBcryptCost)
	}

	ok, err := h.Compare(hash, "correct horse battery staple")
	if err != nil || !ok {
		t.Errorf("Compare(correct) = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = h.Compare(hash, "wrong")
	if err != nil || ok {
		t.Errorf("Compare(wrong) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestBcryptHasher_CompareMalformedHash(t *testing.T) {
	h := NewBcryptHasher(MinBcryptCost)

	ok, err := h.Compare("not-a-hash", "x")
	if ok || err == nil {
		t.Errorf("Compare(malformed) = (%v, %v), want (false, error)", ok, err)
	}
}
