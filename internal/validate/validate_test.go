package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shopbot/internal/validate"
)

func TestCustomerName(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
		ok   bool
	}{
		{"王小明", "王小明", true},
		{"  Mary Chen  ", "Mary Chen", true},
		{"王", "", false},              // too short
		{"abc123", "", false},        // digits rejected
		{"name!", "", false},         // symbols rejected
		{"0912345678", "", false},    // phone typed into the name field
		{"this name is definitely far too long", "", false},
	} {
		got, ok := validate.CustomerName(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got)
		}
	}
}

func TestPhone(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
		ok   bool
	}{
		{"0912345678", "0912345678", true},
		{"0912-345-678", "0912345678", true},
		{"(09) 1234 5678", "0912345678", true},
		{"0812345678", "", false}, // wrong prefix
		{"091234567", "", false},  // too short
		{"09123456789", "", false},
		{"09abcdefgh", "", false},
	} {
		got, ok := validate.Phone(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got)
		}
	}
}

func TestStoreCode(t *testing.T) {
	_, ok := validate.StoreCode("123456")
	assert.True(t, ok)
	for _, bad := range []string{"", "12345", "1234567", "12345a", "abc"} {
		_, ok := validate.StoreCode(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestQty(t *testing.T) {
	n, ok := validate.Qty(" 3 ")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	for _, bad := range []string{"0", "-1", "100", "x"} {
		_, ok := validate.Qty(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestTracking(t *testing.T) {
	got, ok := validate.Tracking(" trk123 ")
	assert.True(t, ok)
	assert.Equal(t, "TRK123", got)
	for _, bad := range []string{"", "ab1", "has space1", "trk-123"} {
		_, ok := validate.Tracking(bad)
		assert.False(t, ok, "input %q", bad)
	}
}
