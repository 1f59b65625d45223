package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want Callback
	}{
		{"noop", Callback{Action: ActionNoop}},
		{"open", Callback{Action: ActionOpen}},
		{"cart", Callback{Action: ActionCart}},
		{"clear", Callback{Action: ActionClear}},
		{"checkout", Callback{Action: ActionCheckout}},
		{"pg:3", PageCallback(3)},
		{"add:7:pg2", AddCallback(7, 2)},
		{"add:7", AddCallback(7, 1)},
		{"add:7:pgx", AddCallback(7, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseCallback(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "pg:", "pg:two", "add:", "add:abc:pg1", "buy:1", "status:1:done"} {
		_, err := ParseCallback(data)
		assert.ErrorIs(t, err, ErrUnknownCallback, data)
	}
}

func TestCallbackEncode(t *testing.T) {
	assert.Equal(t, "pg:4", PageCallback(4).Encode())
	assert.Equal(t, "add:12:pg3", AddCallback(12, 3).Encode())
	assert.Equal(t, "checkout", Callback{Action: ActionCheckout}.Encode())

	decoded, err := ParseCallback(AddCallback(12, 3).Encode())
	require.NoError(t, err)
	assert.Equal(t, AddCallback(12, 3), decoded)
}
