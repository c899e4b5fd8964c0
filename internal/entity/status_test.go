package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   Status
		wantOK bool
	}{
		{"Draft", StatusDraft, true},
		{"shipped", StatusShipped, true},
		{" CANCELLED ", StatusCancelled, true},
		{"0", StatusDraft, true},
		{"4", StatusCancelled, true},
		{"5", "", false},
		{"-1", "", false},
		{"Pending", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseStatus(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_JSON(t *testing.T) {
	var payload struct {
		Status Status `json:"status"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"status":"approved"}`), &payload))
	assert.Equal(t, StatusApproved, payload.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"status":3}`), &payload))
	assert.Equal(t, StatusCompleted, payload.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"status":"Lost"}`), &payload))
	assert.False(t, payload.Status.Valid())

	out, err := json.Marshal(struct {
		Status Status `json:"status"`
	}{StatusShipped})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Shipped"}`, string(out))
}
