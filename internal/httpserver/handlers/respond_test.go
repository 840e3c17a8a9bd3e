package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/reorder"
	"github.com/MrSnakeDoc/chatmark/internal/service"
	"github.com/MrSnakeDoc/chatmark/internal/store"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown record before tree family", fmt.Errorf("x: %w", domain.ErrUnknownRecord), http.StatusNotFound},
		{"cycle", domain.ErrWouldCreateCycle, http.StatusConflict},
		{"self drop", domain.ErrSelfDrop, http.StatusConflict},
		{"capture", domain.ErrNoContainer, http.StatusUnprocessableEntity},
		{"resolve miss", domain.ErrContainerGone, http.StatusNotFound},
		{"missing meta", store.ErrNotFound, http.StatusNotFound},
		{"invalid request", service.ErrInvalidRequest, http.StatusBadRequest},
		{"invalid record", domain.ErrInvalidRecord, http.StatusBadRequest},
		{"invalid settings", domain.ErrInvalidSettings, http.StatusBadRequest},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestWriteErrorMasksInternalErrors(t *testing.T) {
	d := deps.Deps{Logger: logger.Nop()}

	rec := httptest.NewRecorder()
	writeError(rec, d, errors.New("redis: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")

	rec = httptest.NewRecorder()
	writeError(rec, d, fmt.Errorf("%w: name required", service.ErrInvalidRequest))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body.Error, "name required")
}

func TestDecode(t *testing.T) {
	d := deps.Deps{Logger: logger.Nop(), MaxBodyBytes: 64}
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"title":"x"}`, true},
		{"empty", ``, false},
		{"malformed", `{"title":`, false},
		{"trailing data", `{"title":"x"} {"title":"y"}`, false},
		{"too large", `{"title":"` + strings.Repeat("x", 100) + `"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v metaRequest
			assert.Equal(t, tt.ok, decode(rec, req, d, &v))
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestMoveRequestGesture(t *testing.T) {
	offset := func(v float64) *float64 { return &v }
	no := false

	tests := []struct {
		name    string
		req     moveRequest
		want    reorder.Gesture
		wantErr bool
	}{
		{
			name: "to root end",
			req:  moveRequest{},
			want: reorder.Gesture{Moving: "a"},
		},
		{
			name: "explicit position",
			req:  moveRequest{Target: "b", Position: "before"},
			want: reorder.Gesture{Moving: "a", Target: "b", Position: reorder.Before},
		},
		{
			name: "geometry nests in the middle band",
			req:  moveRequest{Target: "b", OffsetY: offset(50), Height: 100},
			want: reorder.Gesture{Moving: "a", Target: "b", Position: reorder.Nest},
		},
		{
			name: "geometry without nesting splits in half",
			req:  moveRequest{Target: "b", OffsetY: offset(60), Height: 100, CanNest: &no},
			want: reorder.Gesture{Moving: "a", Target: "b", Position: reorder.After},
		},
		{
			name:    "target without position",
			req:     moveRequest{Target: "b"},
			wantErr: true,
		},
		{
			name:    "unknown position",
			req:     moveRequest{Target: "b", Position: "sideways"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.req.gesture("a")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g)
		})
	}
}

func TestProviderParam(t *testing.T) {
	p, err := providerParam("claude")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderClaude, p)

	p, err = providerParam("")
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = providerParam("bard")
	assert.ErrorIs(t, err, service.ErrInvalidRequest)
}
