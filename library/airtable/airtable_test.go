package airtable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/model"
)

func TestGetRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/base1/Files/rec1":
			_, _ = w.Write([]byte(`{"id":"rec1","fields":{"Name":"a.pdf","Size":42}}`))
		case "/base1/Files/recEmpty":
			_, _ = w.Write([]byte(`{"id":"recEmpty"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	cli := New("key-123", "base1", "Files", WithBaseURL(srv.URL))

	t.Run("returns fields", func(t *testing.T) {
		fields, err := cli.GetRecord(ctx, "rec1")
		require.NoError(t, err)
		require.Equal(t, "a.pdf", fields["Name"])
		require.Equal(t, float64(42), fields["Size"])
	})

	t.Run("missing fields become empty map", func(t *testing.T) {
		fields, err := cli.GetRecord(ctx, "recEmpty")
		require.NoError(t, err)
		require.NotNil(t, fields)
		require.Empty(t, fields)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := cli.GetRecord(ctx, "recMissing")
		require.ErrorIs(t, err, model.ErrRecordNotFound)
	})
}

func TestUpdateField(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var gotBody map[string]map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/base1/Files/rec1", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"id":"rec1"}`))
	}))
	t.Cleanup(srv.Close)

	cli := New("key-123", "base1", "Files", WithBaseURL(srv.URL))

	require.NoError(t, cli.UpdateField(ctx, "rec1", "Rename Status", "done"))
	require.Equal(t, map[string]any{"Rename Status": "done"}, gotBody["fields"])
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: model.ErrPermission},
		{name: "forbidden", status: http.StatusForbidden, wantErr: model.ErrPermission},
		{name: "not found", status: http.StatusNotFound, wantErr: model.ErrRecordNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: model.ErrTransfer},
		{name: "server error", status: http.StatusInternalServerError, wantErr: model.ErrTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(srv.Close)

			cli := New("key-123", "base1", "Files", WithBaseURL(srv.URL))

			_, err := cli.GetRecord(ctx, "rec1")
			require.ErrorIs(t, err, tt.wantErr)

			err = cli.UpdateField(ctx, "rec1", "f", "v")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
