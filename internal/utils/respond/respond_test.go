package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/swipe-server/internal/errors"
)

func TestError_WritesMappedStatusAndMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, nil, fmt.Errorf("rewind: %w", svcErr.ErrInsufficientFunds))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rewind: insufficient coins", body["message"])
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ann"}`))
	require.NoError(t, Decode(req, &v))
	assert.Equal(t, "ann", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{broken`))
	err := Decode(req, &v)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, svcErr.Map(err).Status)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	assert.NoError(t, Decode(req, &v))
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/users/42", nil)
	req.SetPathValue("id", "42")
	id, err := PathID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, raw := range []string{"", "0", "-1", "abc"} {
		req.SetPathValue("id", raw)
		_, err := PathID(req, "id")
		assert.ErrorIs(t, err, svcErr.ErrValidation, raw)
	}
}
