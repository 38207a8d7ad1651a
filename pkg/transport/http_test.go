package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritomyx/peakinvestigator-go/pkg/actions"
)

var testCreds = actions.Credentials{Version: "3.0", User: "user", Code: "password"}

func TestDoPostsFormEncodedQuery(t *testing.T) {
	var gotMethod, gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"Action":"STATUS","Job":"P-504.5148","Status":"Running","Datetime":"2016-02-03 18:25:09"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, time.Second)
	body, err := client.Do(context.Background(), actions.StatusRequest{JobID: "job-123"}, testCreds)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "Version=3.0&User=user&Code=password&Action=STATUS&Job=job-123", gotBody)
	assert.Contains(t, string(body), `"Status":"Running"`)
}

func TestDoBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, time.Second)
	_, err := client.Do(context.Background(), actions.PiVersionsRequest{}, testCreds)

	var transportErr *actions.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, actions.KindTransportFailure, actions.KindOf(err))
}

func TestDoConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewHTTPClient(server.URL, time.Second)
	_, err := client.Do(context.Background(), actions.PiVersionsRequest{}, testCreds)

	var transportErr *actions.TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestDoHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewHTTPClient(server.URL, time.Minute)
	_, err := client.Do(ctx, actions.PiVersionsRequest{}, testCreds)

	var transportErr *actions.TransportError
	require.ErrorAs(t, err, &transportErr)
}
