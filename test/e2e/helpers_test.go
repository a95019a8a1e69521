package e2e_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/helixml/fileserve"
	"github.com/helixml/fileserve/domain/transfer"
	"github.com/helixml/fileserve/infrastructure/api"
	apimiddleware "github.com/helixml/fileserve/infrastructure/api/middleware"
	"github.com/helixml/fileserve/infrastructure/persistence"
	"github.com/helixml/fileserve/internal/config"
	"github.com/helixml/fileserve/internal/database"
	"github.com/stretchr/testify/require"
)

// TestServer serves a temp root over a real listener with an SQLite ledger.
type TestServer struct {
	t          *testing.T
	root       string
	client     *fileserve.Client
	db         database.Database
	store      persistence.TransferStore
	httpServer *httptest.Server
}

// NewTestServer creates a test server with all dependencies wired up.
// A separate DB handle reads the ledger back.
func NewTestServer(t *testing.T, opts ...fileserve.Option) *TestServer {
	t.Helper()

	ctx := context.Background()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	client, err := fileserve.New(append([]fileserve.Option{
		fileserve.WithRoot(root),
		fileserve.WithSQLite(dbPath),
	}, opts...)...)
	require.NoError(t, err)

	db, err := database.NewDatabase(ctx, "sqlite:///"+dbPath)
	require.NoError(t, err)

	logger := client.Logger()
	apiServer := api.NewAPIServer(client, config.NewAppConfig(), "e2e")
	router := apiServer.Router()
	router.Use(apimiddleware.Logging(logger))
	router.Use(apimiddleware.CorrelationID)
	apiServer.MountRoutes()

	server := api.NewServer(":0", logger)
	server.Router().Mount("/", router)

	ts := &TestServer{
		t:          t,
		root:       root,
		client:     client,
		db:         db,
		store:      persistence.NewTransferStore(db),
		httpServer: httptest.NewServer(server.Router()),
	}

	t.Cleanup(ts.Close)
	return ts
}

// URL returns the base URL of the test server.
func (ts *TestServer) URL() string {
	return ts.httpServer.URL
}

// Close shuts down the test server.
func (ts *TestServer) Close() {
	ts.httpServer.Close()
	_ = ts.client.Close()
	_ = ts.db.Close()
}

// WriteFile creates a file under the served root.
func (ts *TestServer) WriteFile(rel string, content []byte) {
	ts.t.Helper()
	p := filepath.Join(ts.root, filepath.FromSlash(rel))
	require.NoError(ts.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(ts.t, os.WriteFile(p, content, 0o644))
}

// Do sends method to path with an optional Range header.
func (ts *TestServer) Do(method, path, rawRange string) *http.Response {
	ts.t.Helper()
	req, err := http.NewRequest(method, ts.URL()+path, nil)
	require.NoError(ts.t, err)
	if rawRange != "" {
		req.Header.Set("Range", rawRange)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	return resp
}

// DecodeJSON decodes the response body as JSON into v.
func (ts *TestServer) DecodeJSON(resp *http.Response, v any) {
	ts.t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(v))
}

// ReadBody reads and returns the response body as a string.
func (ts *TestServer) ReadBody(resp *http.Response) string {
	ts.t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return string(body)
}

// Transfers returns the recorded transfers, newest first.
func (ts *TestServer) Transfers() []transfer.Transfer {
	ts.t.Helper()
	transfers, err := ts.store.Recent(context.Background(), transfer.NewFilter(), 100, 0)
	require.NoError(ts.t, err)
	return transfers
}
