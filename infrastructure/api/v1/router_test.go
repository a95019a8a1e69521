package v1_test

import (
	"encoding/json"
	"net/http"
	"mime"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/fileserve"
	v1 "github.com/helixml/fileserve/infrastructure/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clipContent = "0123456789"

func newTestClient(t *testing.T, opts ...fileserve.Option) *fileserve.Client {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "clip.mp4"), []byte(clipContent), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty.bin"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "season 1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "season 1", "ep1.mkv"), []byte("abc"), 0o644))

	opts = append([]fileserve.Option{
		fileserve.WithRoot(root),
		fileserve.WithSQLite(filepath.Join(t.TempDir(), "ledger.db")),
	}, opts...)
	client, err := fileserve.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestRouter(client *fileserve.Client) http.Handler {
	router := chi.NewRouter()
	router.Mount("/files", v1.NewFilesRouter(client).Routes())
	router.Mount("/download", v1.NewDownloadRouter(client).Routes())
	router.Mount("/stream", v1.NewStreamRouter(client).Routes())
	router.Mount("/transfers", v1.NewTransfersRouter(client).Routes())
	return router
}

func do(t *testing.T, h http.Handler, method, target, rng string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if rng != "" {
		req.Header.Set("Range", rng)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type listDoc struct {
	Data []struct {
		Type       string         `json:"type"`
		ID         string         `json:"id"`
		Attributes map[string]any `json:"attributes"`
	} `json:"data"`
	Meta map[string]any `json:"meta"`
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listDoc {
	t.Helper()
	var doc listDoc
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), w.Body.String())
	return doc
}

func TestFiles_ListRoot(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	w := do(t, h, http.MethodGet, "/files", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc := decodeList(t, w)
	names := make([]string, len(doc.Data))
	for i, d := range doc.Data {
		names[i] = d.Attributes["name"].(string)
	}
	assert.Equal(t, []string{"clip.mp4", "empty.bin", "notes.txt", "season 1"}, names)
	assert.Equal(t, "file", doc.Data[0].Type)
	assert.Equal(t, float64(10), doc.Data[0].Attributes["size"])
	assert.Equal(t, true, doc.Data[3].Attributes["is_directory"])
}

func TestFiles_ListSubdirectory(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	w := do(t, h, http.MethodGet, "/files?path=season%201", "")
	require.Equal(t, http.StatusOK, w.Code)

	doc := decodeList(t, w)
	require.Len(t, doc.Data, 1)
	assert.Equal(t, "season 1/ep1.mkv", doc.Data[0].ID)
}

func TestFiles_ListErrors(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/files?path=missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/files?path=notes.txt", "").Code)
}

func TestStream_Full(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	w := do(t, h, http.MethodGet, "/stream?path=clip.mp4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", w.Header().Get("Content-Length"))
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("Content-Range"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Equal(t, clipContent, w.Body.String())
}

func TestStream_Ranges(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	tests := []struct {
		name         string
		rng          string
		status       int
		contentRange string
		body         string
	}{
		{"prefix", "bytes=0-3", http.StatusPartialContent, "bytes 0-3/10", "0123"},
		{"open end", "bytes=7-", http.StatusPartialContent, "bytes 7-9/10", "789"},
		{"clamped end", "bytes=5-100", http.StatusPartialContent, "bytes 5-9/10", "56789"},
		{"single byte", "bytes=9-9", http.StatusPartialContent, "bytes 9-9/10", "9"},
		{"upper case unit", "BYTES=1-2", http.StatusPartialContent, "bytes 1-2/10", "12"},
		{"start past end", "bytes=10-", http.StatusRequestedRangeNotSatisfiable, "bytes */10", ""},
		{"suffix", "bytes=-3", http.StatusRequestedRangeNotSatisfiable, "bytes */10", ""},
		{"multi range", "bytes=0-1,4-5", http.StatusRequestedRangeNotSatisfiable, "bytes */10", ""},
		{"garbage", "items=0-1", http.StatusRequestedRangeNotSatisfiable, "bytes */10", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/stream?path=clip.mp4", tt.rng)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.contentRange, w.Header().Get("Content-Range"))

			if tt.status == http.StatusPartialContent {
				assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
				assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
				assert.Equal(t, tt.body, w.Body.String())
				return
			}
			assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "Requested range not satisfiable")
		})
	}
}

func TestStream_OutOfBoundsMessage(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	w := do(t, h, http.MethodGet, "/stream?path=clip.mp4", "bytes=25-30")
	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
	assert.Equal(t, "Requested range not satisfiable\n25 >= 10", w.Body.String())
}

func TestStream_EmptyFile(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	w := do(t, h, http.MethodGet, "/stream?path=empty.bin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("Content-Length"))
	assert.Empty(t, w.Body.String())

	w = do(t, h, http.MethodGet, "/stream?path=empty.bin", "bytes=0-")
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
}

func TestStream_Head(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	w := do(t, h, http.MethodHead, "/stream?path=clip.mp4", "bytes=2-4")
	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "3", w.Header().Get("Content-Length"))
	assert.Empty(t, w.Body.String())
}

func TestStream_ContentTypeOverride(t *testing.T) {
	h := newTestRouter(newTestClient(t, fileserve.WithContentType("video/mp4")))

	w := do(t, h, http.MethodGet, "/stream?path=notes.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
}

func TestStream_Errors(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/stream", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/stream?path=nope.mp4", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/stream?path=season%201", "").Code)
}

func TestDownload_Attachment(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	w := do(t, h, http.MethodGet, "/download?path=season%201/ep1.mkv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=ep1.mkv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "abc", w.Body.String())

	w = do(t, h, http.MethodGet, "/download?path=clip.mp4", "bytes=8-")
	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "89", w.Body.String())
}

func TestDownload_DispositionFilenames(t *testing.T) {
	root := t.TempDir()
	names := []string{"my clip.mp4", `say "hi".txt`, "café.mp4"}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}
	h := newTestRouter(newTestClient(t, fileserve.WithRoot(root)))

	tests := []struct {
		name string
		want string
	}{
		{"my clip.mp4", `attachment; filename="my clip.mp4"`},
		{`say "hi".txt`, `attachment; filename="say \"hi\".txt"`},
		{"café.mp4", "attachment; filename*=utf-8''caf%C3%A9.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/download?path="+url.QueryEscape(tt.name), "")
			require.Equal(t, http.StatusOK, w.Code)
			got := w.Header().Get("Content-Disposition")
			assert.Equal(t, tt.want, got)

			_, params, err := mime.ParseMediaType(got)
			require.NoError(t, err)
			assert.Equal(t, tt.name, params["filename"])
		})
	}
}

func TestDownload_Directory(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	w := do(t, h, http.MethodGet, "/download?path=season%201", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot download a directory")
}

func TestTransfers_RecordsServedRanges(t *testing.T) {
	h := newTestRouter(newTestClient(t))

	do(t, h, http.MethodGet, "/stream?path=clip.mp4", "bytes=0-3")
	do(t, h, http.MethodGet, "/download?path=notes.txt", "")
	do(t, h, http.MethodHead, "/stream?path=clip.mp4", "")

	w := do(t, h, http.MethodGet, "/transfers", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc := decodeList(t, w)
	require.Len(t, doc.Data, 2)
	assert.Equal(t, float64(2), doc.Meta["total_count"])

	latest := doc.Data[0].Attributes
	assert.Equal(t, "notes.txt", latest["path"])
	assert.Equal(t, "download", latest["kind"])
	assert.Equal(t, float64(2), latest["bytes_sent"])
	assert.Equal(t, true, latest["complete"])

	first := doc.Data[1].Attributes
	assert.Equal(t, "stream", first["kind"])
	assert.Equal(t, float64(206), first["status"])
	assert.Equal(t, float64(4), first["length"])
}

func TestTransfers_Pagination(t *testing.T) {
	h := newTestRouter(newTestClient(t))
	for range 3 {
		do(t, h, http.MethodGet, "/stream?path=clip.mp4", "bytes=0-0")
	}

	w := do(t, h, http.MethodGet, "/transfers?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w).Data, 2)

	w = do(t, h, http.MethodGet, "/transfers?page=2&page_size=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w).Data, 1)
}

func TestTransfers_LedgerDisabled(t *testing.T) {
	root := t.TempDir()
	client, err := fileserve.New(fileserve.WithRoot(root))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	w := do(t, newTestRouter(client), http.MethodGet, "/transfers", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransfers_Filters(t *testing.T) {
	h := newTestRouter(newTestClient(t))
	do(t, h, http.MethodGet, "/stream?path=clip.mp4", "bytes=0-0")
	do(t, h, http.MethodGet, "/download?path=clip.mp4", "")
	do(t, h, http.MethodGet, "/download?path=notes.txt", "")

	tests := []struct {
		query string
		want  int
	}{
		{"path=clip.mp4", 2},
		{"kind=download", 2},
		{"kind=stream,mcp", 1},
		{"path=notes.txt&kind=stream", 0},
		{"since=2000-01-01T00:00:00Z", 3},
		{"since=2999-01-01T00:00:00Z", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/transfers?"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			doc := decodeList(t, w)
			assert.Len(t, doc.Data, tt.want)
			assert.Equal(t, float64(tt.want), doc.Meta["total_count"])
		})
	}

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/transfers?kind=upload", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/transfers?since=yesterday", "").Code)
}

func TestTransfers_Get(t *testing.T) {
	h := newTestRouter(newTestClient(t))
	do(t, h, http.MethodGet, "/stream?path=clip.mp4", "bytes=2-5")

	list := decodeList(t, do(t, h, http.MethodGet, "/transfers", ""))
	require.Len(t, list.Data, 1)
	id := list.Data[0].ID

	w := do(t, h, http.MethodGet, "/transfers/"+id, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc struct {
		Data struct {
			Type       string         `json:"type"`
			ID         string         `json:"id"`
			Attributes map[string]any `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "transfer", doc.Data.Type)
	assert.Equal(t, id, doc.Data.ID)
	assert.Equal(t, float64(2), doc.Data.Attributes["start"])
	assert.Equal(t, float64(5), doc.Data.Attributes["end"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/transfers/9999", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/transfers/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/transfers/0", "").Code)
}

func TestTransfers_UnsatisfiableIsIncomplete(t *testing.T) {
	h := newTestRouter(newTestClient(t))
	require.Equal(t, http.StatusRequestedRangeNotSatisfiable,
		do(t, h, http.MethodGet, "/stream?path=clip.mp4", "bytes=10-").Code)

	doc := decodeList(t, do(t, h, http.MethodGet, "/transfers", ""))
	require.Len(t, doc.Data, 1)
	assert.Equal(t, float64(416), doc.Data[0].Attributes["status"])
	assert.Equal(t, false, doc.Data[0].Attributes["complete"])
}
