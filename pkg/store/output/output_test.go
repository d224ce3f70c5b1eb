package output

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLocalSink_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reportes")
	sink := NewLocalSink(dir)

	loc, err := sink.Save(context.Background(), "reporte.docx", []byte("doc"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reporte.docx"), loc)

	b, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "doc", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	t.Run("rejects paths", func(t *testing.T) {
		_, err := sink.Save(context.Background(), "../escape.docx", []byte("x"))
		assert.ErrorContains(t, err, "invalid document name")
	})
}

type captured struct {
	mu     sync.Mutex
	method string
	path   string
	ctype  string
	body   string
}

func TestS3Sink_Save(t *testing.T) {
	var got captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.mu.Lock()
		got.method, got.path, got.ctype, got.body = r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(b)
		got.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:       DefaultRegion,
		BaseEndpoint: awssdk.String(srv.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
	})
	sink := NewS3Sink(client, "aaps-reportes", "poa/2024")

	loc, err := sink.Save(context.Background(), "reporte.docx", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "s3://aaps-reportes/poa/2024/reporte.docx", loc)

	got.mu.Lock()
	defer got.mu.Unlock()
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/aaps-reportes/poa/2024/reporte.docx", got.path)
	assert.Equal(t, DocxContentType, got.ctype)
	assert.Equal(t, "payload", got.body)
}

type mockPutObject struct {
	mock.Mock
}

func (m *mockPutObject) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestS3Sink_SaveError(t *testing.T) {
	client := &mockPutObject{}
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return awssdk.ToString(in.Key) == "reporte.docx"
	})).Return(nil, errors.New("access denied"))

	_, err := NewS3Sink(client, "bucket", "").Save(context.Background(), "reporte.docx", []byte("x"))
	assert.EqualError(t, err, "upload reporte.docx to bucket bucket: access denied")
	client.AssertExpectations(t)
}

type stubSink struct {
	loc   string
	err   error
	calls int
}

func (s *stubSink) Save(context.Context, string, []byte) (string, error) {
	s.calls++
	return s.loc, s.err
}

func TestMultiSink(t *testing.T) {
	a, b := &stubSink{loc: "/tmp/a"}, &stubSink{loc: "s3://b"}
	loc, err := MultiSink{a, b}.Save(context.Background(), "r.docx", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a", loc)
	assert.Equal(t, 1, b.calls)

	failing := &stubSink{err: errors.New("disk full")}
	after := &stubSink{}
	_, err = MultiSink{failing, after}.Save(context.Background(), "r.docx", nil)
	assert.EqualError(t, err, "disk full")
	assert.Zero(t, after.calls)
}
