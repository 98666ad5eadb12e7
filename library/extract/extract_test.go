package extract

import (
	"context"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func TestPlainTextMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fileName string
		mimeType string
		want     bool
	}{
		{name: "text mime", fileName: "x.bin", mimeType: "text/plain", want: true},
		{name: "csv mime", fileName: "x.bin", mimeType: "text/csv", want: true},
		{name: "txt extension", fileName: "notes.txt", mimeType: "", want: true},
		{name: "markdown extension", fileName: "README.MD", mimeType: "", want: true},
		{name: "json extension", fileName: "data.json", mimeType: "application/json", want: true},
		{name: "pdf", fileName: "doc.pdf", mimeType: "application/pdf", want: false},
		{name: "image", fileName: "pic.png", mimeType: "image/png", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, PlainText{}.Match(tt.fileName, tt.mimeType))
		})
	}
}

func TestPlainTextExtract(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	got, err := PlainText{}.Extract(ctx, []byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, "hello world", got)

	_, err = PlainText{}.Extract(ctx, []byte{0xff, 0xfe, 0x00, 0x80})
	require.Error(t, err)
}

func TestPDFTextMatch(t *testing.T) {
	t.Parallel()

	require.True(t, PDFText{}.Match("doc.pdf", ""))
	require.True(t, PDFText{}.Match("DOC.PDF", ""))
	require.True(t, PDFText{}.Match("x.bin", "application/pdf"))
	require.False(t, PDFText{}.Match("doc.txt", "text/plain"))
}

// failing always matches and always errors, to exercise chain fallthrough.
type failing struct{}

func (failing) Name() string           { return "failing" }
func (failing) Match(_, _ string) bool { return true }
func (failing) Extract(_ context.Context, _ []byte) (string, error) {
	return "", errors.New("boom")
}

// empty always matches and yields no text.
type empty struct{}

func (empty) Name() string           { return "empty" }
func (empty) Match(_, _ string) bool { return true }
func (empty) Extract(_ context.Context, _ []byte) (string, error) {
	return "   \n", nil
}

func TestChain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("candidate failure falls through", func(t *testing.T) {
		t.Parallel()

		chain := NewChain(failing{}, PlainText{})
		got, err := chain.Extract(ctx, "notes.txt", "text/plain", []byte("still readable"))
		require.NoError(t, err)
		require.Equal(t, "still readable", got)
	})

	t.Run("empty text falls through", func(t *testing.T) {
		t.Parallel()

		chain := NewChain(empty{}, PlainText{})
		got, err := chain.Extract(ctx, "notes.txt", "text/plain", []byte("content"))
		require.NoError(t, err)
		require.Equal(t, "content", got)
	})

	t.Run("no candidate matches", func(t *testing.T) {
		t.Parallel()

		chain := NewChain()
		got, err := chain.Extract(ctx, "pic.png", "image/png", []byte{0x89, 0x50})
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("all candidates fail", func(t *testing.T) {
		t.Parallel()

		chain := NewChain(failing{})
		got, err := chain.Extract(ctx, "x.txt", "text/plain", []byte("x"))
		require.Error(t, err)
		require.Empty(t, got)
	})

	t.Run("result is trimmed", func(t *testing.T) {
		t.Parallel()

		chain := NewChain(PlainText{})
		got, err := chain.Extract(ctx, "x.txt", "text/plain", []byte("  padded  \n"))
		require.NoError(t, err)
		require.Equal(t, "padded", got)
	})
}
