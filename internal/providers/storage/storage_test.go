package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	appconfig "github.com/smallbiznis/ticketbot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutAndDelete(t *testing.T) {
	dir := t.TempDir()
	local := NewLocal(dir, "")

	res, err := local.Put(context.Background(), strings.NewReader("%PDF-1.3"), PutInput{
		Key:         "abcd1234.pdf",
		ContentType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "abcd1234.pdf", res.Key)
	assert.Equal(t, filepath.Join(dir, "abcd1234.pdf"), res.URL)

	data, err := os.ReadFile(filepath.Join(dir, "abcd1234.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	require.NoError(t, local.Delete(context.Background(), res.Key))
	_, err = os.Stat(filepath.Join(dir, "abcd1234.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalPutStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	local := NewLocal(dir, "/invoices")

	res, err := local.Put(context.Background(), strings.NewReader("x"), PutInput{Key: "../../etc/abcd1234.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "abcd1234.pdf", res.Key)
	assert.Equal(t, "/invoices/abcd1234.pdf", res.URL)

	_, err = local.Put(context.Background(), strings.NewReader("x"), PutInput{Key: "  "})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFromConfig(t *testing.T) {
	s, err := FromConfig(appconfig.Config{Invoice: appconfig.InvoiceConfig{Storage: "local", Dir: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	_, err = FromConfig(appconfig.Config{Invoice: appconfig.InvoiceConfig{Storage: "s3"}})
	assert.Error(t, err)

	_, err = FromConfig(appconfig.Config{Invoice: appconfig.InvoiceConfig{Storage: "ftp"}})
	assert.Error(t, err)
}

func TestS3ObjectKey(t *testing.T) {
	s := &S3{Prefix: "/invoices/"}
	assert.Equal(t, "invoices/abcd1234.pdf", s.objectKey("abcd1234.pdf"))

	s.Prefix = ""
	assert.Equal(t, "abcd1234.pdf", s.objectKey("abcd1234.pdf"))
}
