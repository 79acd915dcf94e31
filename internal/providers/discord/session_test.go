package discord

import (
	"io"
	"testing"
)

func TestToMessageSendAttachesFiles(t *testing.T) {
	out := toMessageSend(Message{
		Content: "receipt",
		Files:   []File{{Name: "abcd1234.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}},
	})

	if out.Content != "receipt" {
		t.Fatalf("unexpected content %q", out.Content)
	}
	if len(out.Files) != 1 || out.Files[0].Name != "abcd1234.pdf" {
		t.Fatalf("unexpected files: %+v", out.Files)
	}
	data, err := io.ReadAll(out.Files[0].Reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "%PDF-1.3" {
		t.Fatalf("unexpected data %q", data)
	}
}
