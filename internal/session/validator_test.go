package session

import (
	"strings"
	"testing"

	"github.com/relistr/mediakit/internal/transport"
)

func TestPartitionReportsEveryApplicableReason(t *testing.T) {
	v := NewValidator(testConfig(20))

	// 99MB executable: fails both the size and the type check.
	files := []transport.File{
		{Name: "payload.exe", ContentType: "application/octet-stream", Size: 99 * 1024 * 1024, Content: strings.NewReader("x")},
		jpeg("ok.jpg", 1),
	}

	accepted, rejections := v.Partition(files)
	if len(accepted) != 1 || accepted[0].Name != "ok.jpg" {
		t.Fatalf("expected only ok.jpg accepted, got %+v", accepted)
	}
	if len(rejections) != 2 {
		t.Fatalf("a doubly invalid file must report both reasons, got %v", rejections)
	}
	if rejections[0] != "payload.exe exceeds 10MB limit" {
		t.Fatalf("unexpected size reason: %q", rejections[0])
	}
	if rejections[1] != "payload.exe has invalid type" {
		t.Fatalf("unexpected type reason: %q", rejections[1])
	}
}

func TestPartitionAcceptsCaseInsensitiveType(t *testing.T) {
	v := NewValidator(testConfig(20))

	accepted, rejections := v.Partition([]transport.File{
		{Name: "a.jpg", ContentType: "IMAGE/JPEG", Size: 10, Content: strings.NewReader("x")},
	})
	if len(accepted) != 1 || len(rejections) != 0 {
		t.Fatalf("mime comparison must be case-insensitive: %v %v", accepted, rejections)
	}
}

func TestCheckQuotaBoundary(t *testing.T) {
	v := NewValidator(testConfig(3))

	if err := v.CheckQuota(2, 1); err != nil {
		t.Fatalf("exactly-full scope must pass: %v", err)
	}
	if err := v.CheckQuota(2, 2); err == nil {
		t.Fatal("expected quota rejection")
	}
}
