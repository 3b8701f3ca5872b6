package notify

import (
	"strings"
	"testing"

	"github.com/avolkov/twgrab/internal/task"
)

func TestDownloadedMessage(t *testing.T) {
	tk := task.Task{URL: "https://x.com/u/status/1", Filename: "clip.mp4"}

	msg := downloadedMessage(tk, "Funny clip")
	if !strings.Contains(msg, "Funny clip") || !strings.Contains(msg, "clip.mp4") {
		t.Errorf("unexpected message: %q", msg)
	}

	// Falls back to the URL when no title is known
	msg = downloadedMessage(tk, "")
	if !strings.Contains(msg, "https://x.com/u/status/1") {
		t.Errorf("expected URL fallback, got %q", msg)
	}
}

func TestFailedMessage(t *testing.T) {
	tk := task.Task{URL: "https://x.com/u/status/1", Error: "network down"}

	msg := failedMessage(tk)
	if !strings.Contains(msg, "network down") {
		t.Errorf("expected error in message, got %q", msg)
	}
}

func TestNoopIsSafe(t *testing.T) {
	var n Notifier = Noop{}
	n.Downloaded(task.Task{}, "")
	n.Failed(task.Task{})
}
