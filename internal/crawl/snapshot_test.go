package crawl_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"photocrawl/internal/crawl"
	"photocrawl/internal/model"
	"photocrawl/internal/testutil"
)

func TestSnapshotter_Plaintext(t *testing.T) {
	v := testutil.NewTestVault()
	s := crawl.NewSnapshotter(v, nil, crawl.NewNopLogger())

	if s.Encrypted() {
		t.Error("Encrypted() = true without an encryptor")
	}
	if err := s.Pull("cat-1", &bytes.Buffer{}, ""); err == nil {
		t.Error("Pull() with no snapshot should fail")
	}

	if err := s.Push("cat-1", strings.NewReader("catalog bytes"), 7); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if got, _ := s.Version("cat-1"); got != 7 {
		t.Errorf("Version() = %d, want 7", got)
	}

	var out bytes.Buffer
	if err := s.Pull("cat-1", &out, ""); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if out.String() != "catalog bytes" {
		t.Errorf("Pull() = %q", out.String())
	}
}

func TestSnapshotter_Encrypted(t *testing.T) {
	v := testutil.NewTestVault()
	s := crawl.NewSnapshotter(v, testutil.NewTestEncryptor("secret"), crawl.NewNopLogger())

	if err := s.Push("cat-1", strings.NewReader("catalog bytes"), 3); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	var stored bytes.Buffer
	if err := v.GetSnapshot("cat-1", &stored); err != nil {
		t.Fatal(err)
	}
	if stored.String() == "catalog bytes" {
		t.Error("vault holds the plaintext snapshot")
	}

	if err := s.Pull("cat-1", &bytes.Buffer{}, "wrong"); err == nil {
		t.Error("Pull() with wrong passphrase should fail")
	}
	var out bytes.Buffer
	if err := s.Pull("cat-1", &out, "secret"); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if out.String() != "catalog bytes" {
		t.Errorf("Pull() = %q", out.String())
	}
}

func TestStats_ConcurrentRecord(t *testing.T) {
	s := crawl.NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record(model.OriginFolder, crawl.OutcomeCopied)
			s.AddNonMedia()
		}()
	}
	wg.Wait()

	got := s.Snapshot()
	if got.FolderImages != 50 || got.Copied != 50 || got.NonMedia != 50 {
		t.Errorf("Snapshot() = %+v", got)
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		o    crawl.Outcome
		want string
	}{
		{crawl.OutcomeCopied, "copied"},
		{crawl.OutcomeSkippedInferior, "skipped-inferior"},
		{crawl.Outcome(99), "outcome(99)"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
