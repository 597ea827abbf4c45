package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type call struct {
	text, source, target string
}

// fakeTranslator records calls and returns a canned result.
type fakeTranslator struct {
	mu       sync.Mutex
	calls    []call
	out      string
	err      error
	delay    time.Duration
	deadline bool
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{text, source, target})
	_, f.deadline = ctx.Deadline()
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

func (f *fakeTranslator) CheckHealth(context.Context) error { return f.err }

func (f *fakeTranslator) SupportedLanguages(context.Context) ([]string, error) {
	return []string{"en", "es"}, f.err
}

func newTestService(tr *fakeTranslator, timeout time.Duration) (*TranslationService, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewTranslationService(tr, timeout, logger), hook
}

func TestTranslate_Success(t *testing.T) {
	tr := &fakeTranslator{out: "Hello"}
	svc, hook := newTestService(tr, time.Second)

	out, err := svc.Translate(context.Background(), Request{Text: "Hola", Source: "es", Target: "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Hello" {
		t.Errorf("expected Hello, got %q", out)
	}
	if len(tr.calls) != 1 || tr.calls[0] != (call{"Hola", "es", "en"}) {
		t.Errorf("unexpected calls %+v", tr.calls)
	}
	if !tr.deadline {
		t.Error("expected provider call to carry a deadline")
	}
	if hook.LastEntry() == nil || hook.LastEntry().Message != "Translation completed" {
		t.Errorf("expected completion log, got %+v", hook.LastEntry())
	}
}

func TestTranslate_ResultUnmodified(t *testing.T) {
	tr := &fakeTranslator{out: "  spaced\n"}
	svc, _ := newTestService(tr, time.Second)

	out, err := svc.Translate(context.Background(), Request{Text: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "  spaced\n" {
		t.Errorf("expected provider output unchanged, got %q", out)
	}
}

func TestTranslate_Defaults(t *testing.T) {
	tr := &fakeTranslator{out: "ok"}
	svc, _ := newTestService(tr, time.Second)

	if _, err := svc.Translate(context.Background(), Request{Text: "hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Translate(context.Background(), Request{Text: "hello", Source: "auto", Target: "en"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tr.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(tr.calls))
	}
	if tr.calls[0] != tr.calls[1] {
		t.Errorf("defaults differ from explicit values: %+v vs %+v", tr.calls[0], tr.calls[1])
	}
}

func TestTranslate_EmptyText(t *testing.T) {
	tr := &fakeTranslator{out: "never"}
	svc, _ := newTestService(tr, time.Second)

	for _, req := range []Request{{}, {Text: "", Source: "es", Target: "fr"}} {
		_, err := svc.Translate(context.Background(), req)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Error() != "No text provided" {
			t.Errorf("unexpected message %q", verr.Error())
		}
	}
	if len(tr.calls) != 0 {
		t.Errorf("provider must not be called, got %d calls", len(tr.calls))
	}
}

func TestTranslate_ProviderError(t *testing.T) {
	providerErr := errors.New("xx --> No support for the provided language.")
	tr := &fakeTranslator{err: providerErr}
	svc, hook := newTestService(tr, time.Second)

	_, err := svc.Translate(context.Background(), Request{Text: "test", Target: "xx"})

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !errors.Is(err, providerErr) {
		t.Error("expected provider error to be wrapped")
	}
	if perr.Error() != providerErr.Error() {
		t.Errorf("expected provider message, got %q", perr.Error())
	}
	if len(tr.calls) != 1 {
		t.Errorf("expected exactly one provider call, got %d", len(tr.calls))
	}
	if hook.LastEntry().Level != logrus.ErrorLevel {
		t.Errorf("expected error log, got %s", hook.LastEntry().Level)
	}
}

func TestTranslate_ProviderErrorEmptyMessage(t *testing.T) {
	tr := &fakeTranslator{err: errors.New("")}
	svc, _ := newTestService(tr, time.Second)

	_, err := svc.Translate(context.Background(), Request{Text: "test"})
	if err == nil || err.Error() == "" {
		t.Errorf("expected non-empty error message, got %v", err)
	}
}

func TestTranslate_Timeout(t *testing.T) {
	tr := &fakeTranslator{out: "late", delay: time.Second}
	svc, _ := newTestService(tr, 20*time.Millisecond)

	_, err := svc.Translate(context.Background(), Request{Text: "slow"})

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestTranslate_NoTranslator(t *testing.T) {
	svc := NewTranslationService(nil, 0, nil)

	_, err := svc.Translate(context.Background(), Request{Text: "x"})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if svc.Timeout != DefaultProviderTimeout {
		t.Errorf("expected default timeout, got %s", svc.Timeout)
	}
	if err := svc.CheckHealth(context.Background()); err == nil {
		t.Error("expected health error without translator")
	}
}

func TestTranslate_Concurrent(t *testing.T) {
	tr := &fakeTranslator{out: "ok"}
	svc, _ := newTestService(tr, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Translate(context.Background(), Request{Text: "hi"}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(tr.calls) != 20 {
		t.Errorf("expected 20 calls, got %d", len(tr.calls))
	}
}

func TestRequest_WithDefaults(t *testing.T) {
	got := Request{Text: "x", Source: " ", Target: ""}.WithDefaults()
	if got.Source != "auto" || got.Target != "en" {
		t.Errorf("unexpected defaults %+v", got)
	}

	got = Request{Text: "x", Source: "es", Target: "fr"}.WithDefaults()
	if got.Source != "es" || got.Target != "fr" {
		t.Errorf("explicit values overwritten: %+v", got)
	}
}
