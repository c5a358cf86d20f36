package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"typeindex/0.1 (+https://github.com/ppiankov/typeindex)": "typeindex",
		"curl":  "curl",
		"":      "",
		"a/b c": "a",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: typeindex\nDisallow: /private/\nCrawl-delay: 2\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "typeindex/0.1", time.Minute)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/settings/publicTypeIndex")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("expected public path to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}

	allowed, _, err = checker.CanFetch(ctx, server.URL+"/private/profile")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if allowed {
		t.Error("expected private path to be disallowed")
	}

	if robotsHits.Load() != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", robotsHits.Load())
	}
}

func TestRobotsChecker_MissingRobots(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "typeindex", time.Minute)
	allowed, delay, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed || delay != 0 {
		t.Errorf("expected allow with no delay, got %v %v", allowed, delay)
	}
}

func TestRobotsChecker_Unreachable(t *testing.T) {
	checker := NewRobotsChecker(&http.Client{Timeout: 100 * time.Millisecond}, "typeindex", time.Minute)
	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/doc")
	if err != nil {
		t.Fatalf("expected unreachable robots to be ignored, got %v", err)
	}
	if !allowed {
		t.Error("expected fetch to be allowed when robots.txt is unreachable")
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure-proxy.local:3128", "pod.internal")

	req := &http.Request{URL: mustParse(t, "http://pod.example/profile/card")}
	got, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got == nil || got.Host != "proxy.local:3128" {
		t.Errorf("expected http proxy, got %v", got)
	}

	req = &http.Request{URL: mustParse(t, "https://pod.example/profile/card")}
	got, _ = proxy(req)
	if got == nil || got.Host != "secure-proxy.local:3128" {
		t.Errorf("expected https proxy, got %v", got)
	}

	req = &http.Request{URL: mustParse(t, "https://pod.internal/profile/card")}
	got, _ = proxy(req)
	if got != nil {
		t.Errorf("expected no proxy for excluded host, got %v", got)
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
