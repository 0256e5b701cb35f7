package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability/logging"
)

func TestGatewayClient_Send(t *testing.T) {
	var (
		gotPath    string
		gotAuth    string
		gotRequest string
		gotBody    outboundMessage
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotRequest = r.Header.Get("x-request-id")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewGatewayClient(GatewayOptions{BaseURL: server.URL + "/", Token: "secret"})
	ctx := logging.WithRequestID(context.Background(), "req-1")

	if err := client.Send(ctx, "+573001234567", "hola"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/messages" {
		t.Errorf("path = %q, want /messages", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotRequest != "req-1" {
		t.Errorf("x-request-id = %q", gotRequest)
	}
	if gotBody.To != "+573001234567" || gotBody.Body != "hola" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestGatewayClient_Send_NoToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("authorization header should be absent, got %q", auth)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewGatewayClient(GatewayOptions{BaseURL: server.URL})
	if err := client.Send(context.Background(), "+573001234567", "hola"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGatewayClient_Send_ErrorStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "number not registered", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewGatewayClient(GatewayOptions{BaseURL: server.URL})
	err := client.Send(context.Background(), "+573001234567", "hola")
	if err == nil {
		t.Fatal("expected error")
	}

	var sendErr *domain.SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected *domain.SendError, got %T", err)
	}
	if sendErr.Channel != domain.ChannelMessage {
		t.Errorf("channel = %v", sendErr.Channel)
	}
	if !strings.Contains(sendErr.Reason, "422") || !strings.Contains(sendErr.Reason, "number not registered") {
		t.Errorf("reason = %q", sendErr.Reason)
	}
	if calls != 1 {
		t.Errorf("gateway called %d times, want exactly 1", calls)
	}
}

func TestGatewayClient_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewGatewayClient(GatewayOptions{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	err := client.Send(context.Background(), "+573001234567", "hola")

	var sendErr *domain.SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected *domain.SendError, got %v", err)
	}
	if sendErr.Err == nil {
		t.Error("expected underlying transport error")
	}
}

func TestMessageKey(t *testing.T) {
	a := messageKey("2025-04-14", "+573001234567", "hola")
	b := messageKey("2025-04-14", "+573001234567", "hola")
	c := messageKey("2025-04-15", "+573001234567", "hola")

	if a != b {
		t.Error("same input must produce the same key")
	}
	if a == c {
		t.Error("different day must produce a different key")
	}
	if len(a) != 32 {
		t.Errorf("key length = %d, want 32", len(a))
	}
}
