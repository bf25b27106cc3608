package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("bot-token", "@channel", 30*time.Second)

	if client == nil {
		t.Fatal("Expected non-nil client")
	}
	if client.botToken != "bot-token" {
		t.Errorf("Expected bot token 'bot-token', got '%s'", client.botToken)
	}
	if client.chatID != "@channel" {
		t.Errorf("Expected chat id '@channel', got '%s'", client.chatID)
	}
	if client.httpClient == nil {
		t.Error("Expected non-nil http client")
	}
}

func TestSendDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/bottest-token/sendDocument") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("chat_id"); got != "@channel" {
			t.Errorf("Expected chat_id '@channel', got '%s'", got)
		}
		if got := r.FormValue("caption"); got != "Daily Market Summary - 20240301" {
			t.Errorf("Expected caption, got '%s'", got)
		}

		file, header, err := r.FormFile("document")
		if err != nil {
			t.Fatalf("Expected document file: %v", err)
		}
		defer file.Close()

		if header.Filename != "daily_summary_20240301.pdf" {
			t.Errorf("Expected filename 'daily_summary_20240301.pdf', got '%s'", header.Filename)
		}

		data, _ := io.ReadAll(file)
		if string(data) != "%PDF-fake" {
			t.Errorf("Expected document bytes, got %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true, "result": {"message_id": 42}}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "@channel", 5*time.Second)
	client.baseURL = server.URL

	err := client.SendDocument(context.Background(), []byte("%PDF-fake"), "daily_summary_20240301.pdf", "Daily Market Summary - 20240301")
	if err != nil {
		t.Fatalf("SendDocument failed: %v", err)
	}
}

func TestSendDocumentAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "@missing", 5*time.Second)
	client.baseURL = server.URL

	err := client.SendDocument(context.Background(), []byte("doc"), "f.pdf", "caption")
	if err == nil {
		t.Fatal("Expected error for ok=false response")
	}

	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected *DeliveryError, got %T", err)
	}
	if !strings.Contains(derr.Error(), "chat not found") {
		t.Errorf("Expected error to carry the API description, got '%s'", derr.Error())
	}
}

func TestSendDocumentBadResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer server.Close()

	client := NewClient("test-token", "@channel", 5*time.Second)
	client.baseURL = server.URL

	err := client.SendDocument(context.Background(), []byte("doc"), "f.pdf", "caption")
	if err == nil {
		t.Error("Expected error for non-JSON response")
	}
}
