package docapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wangpeng1017/docedit/internal/secure"
)

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/documents/doc1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"document": {"document_id": "doc1", "title": "服务合同"},
			"blocks": [
				{"block_id": "b1", "block_type": "heading1", "text": {"content": "服务合同"}},
				{"block_id": "b2", "block_type": "text", "text": {"content": "甲方：A公司"}}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	defer c.Close()

	meta, blocks, err := c.GetDocument(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.DocumentID != "doc1" || meta.Title != "服务合同" {
		t.Errorf("unexpected meta %+v", meta)
	}
	if len(blocks) != 2 || blocks[1].Text.Content != "甲方：A公司" {
		t.Errorf("unexpected blocks %+v", blocks)
	}
}

func TestGetDocument_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "document not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	if _, _, err := c.GetDocument(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestBatchUpdateBlocks(t *testing.T) {
	var got struct {
		Requests []struct {
			BlockID string `json:"block_id"`
			Content string `json:"content"`
		} `json:"requests"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/documents/doc1/blocks/batch_update" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	err := c.BatchUpdateBlocks(context.Background(), "doc1", []secure.BlockUpdate{
		{BlockID: "b1", NewContent: "甲方：X公司"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Requests) != 1 || got.Requests[0].BlockID != "b1" || got.Requests[0].Content != "甲方：X公司" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestBatchUpdateBlocks_EmptyIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty update must not hit the network")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	if err := c.BatchUpdateBlocks(context.Background(), "doc1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_SatisfiesDocumentAPI(t *testing.T) {
	var _ secure.DocumentAPI = NewClient("http://localhost", "")
}
