package mailchimp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dailymemedigest/memefactory/pkg/integrations"
)

func TestSubscriberHash(t *testing.T) {
	// md5("jane@example.com")
	const want = "9e26471d35a78862c17e467d87cddedf"
	for _, email := range []string{"jane@example.com", "  Jane@Example.COM "} {
		if got := SubscriberHash(email); got != want {
			t.Errorf("SubscriberHash(%q) = %s, want %s", email, got, want)
		}
	}
}

func TestAddMember(t *testing.T) {
	var got Member
	var auth, path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(Member{ID: "x", EmailAddress: got.EmailAddress, Status: got.Status})
	}))
	defer server.Close()

	client := NewClient("key-us21", "us21", "list1").WithBaseURL(server.URL)
	m, err := client.AddMember(context.Background(), "jane@example.com", StatusPending, nil)
	if err != nil {
		t.Fatalf("AddMember() error: %v", err)
	}
	if path != "/lists/list1/members" {
		t.Errorf("path = %s", path)
	}
	if !strings.HasPrefix(auth, "Basic ") {
		t.Errorf("Authorization = %q, want basic auth", auth)
	}
	if got.Status != StatusPending || got.MergeFields["FNAME"] != "jane" {
		t.Errorf("request body = %+v", got)
	}
	if m.ID != "x" {
		t.Errorf("member = %+v", m)
	}
}

func TestAddMemberExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"title":"Member Exists","detail":"jane@example.com is already a list member."}`))
	}))
	defer server.Close()

	client := NewClient("k", "us1", "l").WithBaseURL(server.URL)
	_, err := client.AddMember(context.Background(), "jane@example.com", StatusPending, nil)
	if !IsMemberExists(err) {
		t.Errorf("IsMemberExists(%v) = false, want true", err)
	}
}

func TestIsMemberExistsOtherErrors(t *testing.T) {
	if IsMemberExists(nil) {
		t.Error("nil is not member-exists")
	}
	if IsMemberExists(errors.New("already a list member")) {
		t.Error("plain error is not member-exists")
	}
	apiErr := &integrations.APIError{Status: 500, Body: "already a list member", Err: integrations.ErrNetwork}
	if IsMemberExists(apiErr) {
		t.Error("5xx is not member-exists")
	}
}

func TestUpdateMember(t *testing.T) {
	var method, path string
	var body map[string]map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(Member{EmailAddress: "jane@example.com"})
	}))
	defer server.Close()

	client := NewClient("k", "us1", "l").WithBaseURL(server.URL)
	_, err := client.UpdateMember(context.Background(), "Jane@example.com", map[string]string{"DAILY": "true"})
	if err != nil {
		t.Fatalf("UpdateMember() error: %v", err)
	}
	if method != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", method)
	}
	if path != "/lists/l/members/"+SubscriberHash("jane@example.com") {
		t.Errorf("path = %s", path)
	}
	if body["merge_fields"]["DAILY"] != "true" {
		t.Errorf("body = %v", body)
	}
}

func TestGetMemberNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("k", "us1", "l").WithBaseURL(server.URL)
	_, err := client.GetMember(context.Background(), "nobody@example.com")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("GetMember() error = %v, want ErrNotFound", err)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lists/l" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"l","name":"Daily Memes","stats":{"member_count":42}}`))
	}))
	defer server.Close()

	list, err := NewClient("k", "us1", "l").WithBaseURL(server.URL).Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
	if list.Name != "Daily Memes" || list.Stats.MemberCount != 42 {
		t.Errorf("list = %+v", list)
	}
}
