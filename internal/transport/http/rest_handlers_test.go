package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/komiyunity/relay-server/internal/store/sqlite"
)

func startDirectoryServer(t *testing.T) *testEnv {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "directory.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return startTestServer(t, testConfig(), st)
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestUserUpsertAndList(t *testing.T) {
	env := startDirectoryServer(t)

	resp := doJSON(t, http.MethodPost, env.ts.URL+"/users", "", map[string]string{
		"id": "u1", "name": "Alice", "email": "alice@example.com",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var created UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created user: %v", err)
	}
	if created.ID != "u1" || created.Name != "Alice" {
		t.Fatalf("unexpected created user: %+v", created)
	}

	listResp := doJSON(t, http.MethodGet, env.ts.URL+"/users", "", nil)
	defer listResp.Body.Close()
	var users []UserResponse
	if err := json.NewDecoder(listResp.Body).Decode(&users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 1 || users[0].Email != "alice@example.com" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestUserUpsertRejectsMissingFields(t *testing.T) {
	env := startDirectoryServer(t)

	resp := doJSON(t, http.MethodPost, env.ts.URL+"/users", "", map[string]string{
		"id": "u1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestChatRoomEndpointsRequireAuth(t *testing.T) {
	env := startDirectoryServer(t)

	resp := doJSON(t, http.MethodGet, env.ts.URL+"/api/chatrooms", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status without token: %d", resp.StatusCode)
	}

	bad := doJSON(t, http.MethodGet, env.ts.URL+"/api/chatrooms", "not-a-jwt", nil)
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status with bad token: %d", bad.StatusCode)
	}
}

func TestChatRoomCreateAndList(t *testing.T) {
	env := startDirectoryServer(t)
	token := makeToken(t, "u1", "Alice", "alice@example.com", time.Minute)

	resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/chatrooms", token, map[string]string{
		"name": "general", "description": "Town square",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var created ChatRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created room: %v", err)
	}
	if created.Name != "general" || created.OwnerID != "u1" || created.ID == "" {
		t.Fatalf("unexpected created room: %+v", created)
	}

	listResp := doJSON(t, http.MethodGet, env.ts.URL+"/api/chatrooms", token, nil)
	defer listResp.Body.Close()
	var rooms []ChatRoomResponse
	if err := json.NewDecoder(listResp.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != created.ID {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
}

func TestChatRoomCreateRejectsMissingFields(t *testing.T) {
	env := startDirectoryServer(t)
	token := makeToken(t, "u1", "Alice", "", time.Minute)

	resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/chatrooms", token, map[string]string{
		"name": "general",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
