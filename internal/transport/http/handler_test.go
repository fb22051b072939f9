package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bird-quiz-service/internal/app"
	"bird-quiz-service/internal/domain"
	"bird-quiz-service/internal/infra/memory"
)

func catalogBirds() []domain.Bird {
	return []domain.Bird{
		{ID: 1, CommonName: "Red-tailed Hawk", ScientificName: "Buteo jamaicensis"},
		{ID: 2, CommonName: "Northern Cardinal", ScientificName: "Cardinalis cardinalis"},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *app.GameService) {
	t.Helper()
	store := memory.NewStore()
	catalog := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(catalogBirds()), time.Minute)
	service := app.NewGameService(catalog, store, store).WithSeed(1)
	server := httptest.NewServer(NewRouter(service))
	t.Cleanup(server.Close)
	return server, service
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/auth/login", map[string]string{"username": "alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		User domain.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	if body.User.Username != "alice" || body.User.ID == 0 {
		t.Fatalf("unexpected user %+v", body.User)
	}

	resp = postJSON(t, server.URL+"/api/auth/login", map[string]string{"username": "  "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank username, got %d", resp.StatusCode)
	}
}

func TestBirdEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/birds")
	if err != nil {
		t.Fatalf("get birds: %v", err)
	}
	var list struct {
		Birds []domain.Bird `json:"birds"`
	}
	decodeBody(t, resp, &list)
	if len(list.Birds) != 2 {
		t.Fatalf("expected 2 birds, got %d", len(list.Birds))
	}

	resp, err = http.Get(server.URL + "/api/birds/1")
	if err != nil {
		t.Fatalf("get bird: %v", err)
	}
	var one struct {
		Bird domain.Bird `json:"bird"`
	}
	decodeBody(t, resp, &one)
	if one.Bird.CommonName != "Red-tailed Hawk" {
		t.Fatalf("unexpected bird %+v", one.Bird)
	}

	resp, err = http.Get(server.URL + "/api/birds/99")
	if err != nil {
		t.Fatalf("get missing bird: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSaveGameHistoryAndLeaderboard(t *testing.T) {
	server, _ := newTestServer(t)

	var users []domain.User
	for _, name := range []string{"alice", "bob"} {
		resp := postJSON(t, server.URL+"/api/auth/login", map[string]string{"username": name})
		var body struct {
			User domain.User `json:"user"`
		}
		decodeBody(t, resp, &body)
		users = append(users, body.User)
	}

	save := func(userID int64, score, timeTaken int) int64 {
		resp := postJSON(t, server.URL+"/api/games", map[string]any{
			"user_id":         userID,
			"category":        "birds",
			"question_type":   "visual_only",
			"options_type":    "multiple_choice",
			"guess_type":      "common_name",
			"timing_type":     "unlimited",
			"score":           score,
			"total_questions": 2,
			"time_taken":      timeTaken,
			"answers": []map[string]any{
				{"bird_id": 1, "user_answer": "Red-tailed Hawk", "correct_answer": "Red-tailed Hawk", "is_correct": true, "time_taken": timeTaken},
			},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 saving game, got %d", resp.StatusCode)
		}
		var body struct {
			GameID int64 `json:"gameId"`
		}
		decodeBody(t, resp, &body)
		return body.GameID
	}

	aliceGame := save(users[0].ID, 2, 30)
	save(users[1].ID, 1, 20)

	resp, err := http.Get(fmt.Sprintf("%s/api/users/%d/games", server.URL, users[0].ID))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var history struct {
		Games []domain.GameRow `json:"games"`
	}
	decodeBody(t, resp, &history)
	if len(history.Games) != 1 || history.Games[0].ID != aliceGame {
		t.Fatalf("unexpected history %+v", history.Games)
	}

	resp, err = http.Get(fmt.Sprintf("%s/api/games/%d/details", server.URL, aliceGame))
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	var details struct {
		Game    domain.GameRow  `json:"game"`
		Answers []domain.Answer `json:"answers"`
	}
	decodeBody(t, resp, &details)
	if details.Game.Score != 2 || len(details.Answers) != 1 {
		t.Fatalf("unexpected details %+v %+v", details.Game, details.Answers)
	}

	url := fmt.Sprintf("%s/api/leaderboard?category=birds&question_type=visual_only&options_type=multiple_choice&guess_type=common_name&timing_type=unlimited&user_id=%d", server.URL, users[1].ID)
	resp, err = http.Get(url)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	var lb domain.Leaderboard
	decodeBody(t, resp, &lb)
	if lb.TotalPlayers != 2 || len(lb.Rows) != 2 {
		t.Fatalf("expected 2 ranked games, got %+v", lb)
	}
	if lb.Rows[0].Username != "alice" || lb.Rows[0].Rank != 1 {
		t.Fatalf("expected alice first, got %+v", lb.Rows[0])
	}
	if lb.UserRank == nil || *lb.UserRank != 2 {
		t.Fatalf("expected bob ranked 2, got %v", lb.UserRank)
	}
}

func TestHistoryAndDetailsRoutesCoexist(t *testing.T) {
	server, _ := newTestServer(t)

	// Both game read routes must register on one mux and dispatch to their
	// own handlers.
	resp, err := http.Get(server.URL + "/api/users/1/games")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected empty history to route with 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/games/1/details")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected missing game to route with 404, got %d", resp.StatusCode)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/suggestions?guess_type=common_name&q=card")
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	var body struct {
		Suggestions []string `json:"suggestions"`
	}
	decodeBody(t, resp, &body)
	if len(body.Suggestions) != 1 || body.Suggestions[0] != "Northern Cardinal" {
		t.Fatalf("unexpected suggestions %v", body.Suggestions)
	}
}
