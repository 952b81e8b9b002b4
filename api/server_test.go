package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wricardo/mountain-goats/game/config"
	"github.com/wricardo/mountain-goats/game/engine"
	"github.com/wricardo/mountain-goats/game/service"
	"github.com/wricardo/mountain-goats/game/session"
	"github.com/wricardo/mountain-goats/transport/websocket"
)

type testEnv struct {
	server *Server
	hub    *websocket.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	configs, err := config.NewManager("../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	sessions := session.NewManager(zerolog.Nop(), engine.WithSeed(5))
	svc := service.NewGameService(sessions, configs, zerolog.Nop())

	hub := websocket.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	return &testEnv{server: NewServer(svc, hub, zerolog.Nop()), hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func (e *testEnv) createSession(t *testing.T, body interface{}) *service.SessionInfo {
	t.Helper()
	rr := e.do(t, "POST", "/api/sessions", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var info service.SessionInfo
	decode(t, rr, &info)
	return &info
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/health", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "healthy") {
		t.Errorf("Unexpected health response %d %s", rr.Code, rr.Body.String())
	}
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name        string
		body        interface{}
		wantStatus  int
		wantPlayers int
		wantConfig  string
	}{
		{"empty body uses default preset", nil, http.StatusCreated, 2, "classic"},
		{"config_name", map[string]interface{}{"config_name": "trio"}, http.StatusCreated, 3, "trio"},
		{"config_id alias", map[string]interface{}{"config_id": "family"}, http.StatusCreated, 4, "family"},
		{"player override", map[string]interface{}{"num_players": 3}, http.StatusCreated, 3, "classic"},
		{"unknown preset", map[string]interface{}{"config_name": "everest"}, http.StatusBadRequest, 0, ""},
		{"too many players", map[string]interface{}{"num_players": 7}, http.StatusBadRequest, 0, ""},
		{"malformed body", "{", http.StatusBadRequest, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/sessions", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}

			var info service.SessionInfo
			decode(t, rr, &info)
			if info.GameState.NumPlayers != tt.wantPlayers {
				t.Errorf("Expected %d players, got %d", tt.wantPlayers, info.GameState.NumPlayers)
			}
			if info.ConfigName != tt.wantConfig {
				t.Errorf("Expected config %s, got %s", tt.wantConfig, info.ConfigName)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, nil)

	rr := env.do(t, "GET", "/api/sessions/"+strings.ToUpper(info.ID), nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected case-insensitive lookup, got %d", rr.Code)
	}

	env.createSession(t, nil)
	rr = env.do(t, "GET", "/api/sessions?limit=1&sort=created&order=asc", nil)
	var list struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	decode(t, rr, &list)
	if list.Count != 1 || list.Total != 2 {
		t.Errorf("Expected 1 of 2 sessions, got %d of %d", list.Count, list.Total)
	}
	if len(list.Sessions) == 1 && list.Sessions[0].ID != info.ID {
		t.Errorf("Expected oldest session %s first, got %s", info.ID, list.Sessions[0].ID)
	}

	rr = env.do(t, "DELETE", "/api/sessions/"+info.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 on delete, got %d", rr.Code)
	}
	for _, path := range []string{
		"/api/sessions/" + info.ID,
		"/api/sessions/" + info.ID + "/state",
		"/api/sessions/" + info.ID + "/log",
		"/api/sessions/" + info.ID + "/winners",
		"/api/sessions/" + info.ID + "/export",
	} {
		if rr := env.do(t, "GET", path, nil); rr.Code != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, rr.Code)
		}
	}
	if rr := env.do(t, "POST", "/api/sessions/"+info.ID+"/roll", nil); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for actions on deleted session, got %d", rr.Code)
	}
	if rr := env.do(t, "DELETE", "/api/sessions/"+info.ID, nil); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", rr.Code)
	}
}

func TestPlayTurn(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, map[string]interface{}{"player_names": []string{"Ana", "Bo"}})
	base := "/api/sessions/" + info.ID

	// Pick a die pair whose sum is a mountain from the opening roll
	dice := info.GameState.Dice
	first, second, sum := -1, -1, 0
	for i := 0; i < len(dice) && first < 0; i++ {
		for j := i + 1; j < len(dice); j++ {
			if s := dice[i].Value + dice[j].Value; s >= 5 && s <= 10 {
				first, second, sum = i, j, s
				break
			}
		}
	}

	var result service.ActionResult
	if first < 0 {
		// No pair reaches a mountain on this roll
		decode(t, env.do(t, "POST", base+"/move", map[string]int{"mountain": 5}), &result)
		if result.Success {
			t.Error("Move without selection must fail")
		}
	} else {
		for _, idx := range []int{first, second} {
			rr := env.do(t, "POST", base+"/dice/"+strconv.Itoa(idx)+"/select", nil)
			decode(t, rr, &result)
			if !result.Success {
				t.Fatalf("Failed to select die %d: %s", idx, result.Message)
			}
		}
		if result.SelectedSum != sum || len(result.ValidTargets) != 1 || int(result.ValidTargets[0]) != sum {
			t.Errorf("Expected sum %d targeting mountain %d, got %+v", sum, sum, result)
		}

		decode(t, env.do(t, "POST", base+"/move", map[string]int{"mountain": sum}), &result)
		if !result.Success {
			t.Fatalf("Move failed: %s", result.Message)
		}
		if len(result.Events) == 0 || result.Events[0].Kind != engine.EventGoatMoved {
			t.Errorf("Expected goat_moved event, got %+v", result.Events)
		}
		if !strings.HasPrefix(result.Message, "Ana moved goat up mountain") {
			t.Errorf("Unexpected message %q", result.Message)
		}
	}

	decode(t, env.do(t, "POST", base+"/next-turn", nil), &result)
	if !result.Success || result.GameState.CurrentPlayerIndex != 1 {
		t.Errorf("Expected Bo's turn, got %+v", result.GameState.CurrentPlayerIndex)
	}

	var logResp service.LogResponse
	decode(t, env.do(t, "GET", base+"/log?order=asc&limit=2", nil), &logResp)
	if len(logResp.Entries) != 2 || logResp.Entries[0].Text != "Game started with 2 players" {
		t.Errorf("Unexpected log page %+v", logResp.Entries)
	}
	if !logResp.HasNext {
		t.Error("Expected more log pages")
	}
}

func TestDiceRoutes(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, nil)
	base := "/api/sessions/" + info.ID

	var result service.ActionResult
	decode(t, env.do(t, "POST", base+"/dice/1/lock", nil), &result)
	if !result.Success || !result.GameState.Dice[1].Locked {
		t.Errorf("Expected die 1 locked, got %+v", result.GameState.Dice[1])
	}

	decode(t, env.do(t, "POST", base+"/roll", nil), &result)
	if !result.Success || result.GameState.Dice[1].Value != info.GameState.Dice[1].Value {
		t.Error("Locked die must keep its value across rolls")
	}

	decode(t, env.do(t, "POST", base+"/dice/9/select", nil), &result)
	if result.Success {
		t.Error("Die 9 does not exist")
	}

	rr := env.do(t, "POST", base+"/dice/0/value", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing value, got %d", rr.Code)
	}

	decode(t, env.do(t, "POST", base+"/dice/0/value", map[string]int{"value": 4}), &result)
	if result.Action != "change_die" {
		t.Errorf("Unexpected action %s", result.Action)
	}

	decode(t, env.do(t, "POST", base+"/dice/remove-last", nil), &result)
	if result.Success {
		t.Error("Nothing is selected")
	}

	decode(t, env.do(t, "POST", base+"/dice/clear", nil), &result)
	if !result.Success || result.SelectedSum != 0 {
		t.Errorf("Unexpected clear result %+v", result)
	}

	if rr := env.do(t, "POST", base+"/move", "{}"); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for move without mountain, got %d", rr.Code)
	}
}

func TestResetPreferencesAndWinners(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, nil)
	base := "/api/sessions/" + info.ID

	var state engine.GameState
	rr := env.do(t, "PATCH", base+"/preferences", map[string]interface{}{"language": "es", "sound_muted": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &state)
	if state.Language != "es" || !state.SoundMuted {
		t.Errorf("Preferences not applied: %s %v", state.Language, state.SoundMuted)
	}

	var result service.ActionResult
	decode(t, env.do(t, "POST", base+"/reset", map[string]interface{}{"player_names": []string{"Cy", "Di"}}), &result)
	if !result.Success || result.GameState.Players[0].Name != "Cy" || result.GameState.Language != "es" {
		t.Errorf("Unexpected reset result %+v", result)
	}

	var winners service.WinnersResult
	decode(t, env.do(t, "GET", base+"/winners", nil), &winners)
	if winners.GameOver || len(winners.Winners) == 0 {
		t.Errorf("Unexpected winners %+v", winners)
	}
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, map[string]interface{}{"config_name": "trio"})

	rr := env.do(t, "GET", "/api/sessions/"+info.ID+"/export", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	snapshot := rr.Body.String()

	rr = env.do(t, "POST", "/api/sessions/import", snapshot)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var imported service.SessionInfo
	decode(t, rr, &imported)
	if imported.ID == info.ID || imported.GameState.NumPlayers != 3 {
		t.Errorf("Unexpected imported session %+v", imported)
	}

	if rr := env.do(t, "POST", "/api/sessions/import", `{"num_players": 9}`); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid snapshot, got %d", rr.Code)
	}
	if rr := env.do(t, "POST", "/api/sessions/import", "nope"); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed snapshot, got %d", rr.Code)
	}
}

func TestConfigRoutes(t *testing.T) {
	env := newTestEnv(t)

	var configs []*service.ConfigInfo
	decode(t, env.do(t, "GET", "/api/configs", nil), &configs)
	if len(configs) < 3 {
		t.Errorf("Expected the shipped presets, got %d", len(configs))
	}

	var gameConfig engine.GameConfig
	rr := env.do(t, "GET", "/api/configs/family.json", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	decode(t, rr, &gameConfig)
	if gameConfig.NumPlayers != 4 {
		t.Errorf("Expected 4 players, got %d", gameConfig.NumPlayers)
	}

	if rr := env.do(t, "GET", "/api/configs/everest", nil); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
	if rr := env.do(t, "POST", "/api/configs", map[string]interface{}{"num_players": 2}); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without name, got %d", rr.Code)
	}
	if rr := env.do(t, "POST", "/api/configs", map[string]interface{}{"name": "crowd", "num_players": 8}); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid preset, got %d", rr.Code)
	}
}

func TestWebSocketStream(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, nil)

	server := httptest.NewServer(env.server)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?session=" + strings.ToUpper(info.ID)

	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for env.hub.ClientCount(info.ID) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if rr := env.do(t, "POST", "/api/sessions/"+info.ID+"/next-turn", nil); rr.Code != http.StatusOK {
		t.Fatalf("next-turn failed: %d", rr.Code)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var message websocket.Message
	if err := conn.ReadJSON(&message); err != nil {
		t.Fatalf("Failed to read update: %v", err)
	}
	if message.Event != websocket.EventStateUpdate || message.GameState == nil || message.GameState.CurrentPlayerIndex != 1 {
		t.Errorf("Unexpected message %+v", message)
	}

	if resp, err := http.Get(server.URL + "/ws?session=missing"); err == nil {
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404 for unknown session, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}
}

// Run with -race: responses and hub broadcasts must not share the live state
// with later commands on the same session
func TestConcurrentCommandsOnOneSession(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, nil)

	httpServer := httptest.NewServer(env.server)
	defer httpServer.Close()
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws?session=" + info.ID
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	base := "/api/sessions/" + info.ID
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				path, method := base+"/roll", "POST"
				switch (w + i) % 4 {
				case 1:
					path, method = base+"/state", "GET"
				case 2:
					path = base + "/dice/" + strconv.Itoa(i%engine.DiceCount) + "/select"
				case 3:
					path, method = base, "GET"
				}
				rr := env.do(t, method, path, nil)
				if rr.Code != http.StatusOK {
					t.Errorf("%s %s: unexpected status %d: %s", method, path, rr.Code, rr.Body.String())
					return
				}
			}
		}(w)
	}
	wg.Wait()

	var state engine.GameState
	decode(t, env.do(t, "GET", base+"/state", nil), &state)
	if len(state.GameLog) < 2 {
		t.Errorf("Expected the rolls to be logged, got %d entries", len(state.GameLog))
	}
}
