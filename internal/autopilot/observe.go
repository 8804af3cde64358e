// Package autopilot plays a running session through its HTTP API. Each cycle
// it observes the status endpoint, decides on one input by fixed rules, and
// posts it to the input endpoint.
package autopilot

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/overtime/internal/world"
)

// View mirrors the parts of GET /api/v1/status the pilot reads.
type View struct {
	Tick    uint64 `json:"tick"`
	Phase   string `json:"phase"`
	Outcome string `json:"outcome"`
	Paused  bool   `json:"paused"`
	Pending bool   `json:"pending"`

	Interview *struct {
		Question string `json:"question"`
		Index    int    `json:"index"`
	} `json:"interview"`

	Resources struct {
		Stress float64 `json:"stress"`
		Money  int     `json:"money"`
	} `json:"resources"`
	MoneyLabel string `json:"money_label"`
	Clock      string `json:"clock"`

	Floor  *FloorInfo `json:"floor"`
	Player *struct {
		Pos   world.Point `json:"pos"`
		Floor int         `json:"floor"`
	} `json:"player"`
	Phone *struct {
		NPCID   int  `json:"npc_id"`
		Floor   int  `json:"floor"`
		Ringing bool `json:"ringing"`
		Active  bool `json:"active"`
	} `json:"phone"`
	Shop *struct {
		Open bool `json:"open"`
	} `json:"shop"`
	Task *struct {
		NPC      string `json:"npc"`
		Attempts int    `json:"attempts"`
	} `json:"task"`
}

// FloorInfo mirrors the player's floor.
type FloorInfo struct {
	Index int        `json:"index"`
	Tiles [][]string `json:"tiles"`
	NPCs  []struct {
		ID  int         `json:"id"`
		Pos world.Point `json:"pos"`
	} `json:"npcs"`
}

// Observer fetches session state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Observe fetches the current status.
func (o *Observer) Observe() (*View, error) {
	var v View
	if err := o.fetchJSON("/api/v1/status", &v); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	return &v, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
