package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"
)

// Config
const (
	DEFAULT_API_URL = "http://localhost:8080/api/v1"
	GAME_ID         = "seed-game-001"
)

// Team matches models.TeamRequest
type Team struct {
	Name       string `json:"name"`
	ShortName  string `json:"short_name"`
	Conference string `json:"conference"`
	Rank       int    `json:"rank"`
	Wins       int    `json:"wins"`
}

// Ticket matches models.Ticket (client-owned fields only)
type Ticket struct {
	ID         string `json:"id"`
	AuthorID   string `json:"author_id"`
	GameID     string `json:"game_id"`
	League     string `json:"league"`
	CreatedAt  string `json:"created_at"`
	Confidence int    `json:"confidence"`
	Pick       Pick   `json:"pick"`
	Legs       []Leg  `json:"legs"`
}

type Pick struct {
	Winner    string `json:"winner"`
	ScoreHome *int   `json:"score_home,omitempty"`
	ScoreAway *int   `json:"score_away,omitempty"`
}

type Leg struct {
	Kind     string  `json:"kind"`
	OptionID string  `json:"option_id"`
	Odds     float64 `json:"odds"`
	Pct      float64 `json:"pct"`
}

// Game matches models.Game (feed-owned fields only)
type Game struct {
	ID         string `json:"id"`
	League     string `json:"league"`
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
	HomeScore  int    `json:"home_score"`
	AwayScore  int    `json:"away_score"`
	Final      bool   `json:"final"`
	HomeRank   int    `json:"home_rank"`
	AwayRank   int    `json:"away_rank"`
	StartAt    string `json:"start_at"`
}

var client = &http.Client{Timeout: 10 * time.Second}

func main() {
	apiURL := flag.String("api", DEFAULT_API_URL, "API base URL")
	users := flag.Int("users", 20, "number of ticket authors")
	flag.Parse()

	start := time.Now().Add(-3 * time.Hour).UTC()

	// Teams
	send("PUT", *apiURL+"/teams/LAL", Team{Name: "Los Angeles Lakers", ShortName: "LAL", Conference: "West", Rank: 6, Wins: 44})
	send("PUT", *apiURL+"/teams/BOS", Team{Name: "Boston Celtics", ShortName: "BOS", Conference: "East", Rank: 1, Wins: 60})

	game := Game{
		ID: GAME_ID, League: "nba",
		HomeTeamID: "LAL", AwayTeamID: "BOS",
		HomeRank: 6, AwayRank: 1,
		StartAt: start.Format(time.RFC3339),
	}
	send("PUT", *apiURL+"/games/"+GAME_ID, game)

	// Tickets: most users back the favourite so a home win is an upset
	tickets := make([]Ticket, 0, *users)
	for i := 0; i < *users; i++ {
		side, idx := "away", 1
		if rand.Intn(4) == 0 {
			side, idx = "home", 0
		}
		home, away := 100+rand.Intn(20), 100+rand.Intn(20)
		tickets = append(tickets, Ticket{
			ID:         fmt.Sprintf("seed-ticket-%03d", i),
			AuthorID:   fmt.Sprintf("seed-user-%02d", i),
			GameID:     GAME_ID,
			League:     "nba",
			CreatedAt:  start.Add(-time.Duration(i) * time.Minute).Format(time.RFC3339),
			Confidence: 30 + rand.Intn(60),
			Pick:       Pick{Winner: side, ScoreHome: &home, ScoreAway: &away},
			Legs: []Leg{
				{Kind: "main", OptionID: fmt.Sprintf("nba:%s:%d", side, idx), Odds: 1.5 + rand.Float64(), Pct: 60},
				{Kind: "secondary", OptionID: "nba:home:2", Odds: 3.2, Pct: 25},
			},
		})
	}
	send("POST", *apiURL+"/tickets", map[string]interface{}{"tickets": tickets})

	// Final score: trigger delivery (or the in-process emitter) settles it
	game.HomeScore, game.AwayScore, game.Final = 112, 104, true
	send("PUT", *apiURL+"/games/"+GAME_ID, game)

	fmt.Println("✅ Seed complete. Try GET", *apiURL+"/users/seed-user-00/stats")
}

func send(method, url string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Fatalf("Failed to marshal JSON: %v", err)
	}

	req, err := http.NewRequest(method, url, bytes.NewBuffer(payload))
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s -> %s\n", method, url, resp.Status)
	if resp.StatusCode >= 300 {
		log.Fatalf("❌ Request failed: %s", string(body))
	}
}
