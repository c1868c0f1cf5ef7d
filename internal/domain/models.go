package domain

import (
	"time"
)

type Match struct {
	MatchID    string
	MapName    string
	Team1Name  string
	Team2Name  string
	ScoreTeam1 int
	ScoreTeam2 int
	IsDraw     bool
	Winner     int // 0 = draw, 1 or 2 = winning team
	RawPayload string
	Date       time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type PlayerMatchStats struct {
	ID       string // matchID + "_" + steamID
	MatchID  string
	SteamID  string
	Name     string
	Team     int // 1 or 2
	TeamName string

	// nil when the match was a draw, so the player contributes to neither
	// wins nor losses
	IsWinner *bool

	Kills          int
	Deaths         int
	Assists        int
	HeadshotKills  int
	MVPs           int
	UtilityDamage  int
	EnemiesFlashed int
	FlashAssists   int
	BombPlants     int
	BombDefuses    int
	FirstKills     int
	FirstDeaths    int
	ClutchesWon    int
	Damage         int

	ADR             float64
	KAST            float64
	Rating          float64
	HeadshotPercent int

	MapName   string
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PlayerAggregate struct {
	TotalMatches int `json:"totalMatches"`
	Wins         int `json:"wins"`
	Losses       int `json:"losses"`
	Draws        int `json:"draws"`

	TotalKills          int `json:"totalKills"`
	TotalDeaths         int `json:"totalDeaths"`
	TotalAssists        int `json:"totalAssists"`
	TotalHeadshotKills  int `json:"totalHeadshotKills"`
	TotalMVPs           int `json:"totalMvps"`
	TotalUtilityDamage  int `json:"totalUtilityDamage"`
	TotalEnemiesFlashed int `json:"totalEnemiesFlashed"`
	TotalFlashAssists   int `json:"totalFlashAssists"`
	TotalBombPlants     int `json:"totalBombPlants"`
	TotalBombDefuses    int `json:"totalBombDefuses"`
	TotalFirstKills     int `json:"totalFirstKills"`
	TotalFirstDeaths    int `json:"totalFirstDeaths"`
	TotalClutchesWon    int `json:"totalClutchesWon"`
	TotalDamage         int `json:"totalDamage"`

	KDRatio      float64 `json:"kdRatio"`
	WinRate      float64 `json:"winRate"`
	AvgADR       float64 `json:"avgAdr"`
	AvgRating    float64 `json:"avgRating"`
	AvgHsPercent float64 `json:"avgHsPercent"`
	AvgKAST      float64 `json:"avgKast"`

	LastUpdated time.Time `json:"lastUpdated"`
}

type User struct {
	SteamID         string
	DisplayName     string
	Avatar          string
	AvatarMedium    string
	AvatarFull      string
	ProfileURL      string
	AggregatedStats *PlayerAggregate
	LastLoginAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
