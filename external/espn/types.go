package espn

// Envelope types for the ESPN soccer scoreboard payload. Only the fields the
// normalizer reads are declared; the feed carries far more.

type scoreboardEnvelope struct {
	Leagues []scoreboardLeague `json:"leagues"`
	Events  []scoreboardEvent  `json:"events"`
}

type scoreboardLeague struct {
	Name string `json:"name"`
}

type scoreboardEvent struct {
	ID           string             `json:"id"`
	League       scoreboardLeague   `json:"league"`
	Status       eventStatus        `json:"status"`
	Competitions []eventCompetition `json:"competitions"`
}

type eventStatus struct {
	Type eventStatusType `json:"type"`
}

type eventStatusType struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type eventCompetition struct {
	Date        string            `json:"date"`
	Competitors []eventCompetitor `json:"competitors"`
}

type eventCompetitor struct {
	HomeAway string    `json:"homeAway"`
	Score    string    `json:"score"`
	Team     eventTeam `json:"team"`
}

type eventTeam struct {
	DisplayName string `json:"displayName"`
}
