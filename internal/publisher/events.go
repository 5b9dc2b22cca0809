package publisher

import (
	"encoding/json"
)

// Event is the envelope every published message uses: a type tag plus the
// JSON-encoded content as a string.
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// MatchStartedEvent announces that a match left the lobby.
func MatchStartedEvent(matchId string, players int) (string, error) {
	type matchStartedContent struct {
		MatchId string `json:"matchId"`
		Players int    `json:"players"`
	}

	content := matchStartedContent{
		MatchId: matchId,
		Players: players,
	}

	return encode("MatchStarted", content)
}

// MatchEndedEvent announces that the last client left a match.
func MatchEndedEvent(matchId string, turns int) (string, error) {
	type matchEndedContent struct {
		MatchId string `json:"matchId"`
		Turns   int    `json:"turns"`
	}

	content := matchEndedContent{
		MatchId: matchId,
		Turns:   turns,
	}

	return encode("MatchEnded", content)
}

func encode(eventType string, content any) (string, error) {
	message, err := json.Marshal(content)
	if err != nil {
		return "", err
	}

	event := Event{
		Type:    eventType,
		Content: string(message),
	}

	e, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	return string(e), nil
}
