// Package report runs the daily upkeep over every stronghold and turns the
// summaries into player-facing messages.
package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/holdfast/internal/stronghold"
)

// MessageType tags stronghold report messages.
const MessageType = "stronghold_report"

// Separator joins the parts of a report.
const Separator = " | "

// Metadata identifies what a message is about.
type Metadata struct {
	Type         string `json:"type"`
	StrongholdID string `json:"stronghold_id"`
}

// Message is a narrative line delivered to the player.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  Metadata  `json:"metadata"`
}

// ProcessAll runs one upkeep tick for every stronghold. Strongholds are visited in
// id order so a seeded source gives the same day every time. The input map is not
// modified.
func ProcessAll(svc *stronghold.Service, holds map[string]stronghold.Stronghold) (map[string]stronghold.Stronghold, []stronghold.DailySummary) {
	ids := make([]string, 0, len(holds))
	for id := range holds {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make(map[string]stronghold.Stronghold, len(holds))
	summaries := make([]stronghold.DailySummary, 0, len(holds))
	for _, id := range ids {
		next, sum := svc.ProcessDailyUpkeep(holds[id])
		out[id] = next
		summaries = append(summaries, sum)
	}
	return out, summaries
}

// ToMessages renders one message per summary that has something to say.
func ToMessages(summaries []stronghold.DailySummary, gameTime time.Time) []Message {
	var msgs []Message
	for _, sum := range summaries {
		if sum.Quiet() {
			continue
		}
		msgs = append(msgs, Message{
			ID:        uuid.NewString(),
			Text:      Render(sum),
			Sender:    sum.StrongholdName,
			Timestamp: gameTime,
			Metadata:  Metadata{Type: MessageType, StrongholdID: sum.StrongholdID},
		})
	}
	return msgs
}

// Render builds the text of a stronghold report.
func Render(sum stronghold.DailySummary) string {
	parts := []string{fmt.Sprintf("Report from %s", sum.StrongholdName)}
	if sum.GoldChange != 0 {
		parts = append(parts, "Gold "+signed(sum.GoldChange))
	}
	if sum.InfluenceChange != 0 {
		parts = append(parts, "Influence "+signed(sum.InfluenceChange))
	}
	parts = append(parts, sum.ConstructionEvents...)
	parts = append(parts, sum.StaffEvents...)
	parts = append(parts, sum.ThreatEvents...)
	parts = append(parts, sum.MissionEvents...)
	for _, a := range sum.Alerts {
		parts = append(parts, "ALERT: "+a)
	}
	return strings.Join(parts, Separator)
}

func signed(n int) string {
	if n > 0 {
		return "+" + humanize.Comma(int64(n))
	}
	return humanize.Comma(int64(n))
}
