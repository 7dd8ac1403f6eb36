// Simulation holds the game state and runs the daily systems over it.
package engine

import (
	"log/slog"
	"time"

	"github.com/talgya/holdfast/internal/legacy"
	"github.com/talgya/holdfast/internal/metrics"
	"github.com/talgya/holdfast/internal/report"
	"github.com/talgya/holdfast/internal/stronghold"
)

// MaxMessages is how many messages the simulation keeps in memory.
const MaxMessages = 1000

// Simulation holds the complete game state and the services that change it.
type Simulation struct {
	Strongholds map[string]stronghold.Stronghold
	Legacy      *legacy.Legacy // nil until a legacy is started
	Messages    []report.Message
	Day         uint64 // Most recent day processed

	// Statistics from the last day.
	Stats SimStats

	strongholds *stronghold.Service
	legacies    *legacy.Service
	metrics     *metrics.Recorder
}

// SimStats are aggregate numbers across all strongholds.
type SimStats struct {
	Strongholds    int     `json:"strongholds"`
	TotalGold      int     `json:"total_gold"`
	TotalStaff     int     `json:"total_staff"`
	ActiveThreats  int     `json:"active_threats"`
	ActiveMissions int     `json:"active_missions"`
	AvgMorale      float64 `json:"avg_morale"`
}

// NewSimulation creates an empty simulation. rec may be nil.
func NewSimulation(sh *stronghold.Service, lg *legacy.Service, rec *metrics.Recorder) *Simulation {
	return &Simulation{
		Strongholds: make(map[string]stronghold.Stronghold),
		strongholds: sh,
		legacies:    lg,
		metrics:     rec,
	}
}

// StrongholdService returns the stronghold service.
func (s *Simulation) StrongholdService() *stronghold.Service {
	return s.strongholds
}

// GameTime is the timestamp of the current day.
func (s *Simulation) GameTime() time.Time {
	return GameTime(s.Day)
}

// TickDay runs the daily upkeep for every stronghold and posts the reports.
func (s *Simulation) TickDay(day uint64) {
	s.Day = day
	updated, sums := report.ProcessAll(s.strongholds, s.Strongholds)
	s.Strongholds = updated

	msgs := report.ToMessages(sums, GameTime(day))
	s.Messages = append(s.Messages, msgs...)
	s.metrics.ObserveDay(sums, s.Strongholds)
	s.updateStats()

	var threats, missions, quit int
	for _, sum := range sums {
		threats += sum.Tally.ThreatsRepelled + sum.Tally.ThreatsFailed
		missions += sum.Tally.MissionsSucceeded + sum.Tally.MissionsFailed
		quit += sum.Tally.StaffQuit
	}

	slog.Info("daily report",
		"day", day,
		"date", SimDate(day),
		"strongholds", s.Stats.Strongholds,
		"total_gold", s.Stats.TotalGold,
		"staff", s.Stats.TotalStaff,
		"active_threats", s.Stats.ActiveThreats,
		"active_missions", s.Stats.ActiveMissions,
		"threats_resolved", threats,
		"missions_resolved", missions,
		"staff_quit", quit,
		"messages", len(msgs),
	)
	for _, sum := range sums {
		for _, a := range sum.Alerts {
			slog.Warn("stronghold alert", "stronghold", sum.StrongholdName, "alert", a)
		}
	}
}

// TickWeek trims the message log.
func (s *Simulation) TickWeek(day uint64) {
	if len(s.Messages) > MaxMessages {
		s.Messages = s.Messages[len(s.Messages)-MaxMessages:]
	}
	slog.Info("weekly summary", "day", day, "date", SimDate(day), "messages", len(s.Messages))
}

// TickSeason credits the legacy with a season of play.
func (s *Simulation) TickSeason(day uint64) {
	if s.Legacy != nil {
		l := legacy.AddPlayTime(*s.Legacy, DaysPerSeason*24*time.Hour)
		s.Legacy = &l
	}
	slog.Info("season turned", "day", day, "date", SimDate(day+1))
}

// Attach wires the simulation's periodic systems to a calendar.
func (s *Simulation) Attach(c *Calendar) {
	c.OnDay = s.TickDay
	c.OnWeek = s.TickWeek
	c.OnSeason = s.TickSeason
}

func (s *Simulation) updateStats() {
	st := SimStats{Strongholds: len(s.Strongholds)}
	morale := 0
	for _, h := range s.Strongholds {
		st.TotalGold += h.Resources.Gold
		st.TotalStaff += len(h.Staff)
		st.ActiveThreats += len(h.Threats)
		st.ActiveMissions += len(h.Missions)
		for _, m := range h.Staff {
			morale += m.Morale
		}
	}
	if st.TotalStaff > 0 {
		st.AvgMorale = float64(morale) / float64(st.TotalStaff)
	}
	s.Stats = st
}
