package aggregator

import (
	"time"

	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
)

// computeWindows counts launches, successes and rugs inside the rolling
// windows relative to now. Records must already be limited to the long
// window; recomputing from the same record set and the same now always
// yields the same counters.
func computeWindows(records []*domain.LaunchRecord, now time.Time, cfg config.AggregatorConfig) domain.WindowCounters {
	shortCutoff := now.AddDate(0, 0, -cfg.ShortWindowDays)
	mediumCutoff := now.AddDate(0, 0, -cfg.MediumWindowDays)
	longCutoff := now.AddDate(0, 0, -cfg.LongWindowDays)

	var w domain.WindowCounters
	for _, rec := range records {
		t := rec.Event.LaunchTime
		if t.Before(longCutoff) {
			continue
		}

		w.Launches90d++
		if rec.Successful {
			w.Successes90d++
		}
		if rec.Rugged {
			w.Rugs90d++
		}

		if !t.Before(mediumCutoff) {
			w.Launches30d++
			if rec.Successful {
				w.Successes30d++
			}
		}
		if !t.Before(shortCutoff) {
			w.Launches7d++
			if rec.Successful {
				w.Successes7d++
			}
		}
	}
	return w
}

// computeVelocity derives velocity metrics from the long-window launch
// history. Intervals are minutes between consecutive launches sorted by
// time; daily counts use UTC calendar days. Fewer than 2 launches in
// the window defaults to SELECTIVE with zeroed metrics.
func computeVelocity(records []*domain.LaunchRecord, cfg config.AggregatorConfig) domain.VelocityMetrics {
	if len(records) < 2 {
		return domain.VelocityMetrics{Type: domain.VelocitySelective}
	}

	dailyCounts := make(map[string]int)
	for _, rec := range records {
		day := rec.Event.LaunchTime.UTC().Format("2006-01-02")
		dailyCounts[day]++
	}

	maxDaily := 0
	totalDaily := 0
	for _, c := range dailyCounts {
		totalDaily += c
		if c > maxDaily {
			maxDaily = c
		}
	}
	avgDaily := float64(totalDaily) / float64(len(dailyCounts))

	// Records arrive sorted by launch time ascending.
	var minInterval, sumInterval float64
	intervals := 0
	for i := 1; i < len(records); i++ {
		gap := records[i].Event.LaunchTime.Sub(records[i-1].Event.LaunchTime).Minutes()
		if gap < 0 {
			gap = 0
		}
		if intervals == 0 || gap < minInterval {
			minInterval = gap
		}
		sumInterval += gap
		intervals++
	}

	return domain.VelocityMetrics{
		AvgDailyLaunches:   avgDaily,
		MaxDailyLaunches:   maxDaily,
		MinIntervalMinutes: minInterval,
		AvgIntervalMinutes: sumInterval / float64(intervals),
		Type:               classifyVelocity(avgDaily, maxDaily, cfg),
	}
}

// classifyVelocity maps daily launch statistics to a velocity type.
func classifyVelocity(avgDaily float64, maxDaily int, cfg config.AggregatorConfig) domain.VelocityType {
	switch {
	case maxDaily > cfg.SpammerMaxDaily:
		return domain.VelocitySerialSpammer
	case avgDaily > cfg.HighFrequencyAvgDaily:
		return domain.VelocityHighFrequency
	case avgDaily > cfg.ModerateAvgDaily:
		return domain.VelocityModerate
	default:
		return domain.VelocitySelective
	}
}
