package genome

import "fmt"

// ActionName returns the stable human-readable label of an action code, as
// used in usage statistics and exports.
func ActionName(code int) (string, error) {
	cmd, err := Decode(code)
	if err != nil {
		return "", err
	}
	if cmd.None {
		return "nothing", nil
	}
	return fmt.Sprintf("muscle%d_%s", cmd.Actuator, cmd.Direction), nil
}

// UsageStats reports how often each action code appears across a set of
// genomes, as a percentage of all genes.
type UsageStats struct {
	TotalActions int
	Counts       [ActionCount]int
}

// CountUsage tallies action usage over every genome in the population.
// Codes outside the alphabet are counted against the idle slot rather than
// dropped, so totals stay consistent with genome lengths.
func CountUsage(genomes [][]int) UsageStats {
	var stats UsageStats
	for _, g := range genomes {
		for _, code := range g {
			if code < 0 || code >= ActionCount {
				code = 0
			}
			stats.Counts[code]++
			stats.TotalActions++
		}
	}
	return stats
}

// Percent returns the share of the given action code in [0, 100].
func (s UsageStats) Percent(code int) float64 {
	if s.TotalActions == 0 || code < 0 || code >= ActionCount {
		return 0
	}
	return float64(s.Counts[code]) / float64(s.TotalActions) * 100
}

// ActuatorPercent returns the combined contract+extend share of one
// actuator.
func (s UsageStats) ActuatorPercent(actuator int) float64 {
	if actuator < 0 || actuator >= ActuatorCount {
		return 0
	}
	contract := Encode(ActuatorCommand{Actuator: actuator, Direction: Contract})
	extend := Encode(ActuatorCommand{Actuator: actuator, Direction: Extend})
	return s.Percent(contract) + s.Percent(extend)
}
