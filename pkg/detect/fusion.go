package detect

import "github.com/phishzil/threatscan/pkg/threat"

// maliciousThreshold is the fused confidence at which an input is declared
// malicious. The Level/Action table below keys off the same value.
const maliciousThreshold = 0.7

// Fuse combines the analyzer results that actually ran into one assessment.
// Channels with no input are skipped by the caller, not scored as zero.
//
//	confidence = min(maxRisk + avgRisk*0.3, 1.0)
//
// The max term keeps one decisive channel decisive; the average term lets
// corroborating channels push a borderline score over the line.
func Fuse(results []threat.AnalyzerResult) threat.Assessment {
	if len(results) == 0 {
		return threat.NoSignal()
	}

	var maxRisk, sum float64
	for _, r := range results {
		if r.RiskScore > maxRisk {
			maxRisk = r.RiskScore
		}
		sum += r.RiskScore
	}
	avgRisk := sum / float64(len(results))
	confidence := threat.Clamp01(maxRisk + avgRisk*0.3)

	level, action := Classify(confidence)
	assessment := threat.Assessment{
		IsMalicious: confidence >= maliciousThreshold,
		Level:       level,
		Confidence:  confidence,
		Action:      action,
		Details:     make(map[string]threat.AnalyzerResult, len(results)),
	}
	for _, r := range results {
		for _, tag := range r.ThreatTypes {
			assessment.ThreatTypes = appendUnique(assessment.ThreatTypes, tag)
		}
		for _, ind := range r.Indicators {
			assessment.Indicators = appendUnique(assessment.Indicators, ind)
		}
		assessment.Details[r.Channel] = r
	}
	return assessment
}

// Classify maps a fused confidence to a severity level and recommended
// action. Pure lookup, evaluated high to low, first match wins.
func Classify(confidence float64) (threat.Level, threat.Action) {
	switch {
	case confidence >= 0.9:
		return threat.LevelCritical, threat.ActionBlockImmediately
	case confidence >= 0.7:
		return threat.LevelHigh, threat.ActionQuarantineAndAlert
	case confidence >= 0.4:
		return threat.LevelMedium, threat.ActionWarnUser
	default:
		return threat.LevelLow, threat.ActionAllowWithMonitoring
	}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
