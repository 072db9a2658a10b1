package pipeline

import (
	"strings"

	giturls "github.com/whilp/git-urls"

	"github.com/phobologic/repoir/internal/model"
)

type threshold struct {
	min    int
	points int
}

// Checked in order; the first threshold met scores.
var (
	starPoints        = []threshold{{5000, 3}, {500, 2}, {50, 1}}
	contributorPoints = []threshold{{30, 3}, {10, 2}, {3, 1}}
)

func points(v int, table []threshold) int {
	for _, t := range table {
		if v >= t.min {
			return t.points
		}
	}
	return 0
}

// ScalePoints is the ordinal maturity score behind ClassifyScale.
func ScalePoints(stars, contributors int, infra model.InfraConfig) int {
	score := points(stars, starPoints) + points(contributors, contributorPoints)
	switch infra.ContainerMode() {
	case model.ContainerSingle, model.ContainerCompose:
		score++
	case model.ContainerOrchestrated:
		score += 2
	}
	if infra.HasCI() {
		score++
	}
	return score
}

// ClassifyScale buckets the maturity score into a tier. Every input only ever
// adds points, so raising any one of them never lowers the tier.
func ClassifyScale(stars, contributors int, infra model.InfraConfig) model.ScaleTier {
	switch score := ScalePoints(stars, contributors, infra); {
	case score >= 7:
		return model.TierEnterprise
	case score >= 4:
		return model.TierGrowth
	case score >= 2:
		return model.TierStartup
	default:
		return model.TierHobby
	}
}

// NormalizeURL rewrites remote git URLs (scp, ssh, git, http) to their https
// browse form without credentials or a .git suffix. Local paths and strings
// that do not parse are returned trimmed but otherwise unchanged.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := giturls.Parse(raw)
	if err != nil || u.Scheme == "file" {
		return raw
	}
	host := u.Hostname()
	if host == "" {
		return raw
	}
	path := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	if path == "" {
		return "https://" + host
	}
	return "https://" + host + "/" + path
}
