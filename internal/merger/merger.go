// Package merger reconciles graph-extracted listing data with the
// supplementary query results and ranking features, and scores how
// complete the merged record is.
package merger

import (
	"time"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/logger"
)

// Completeness weights. They sum to 100.
const (
	WeightBasic         = 15
	WeightMenus         = 10
	WeightImages        = 10
	WeightReviews       = 15
	WeightRankingCheck  = 5
	WeightVisitorStats  = 10
	WeightOrderOptions  = 10
	WeightOperationTime = 10

	// MinImages is the image count that earns the image weight.
	MinImages = 5

	// MinReviews is the review total that must be exceeded.
	MinReviews = 10

	maxCompleteness = 100
)

// Merge builds the final listing record. Voted keywords and visit
// purposes prefer the supplementary source when it has entries, then the
// ranking features. Review stats start from the extracted values and are
// overwritten per field by non-zero supplementary values.
func Merge(extracted domain.ListingRecord, supp domain.SupplementaryData, features domain.RankingFeatures) domain.ListingRecord {
	logger.Debug("Merging data from multiple sources")

	rec := extracted
	if rec.CrawledAt.IsZero() {
		rec.CrawledAt = time.Now().UTC()
	}
	if rec.Menus == nil {
		rec.Menus = []domain.Menu{}
	}
	if rec.Images == nil {
		rec.Images = []domain.Image{}
	}
	if rec.Facilities == nil {
		rec.Facilities = []domain.Facility{}
	}
	if rec.Payments == nil {
		rec.Payments = []string{}
	}
	if rec.Competitors == nil {
		rec.Competitors = []domain.Competitor{}
	}

	rec.Reviews.Stats = mergeReviewStats(extracted.Reviews.Stats, supp.ReviewStats)

	rec.Ranking = features
	if rec.Ranking.CategoryCodes == nil {
		rec.Ranking.CategoryCodes = []string{}
	}
	rec.Ranking.VotedKeywords = preferNonEmpty(supp.Voted.VotedKeywords, features.VotedKeywords)
	rec.Ranking.VisitCategories = preferNonEmpty(supp.Voted.VisitPurposes, features.VisitCategories)

	rec.Completeness = Completeness(rec)
	logger.Info("Data merged successfully. Completeness: %d%%", rec.Completeness)
	return rec
}

func mergeReviewStats(base domain.ReviewStats, supp *domain.ReviewStats) domain.ReviewStats {
	if supp == nil {
		return base
	}
	out := base
	if supp.Total != 0 {
		out.Total = supp.Total
	}
	if supp.VisitorCount != 0 {
		out.VisitorCount = supp.VisitorCount
	}
	if supp.BlogCount != 0 {
		out.BlogCount = supp.BlogCount
	}
	if supp.AverageScore != 0 {
		out.AverageScore = supp.AverageScore
	}
	if len(supp.ScoreDistribution) > 0 {
		out.ScoreDistribution = supp.ScoreDistribution
	}
	return out
}

func preferNonEmpty[T any](primary, secondary []T) []T {
	if len(primary) > 0 {
		return primary
	}
	if len(secondary) > 0 {
		return secondary
	}
	return []T{}
}

// Completeness scores rec from 0 to 100. Each check contributes its full
// weight or nothing.
func Completeness(rec domain.ListingRecord) int {
	score := 0

	b := rec.Basic
	if b.Name != "" && b.Category != "" && !b.Address.IsEmpty() {
		score += WeightBasic
	}
	if len(rec.Menus) > 0 {
		score += WeightMenus
	}
	if len(rec.Images) >= MinImages {
		score += WeightImages
	}
	if rec.Reviews.Stats.Total > MinReviews {
		score += WeightReviews
	}

	r := rec.Ranking
	for _, ok := range []bool{
		len(r.CategoryCodes) > 0,
		r.Gdid.Valid,
		len(r.VotedKeywords) > 0,
		len(r.VisitCategories) > 0,
	} {
		if ok {
			score += WeightRankingCheck
		}
	}

	if r.VisitorReviewStats.Total > 0 {
		score += WeightVisitorStats
	}
	if r.OrderOptions.HasAny() {
		score += WeightOrderOptions
	}
	if r.OperationTime.HasDetail() {
		score += WeightOperationTime
	}

	return min(score, maxCompleteness)
}

// Validate reports hard errors and soft warnings. Records with errors
// are still usable.
func Validate(rec domain.ListingRecord) domain.ValidationReport {
	report := domain.ValidationReport{Errors: []string{}, Warnings: []string{}}

	if rec.ID == "" {
		report.Errors = append(report.Errors, "missing required field: id")
	}
	if rec.Basic.Name == "" {
		report.Errors = append(report.Errors, "missing required field: basic.name")
	}

	if !rec.Ranking.Gdid.Valid {
		report.Warnings = append(report.Warnings, "invalid or missing gdid")
	}
	if len(rec.Ranking.VotedKeywords) == 0 {
		report.Warnings = append(report.Warnings, "no voted keywords found")
	}
	if len(rec.Menus) == 0 {
		report.Warnings = append(report.Warnings, "no menus found")
	}
	return report
}
