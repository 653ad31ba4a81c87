package sentiment

import (
	"fmt"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Report text templates.
const (
	comparisonTemplate = "'%s' highlights a positive outlook, whereas '%s' raises concerns."
	ImpactText         = "The contrasting narratives reflect both growth potential and risks for the company."
)

// ComputeDistribution counts each annotation's sentiment exactly once.
// All three keys are present in the result.
func ComputeDistribution(annotations []models.ArticleAnnotation) models.Distribution {
	var d models.Distribution
	for _, a := range annotations {
		d.Add(a.Sentiment)
	}
	return d
}

// SelectComparison pairs the first Positive and the first Negative article.
// It returns at most one entry, and none when either side is missing.
func SelectComparison(annotations []models.ArticleAnnotation) []models.CoverageDifference {
	var pos, neg *models.ArticleAnnotation
	for i := range annotations {
		switch annotations[i].Sentiment {
		case models.Positive:
			if pos == nil {
				pos = &annotations[i]
			}
		case models.Negative:
			if neg == nil {
				neg = &annotations[i]
			}
		}
	}
	if pos == nil || neg == nil {
		return []models.CoverageDifference{}
	}
	return []models.CoverageDifference{{
		Comparison: fmt.Sprintf(comparisonTemplate, pos.Title, neg.Title),
		Impact:     ImpactText,
	}}
}

// ComputeTopicOverlap returns the topics shared by every article and, for
// every article, its topics outside that shared set.
//
// A single article's topics are all "common" and it has no unique topics.
// An article with no topics empties the common set.
func ComputeTopicOverlap(annotations []models.ArticleAnnotation) models.TopicOverlap {
	overlap := models.TopicOverlap{
		CommonTopics: []string{},
		UniqueTopics: make([][]string, len(annotations)),
	}
	if len(annotations) == 0 {
		return overlap
	}

	sets := make([]map[string]struct{}, len(annotations))
	for i, a := range annotations {
		sets[i] = toSet(a.Topics)
	}

	// Intersection, in first-article order.
	for _, t := range orderedUnique(annotations[0].Topics) {
		inAll := true
		for _, s := range sets[1:] {
			if _, ok := s[t]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			overlap.CommonTopics = append(overlap.CommonTopics, t)
		}
	}

	if len(annotations) == 1 {
		overlap.UniqueTopics[0] = []string{}
		return overlap
	}

	common := toSet(overlap.CommonTopics)
	for i, a := range annotations {
		unique := []string{}
		for _, t := range orderedUnique(a.Topics) {
			if _, ok := common[t]; !ok {
				unique = append(unique, t)
			}
		}
		overlap.UniqueTopics[i] = unique
	}
	return overlap
}

// Aggregate computes the comparative section for a non-empty annotation list.
func Aggregate(annotations []models.ArticleAnnotation) models.Comparative {
	return models.Comparative{
		Distribution:        ComputeDistribution(annotations),
		CoverageDifferences: SelectComparison(annotations),
		TopicOverlap:        ComputeTopicOverlap(annotations),
	}
}

func toSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func orderedUnique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
