package models

import "math"

// AggregateRating computes a book's rating and review count from the full
// review set. Always recomputed from scratch rather than incrementally, so
// floating-point drift cannot accumulate across writes. The mean is rounded
// half-up to one decimal place; no reviews means rating 0.
func AggregateRating(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Floor(mean*10+0.5) / 10, len(ratings)
}
