package identity

import "math"

// foldRating folds one rating into a doctor's running sum/count. prev is the
// rating being replaced when a patient re-rates, nil for a first rating. The
// returned mean is rounded to 2 decimals.
func foldRating(sum, count int, prev *int, rating int) (int, int, float64) {
	if prev != nil && count > 0 {
		sum -= *prev
	} else {
		count++
	}
	sum += rating
	return sum, count, math.Round(float64(sum)/float64(count)*100) / 100
}
