package service

// PosterNumbers is the fixed list searched by GET /api/search.
var PosterNumbers = []int{1, 3, 5, 4, 7, 9}

// LinearSearch returns the index of the first element equal to key, or -1.
func LinearSearch(values []int, key int) int {
	for i, v := range values {
		if v == key {
			return i
		}
	}
	return -1
}
