package view

// NextImage moves a gallery index forward, wrapping to the first image.
func NextImage(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i >= n-1 || i < 0 {
		return 0
	}
	return i + 1
}

// PrevImage moves a gallery index back, wrapping to the last image.
func PrevImage(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i <= 0 || i >= n {
		return n - 1
	}
	return i - 1
}
