package mathx

const bytesPerMB = 1024 * 1024

// BytesToMB converts bytes to megabytes.
func BytesToMB(bytes int) float64 {
	return float64(bytes) / bytesPerMB
}

// MBToBytes converts megabytes to bytes, truncating any fraction of a byte.
func MBToBytes(mb float64) int64 {
	return int64(mb * bytesPerMB)
}
