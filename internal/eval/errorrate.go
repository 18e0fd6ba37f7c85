package eval

// ComputeErrorRate calculates the failure percentage
// error_rate = failed / total * 100
func ComputeErrorRate(failed, total int) ErrorRateResult {
	// No checks means no rate, never a zero rate
	if total <= 0 {
		return ErrorRateResult{InsufficientData: true}
	}

	if failed < 0 {
		failed = 0
	}
	if failed > total {
		failed = total
	}

	return ErrorRateResult{
		Percent: float64(failed) / float64(total) * 100,
	}
}
