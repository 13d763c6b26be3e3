package planner

// wavHeaderBytes is the size of a canonical RIFF/WAVE header as ffmpeg
// writes it for PCM output.
const wavHeaderBytes = 44

// EstimateOutputSize predicts the size of a job's destination. PCM output
// scales linearly with bit depth, so the source size is scaled by the
// target/source depth ratio. It returns 0 when the source format or size is
// unknown.
//
// The estimate ignores container overhead on the source side (CAF chunk
// tables, WAV metadata chunks) and the frames removed by silence trimming,
// so it tends to run slightly high for trimmed transcodes.
func EstimateOutputSize(job Job) int64 {
	src := job.Source
	if src == nil || src.Size <= 0 || !src.Format.Known() || job.Spec.Target.BitDepth == 0 {
		return 0
	}
	payload := src.Size * int64(job.Spec.Target.BitDepth) / int64(src.Format.BitDepth)
	return payload + wavHeaderBytes
}

// EstimateTotal sums [EstimateOutputSize] over jobs. known is false when at
// least one job could not be estimated.
func EstimateTotal(jobs []Job) (total int64, known bool) {
	known = true
	for _, j := range jobs {
		n := EstimateOutputSize(j)
		if n == 0 {
			known = false
			continue
		}
		total += n
	}
	return total, known
}
