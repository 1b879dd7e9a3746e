package indicators

import (
	"fmt"

	"psx-analyst/internal/models"
)

// OBV calculates On-Balance Volume.
type OBV struct{}

// NewOBV creates a new OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

func (o *OBV) Name() string {
	return "OBV"
}

func (o *OBV) Period() int {
	return 2
}

func (o *OBV) Calculate(bars []models.Bar) ([]float64, error) {
	if len(bars) < 2 {
		return nil, ErrInsufficientData
	}

	n := len(bars)
	result := make([]float64, n)
	result[0] = float64(bars[0].Volume)

	for i := 1; i < n; i++ {
		if bars[i].Close > bars[i-1].Close {
			result[i] = result[i-1] + float64(bars[i].Volume)
		} else if bars[i].Close < bars[i-1].Close {
			result[i] = result[i-1] - float64(bars[i].Volume)
		} else {
			result[i] = result[i-1]
		}
	}

	return result, nil
}

// ADLine calculates the Accumulation/Distribution Line.
type ADLine struct{}

// NewADLine creates a new A/D Line indicator.
func NewADLine() *ADLine {
	return &ADLine{}
}

func (a *ADLine) Name() string {
	return "ADLine"
}

func (a *ADLine) Period() int {
	return 1
}

func (a *ADLine) Calculate(bars []models.Bar) ([]float64, error) {
	if len(bars) == 0 {
		return nil, ErrInsufficientData
	}

	n := len(bars)
	result := make([]float64, n)

	var cumAD float64
	for i := 0; i < n; i++ {
		hl := bars[i].High - bars[i].Low
		// Money flow multiplier is 0 when high == low
		if hl != 0 {
			mfm := ((bars[i].Close - bars[i].Low) - (bars[i].High - bars[i].Close)) / hl
			cumAD += mfm * float64(bars[i].Volume)
		}
		result[i] = cumAD
	}

	return result, nil
}

// VolumeRatio compares the latest bar's volume to the trailing average
// volume, excluding the current day from the average.
type VolumeRatio struct {
	avgDays int
}

// NewVolumeRatio creates a new VolumeRatio indicator.
func NewVolumeRatio(avgDays int) *VolumeRatio {
	return &VolumeRatio{avgDays: avgDays}
}

func (v *VolumeRatio) Name() string {
	return fmt.Sprintf("VolumeRatio_%d", v.avgDays)
}

func (v *VolumeRatio) Period() int {
	return v.avgDays + 1
}

// Latest returns the ratio for the most recent bar. The ratio is invalid
// when history is shorter than avgDays+1 or the trailing average is zero
// (a zero average must not produce an infinite ratio).
func (v *VolumeRatio) Latest(bars []models.Bar) (models.OptFloat, error) {
	if v.avgDays <= 0 {
		return models.NullFloat(), ErrInvalidPeriod
	}
	if len(bars) < v.avgDays+1 {
		return models.NullFloat(), ErrInsufficientData
	}

	last := len(bars) - 1
	var total float64
	for _, b := range bars[last-v.avgDays : last] {
		total += float64(b.Volume)
	}
	avg := total / float64(v.avgDays)
	if avg == 0 {
		return models.NullFloat(), nil
	}

	return models.Float(float64(bars[last].Volume) / avg), nil
}
