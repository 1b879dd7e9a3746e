package indicators

import (
	"context"
	"errors"

	"psx-analyst/internal/models"
)

// SnapshotConfig holds the lookback windows used by Snapshot.
type SnapshotConfig struct {
	RSIPeriod             int
	MAShort               int
	MAMedium              int
	MALong                int
	MACDFast              int
	MACDSlow              int
	MACDSignal            int
	BollingerPeriod       int
	BollingerStdDev       float64
	ATRPeriod             int
	VolumeAvgDays         int
	VolumeSpikeMultiplier float64
	LevelLookback         int
	YearBars              int
	NearLevelPct          float64
}

// DefaultSnapshotConfig returns the standard lookback windows.
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		RSIPeriod:             14,
		MAShort:               10,
		MAMedium:              50,
		MALong:                200,
		MACDFast:              12,
		MACDSlow:              26,
		MACDSignal:            9,
		BollingerPeriod:       20,
		BollingerStdDev:       2.0,
		ATRPeriod:             14,
		VolumeAvgDays:         20,
		VolumeSpikeMultiplier: 2.0,
		LevelLookback:         20,
		YearBars:              252,
		NearLevelPct:          0.05,
	}
}

// Snapshot assembles an IndicatorSnapshot for the most recent bar of a
// chronologically ascending series. It is the sequential convenience form
// of Engine.Snapshot.
func Snapshot(bars []models.Bar, cfg SnapshotConfig) (*models.IndicatorSnapshot, error) {
	return NewDefaultEngine(1, cfg).Snapshot(context.Background(), bars)
}

// recoverable reports whether an indicator error means "not enough bars",
// which the snapshot represents as a null field rather than a failure.
func recoverable(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
