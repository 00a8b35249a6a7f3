package settings

import (
	"sync"
	"testing"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSettings_Defaults(t *testing.T) {
	s := New()

	assert.Equal(t, models.ModeNormal, s.Mode())
	assert.Equal(t, models.DefaultThresholds(), s.Thresholds())
	assert.False(t, s.Credentials().Complete())

	mode, threshold := s.ActiveThreshold()
	assert.Equal(t, models.ModeNormal, mode)
	assert.Equal(t, -40.0, threshold)
}

func TestSettings_ActiveThresholdFollowsMode(t *testing.T) {
	s := New()
	s.SetMode(models.ModeSleeping)

	_, threshold := s.ActiveThreshold()
	assert.Equal(t, -20.0, threshold)

	s.UpdateThresholds(func(t *models.ThresholdSet) { t.Sleeping = -5 })

	_, threshold = s.ActiveThreshold()
	assert.Equal(t, -5.0, threshold)
	assert.Equal(t, -60.0, s.Thresholds().Sensitive, "other modes untouched")
}

func TestSettings_ConcurrentAccess(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.UpdateThresholds(func(t *models.ThresholdSet) { t.Normal = float64(-i) })
			s.SetMode(models.Modes[i%len(models.Modes)])
		}(i)
		go func() {
			defer wg.Done()
			s.ActiveThreshold()
			s.Credentials()
		}()
	}
	wg.Wait()

	assert.Contains(t, models.Modes, s.Mode())
}
