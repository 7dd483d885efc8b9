package updater

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/resilience"
)

func TestGuardedSourceOpensAfterFailures(t *testing.T) {
	src := new(mockSource)
	src.On("Latest", mock.Anything).Return(Release{}, errors.New("502 from feed")).Times(3)

	guarded := NewGuardedSource(src, resilience.New("release-feed", resilience.Settings{Timeout: time.Hour}))
	svc := newService(guarded)

	for i := 0; i < 3; i++ {
		assert.Nil(t, svc.Check(context.Background()))
		assert.Equal(t, "502 from feed", svc.State().Error)
	}
	assert.Equal(t, resilience.StateOpen, guarded.State())

	assert.Nil(t, svc.Check(context.Background()))
	assert.Equal(t, resilience.ErrCircuitOpen.Error(), svc.State().Error)
	src.AssertNumberOfCalls(t, "Latest", 3)
}

func TestGuardedSourcePassesReleases(t *testing.T) {
	src := new(mockSource)
	src.On("Latest", mock.Anything).Return(Release{Version: "2025.2.1"}, nil)

	svc := newService(NewGuardedSource(src, resilience.New("release-feed", resilience.Settings{})))
	info := svc.Check(context.Background())

	if assert.NotNil(t, info) {
		assert.Equal(t, "2025.2.1", info.LatestVersion)
	}
	src.AssertExpectations(t)
}
