package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeWindowFeatures_SortsByDate(t *testing.T) {
	points := []SeriesPoint{
		{Date: day(3), Value: 30},
		{Date: day(1), Value: 10},
		{Date: day(2), Value: 20},
	}

	wf := ComputeWindowFeatures(points, []int{1})

	require.Len(t, wf.Points, 3)
	assert.Equal(t, 10.0, wf.Points[0].Value)
	assert.Equal(t, 20.0, wf.Points[1].Value)
	assert.Equal(t, 30.0, wf.Points[2].Value)
	// Input order is untouched.
	assert.Equal(t, 30.0, points[0].Value)
}

func TestComputeWindowFeatures_LagsAndLeads(t *testing.T) {
	points := make([]SeriesPoint, 5)
	for i := range points {
		points[i] = SeriesPoint{Date: day(i + 1), Value: float64(i + 1)}
	}

	wf := ComputeWindowFeatures(points, []int{1, 2})

	lag1 := wf.Lags[1]
	require.Len(t, lag1, 5)
	assert.Nil(t, lag1[0])
	for i := 1; i < 5; i++ {
		require.NotNil(t, lag1[i])
		assert.Equal(t, float64(i), *lag1[i])
	}

	lead1 := wf.Leads[1]
	require.Len(t, lead1, 5)
	assert.Nil(t, lead1[4])
	for i := 0; i < 4; i++ {
		require.NotNil(t, lead1[i])
		assert.Equal(t, float64(i+2), *lead1[i])
	}

	lag2 := wf.Lags[2]
	assert.Nil(t, lag2[0])
	assert.Nil(t, lag2[1])
	require.NotNil(t, lag2[4])
	assert.Equal(t, 3.0, *lag2[4])
}

func TestComputeWindowFeatures_Rolling(t *testing.T) {
	points := make([]SeriesPoint, 5)
	for i := range points {
		points[i] = SeriesPoint{Date: day(i + 1), Value: float64(i + 1)}
	}

	wf := ComputeWindowFeatures(points, []int{3})

	means := wf.RollingMeans[3]
	stds := wf.RollingStds[3]
	require.Len(t, means, 5)

	// Positions before the first complete window stay nil.
	assert.Nil(t, means[0])
	assert.Nil(t, means[1])
	assert.Nil(t, stds[1])

	require.NotNil(t, means[2])
	assert.InDelta(t, 2.0, *means[2], 1e-9)
	require.NotNil(t, means[4])
	assert.InDelta(t, 4.0, *means[4], 1e-9)

	// Sample standard deviation of any 3 consecutive integers is 1.
	require.NotNil(t, stds[2])
	assert.InDelta(t, 1.0, *stds[2], 1e-9)
}

func TestComputeWindowFeatures_SinglePeriodSkipsRolling(t *testing.T) {
	points := []SeriesPoint{{Date: day(1), Value: 1}, {Date: day(2), Value: 2}}

	wf := ComputeWindowFeatures(points, []int{1})

	assert.Contains(t, wf.Lags, 1)
	assert.NotContains(t, wf.RollingMeans, 1)
	assert.NotContains(t, wf.RollingStds, 1)
}

func TestComputeWindowFeatures_IgnoresInvalidPeriods(t *testing.T) {
	points := []SeriesPoint{{Date: day(1), Value: 1}}

	wf := ComputeWindowFeatures(points, []int{0, -3})

	assert.Empty(t, wf.Lags)
	assert.Empty(t, wf.Leads)
}

func TestComputeWindowFeatures_EmptySeries(t *testing.T) {
	wf := ComputeWindowFeatures(nil, []int{1, 7})

	assert.Empty(t, wf.Points)
	assert.Empty(t, wf.Lags[1])
	assert.Empty(t, wf.Lags[7])
}
