package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthassist/backend/internal/application/services"
	"github.com/healthassist/backend/internal/domain/entities"
	"github.com/healthassist/backend/internal/domain/providers"
	apperrors "github.com/healthassist/backend/pkg/errors"
	"github.com/healthassist/backend/pkg/geo"
)

// Mocks

type MockProviderDirectory struct {
	mock.Mock
}

func (m *MockProviderDirectory) NearbySearch(ctx context.Context, query providers.NearbyQuery) (*providers.DirectoryResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.DirectoryResult), args.Error(1)
}

type MockSearchTracker struct {
	mock.Mock
}

func (m *MockSearchTracker) TrackSearch(ctx context.Context, event *entities.SearchEvent) {
	m.Called(ctx, event)
}

var atlanta = geo.Point{Latitude: 33.749, Longitude: -84.388}

func floatPtr(v float64) *float64 { return &v }

func candidate(id string, lat, lng float64) entities.ProviderCandidate {
	return entities.ProviderCandidate{
		ExternalID: id,
		Name:       "Provider " + id,
		Vicinity:   id + " Peachtree St",
		Location:   &geo.Point{Latitude: lat, Longitude: lng},
		Types:      []string{"doctor", "health"},
	}
}

func okResult(candidates ...entities.ProviderCandidate) *providers.DirectoryResult {
	return &providers.DirectoryResult{Status: providers.DirectoryStatusOK, Candidates: candidates}
}

func newLocator(dir *MockProviderDirectory) *services.ProviderLocator {
	return services.NewProviderLocator(dir, services.DefaultLocatorConfig())
}

func TestProviderLocator_Search_AtlantaScenario(t *testing.T) {
	dir := new(MockProviderDirectory)
	p1 := candidate("P1", 33.749, -84.388)
	p1.Rating = floatPtr(4.5)
	p2 := candidate("P2", 34.749, -85.388)

	dir.On("NearbySearch", mock.Anything, providers.NearbyQuery{
		Origin:       atlanta,
		RadiusMeters: 80000,
		Category:     "doctor",
		Keyword:      "cardiologist",
	}).Return(okResult(p1, p2), nil).Once()

	results, err := newLocator(dir).Search(context.Background(), services.SearchRequest{
		Query:    "  cardiologist ",
		Location: &atlanta,
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Provider P1", results[0].Name)
	assert.Equal(t, 0.0, results[0].DistanceMiles)
	assert.Equal(t, "P1 Peachtree St", results[0].Address)
	assert.Equal(t, "Rating: 4.5 ⭐", results[0].Description)
	assert.Equal(t, "P1", results[0].ExternalID)
	dir.AssertExpectations(t)
}

func TestProviderLocator_Search_SortsAndCutsOff(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).Return(okResult(
		candidate("marietta", 33.9526, -84.5499), // 16.9
		candidate("edge-out", 34.4735, -84.388),  // 50.1
		candidate("decatur", 33.7748, -84.2963),  // 5.6
		candidate("edge-in", 34.4725, -84.388),   // 49.99 rounds to 50.0
		candidate("rome", 34.749, -85.388),       // 89.6
		candidate("here", 33.749, -84.388),       // 0.0
	), nil)

	results, err := newLocator(dir).Search(context.Background(), services.SearchRequest{Location: &atlanta})

	require.NoError(t, err)
	ids := make([]string, 0, len(results))
	for i, r := range results {
		ids = append(ids, r.ExternalID)
		assert.LessOrEqual(t, r.DistanceMiles, 50.0)
		if i > 0 {
			assert.LessOrEqual(t, results[i-1].DistanceMiles, r.DistanceMiles)
		}
	}
	assert.Equal(t, []string{"here", "decatur", "marietta", "edge-in"}, ids)
	assert.Equal(t, []float64{0.0, 5.6, 16.9, 50.0}, []float64{
		results[0].DistanceMiles, results[1].DistanceMiles, results[2].DistanceMiles, results[3].DistanceMiles,
	})
}

func TestProviderLocator_Search_StableForTies(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).Return(okResult(
		candidate("b", 33.9526, -84.5499),
		candidate("a", 33.749, -84.388),
		candidate("c", 33.9526, -84.5499),
		candidate("d", 33.9526, -84.5499),
	), nil)

	results, err := newLocator(dir).Search(context.Background(), services.SearchRequest{Location: &atlanta})

	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "a", results[0].ExternalID)
	assert.Equal(t, "b", results[1].ExternalID)
	assert.Equal(t, "c", results[2].ExternalID)
	assert.Equal(t, "d", results[3].ExternalID)
}

func TestProviderLocator_Search_SkipsCandidatesWithoutLocation(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).Return(okResult(
		entities.ProviderCandidate{ExternalID: "nowhere", Name: "No Geometry Clinic"},
	), nil)

	results, err := newLocator(dir).Search(context.Background(), services.SearchRequest{Query: "x", Location: &atlanta})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestProviderLocator_Search_SkipsUnusableCoordinates(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).Return(okResult(
		candidate("bad", 123.0, -84.388),
		candidate("good", 33.749, -84.388),
	), nil)

	results, err := newLocator(dir).Search(context.Background(), services.SearchRequest{Location: &atlanta})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "good", results[0].ExternalID)
}

func TestProviderLocator_Search_MissingLocation(t *testing.T) {
	dir := new(MockProviderDirectory)
	tracker := new(MockSearchTracker)
	tracker.On("TrackSearch", mock.Anything, mock.MatchedBy(func(e *entities.SearchEvent) bool {
		return e.Outcome == entities.SearchOutcomeMissingLocation && e.ResultCount == 0
	})).Once()

	locator := newLocator(dir)
	locator.SetTracker(tracker)

	results, err := locator.Search(context.Background(), services.SearchRequest{Query: "cardiologist"})

	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, services.KindMissingLocation, appErr.Kind)
	dir.AssertNotCalled(t, "NearbySearch", mock.Anything, mock.Anything)
	tracker.AssertExpectations(t)
}

func TestProviderLocator_Search_OutOfRangeLocationIsMissing(t *testing.T) {
	dir := new(MockProviderDirectory)

	results, err := newLocator(dir).Search(context.Background(), services.SearchRequest{
		Location: &geo.Point{Latitude: 91, Longitude: 0},
	})

	require.Error(t, err)
	assert.Nil(t, results)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, services.KindMissingLocation, appErr.Kind)
	dir.AssertNotCalled(t, "NearbySearch", mock.Anything, mock.Anything)
}

func TestProviderLocator_Search_ZeroCoordinatesAreALocation(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).
		Return(&providers.DirectoryResult{Status: providers.DirectoryStatusZeroResults}, nil).Once()

	results, err := newLocator(dir).Search(context.Background(), services.SearchRequest{
		Location: &geo.Point{Latitude: 0, Longitude: 0},
	})

	require.NoError(t, err)
	assert.Empty(t, results)
	dir.AssertExpectations(t)
}

func TestProviderLocator_Search_ZeroResults(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).
		Return(&providers.DirectoryResult{Status: providers.DirectoryStatusZeroResults}, nil)

	results, err := newLocator(dir).Search(context.Background(), services.SearchRequest{Query: "xenobiologist", Location: &atlanta})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestProviderLocator_Search_DirectoryErrorStatus(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).Return(&providers.DirectoryResult{
		Status:       "REQUEST_DENIED",
		ErrorMessage: "The provided API key is invalid.",
	}, nil)

	results, err := newLocator(dir).Search(context.Background(), services.SearchRequest{Location: &atlanta})

	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))

	var dirErr *services.DirectoryError
	require.True(t, errors.As(err, &dirErr))
	assert.Equal(t, "REQUEST_DENIED", dirErr.Status)
	assert.Equal(t, "The provided API key is invalid.", dirErr.Message)

	appErr, _ := apperrors.As(err)
	assert.Equal(t, services.KindDirectoryUnavailable, appErr.Kind)
}

func TestProviderLocator_Search_TransportFailure(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	_, err := newLocator(dir).Search(context.Background(), services.SearchRequest{Location: &atlanta})

	require.Error(t, err)
	var dirErr *services.DirectoryError
	require.True(t, errors.As(err, &dirErr))
	assert.Equal(t, services.StatusUnreachable, dirErr.Status)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProviderLocator_Search_FiltersAndLimit(t *testing.T) {
	open := candidate("open-hospital", 33.7748, -84.2963)
	open.Rating = floatPtr(4.8)
	open.Types = []string{"hospital", "health"}
	open.OpeningHours = json.RawMessage(`{"open_now":true}`)

	closed := candidate("closed-hospital", 33.749, -84.388)
	closed.Rating = floatPtr(4.9)
	closed.Types = []string{"hospital"}
	closed.OpeningHours = json.RawMessage(`{"open_now":false}`)

	practice := candidate("practice", 33.749, -84.388)
	practice.Rating = floatPtr(5)
	practice.OpeningHours = json.RawMessage(`{"open_now":true}`)

	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).Return(okResult(open, closed, practice), nil)
	locator := newLocator(dir)

	results, err := locator.Search(context.Background(), services.SearchRequest{
		Location: &atlanta,
		Filters: []entities.SearchFilter{
			entities.KindFilter(entities.ProviderKindHospital),
			entities.AvailabilityFilter(),
			entities.RatingFilter(4.5),
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "open-hospital", results[0].ExternalID)

	results, err = locator.Search(context.Background(), services.SearchRequest{Location: &atlanta, Limit: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "closed-hospital", results[0].ExternalID)
	assert.Equal(t, "practice", results[1].ExternalID)
}

func TestProviderLocator_Search_TracksOutcome(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, mock.Anything).Return(okResult(candidate("here", 33.749, -84.388)), nil)

	tracker := new(MockSearchTracker)
	tracker.On("TrackSearch", mock.Anything, mock.MatchedBy(func(e *entities.SearchEvent) bool {
		return e.Outcome == entities.SearchOutcomeOK &&
			e.ResultCount == 1 &&
			e.Query == "dentist" &&
			e.UserLatitude == atlanta.Latitude &&
			e.UserLongitude == atlanta.Longitude
	})).Once()

	locator := newLocator(dir)
	locator.SetTracker(tracker)

	_, err := locator.Search(context.Background(), services.SearchRequest{Query: " dentist", Location: &atlanta})

	require.NoError(t, err)
	tracker.AssertExpectations(t)
}

func TestNewProviderLocator_AppliesDefaults(t *testing.T) {
	dir := new(MockProviderDirectory)
	dir.On("NearbySearch", mock.Anything, providers.NearbyQuery{
		Origin:       atlanta,
		RadiusMeters: 80000,
		Category:     "doctor",
	}).Return(okResult(candidate("edge-in", 34.4725, -84.388)), nil).Once()

	results, err := services.NewProviderLocator(dir, services.LocatorConfig{}).
		Search(context.Background(), services.SearchRequest{Location: &atlanta})

	require.NoError(t, err)
	assert.Len(t, results, 1)
	dir.AssertExpectations(t)
}

func TestRankCandidates_DropCounts(t *testing.T) {
	ranked, dropped := services.RankCandidates(atlanta, []entities.ProviderCandidate{
		{ExternalID: "no-location"},
		candidate("bad", 33.749, 200),
		candidate("far", 34.749, -85.388),
		candidate("near", 33.7748, -84.2963),
	}, 50)

	require.Len(t, ranked, 1)
	assert.Equal(t, "near", ranked[0].ExternalID)
	assert.Equal(t, services.DropCounts{MissingLocation: 1, InvalidCoordinates: 1, TooFar: 1}, dropped)
}

func TestRankCandidates_AntipodeIsDroppedAsTooFar(t *testing.T) {
	origin := geo.Point{Latitude: 18.8389, Longitude: 158.5833}

	ranked, dropped := services.RankCandidates(origin, []entities.ProviderCandidate{
		candidate("antipode", -18.8389, -21.4167),
		candidate("here", 18.8389, 158.5833),
	}, 50)

	require.Len(t, ranked, 1)
	assert.Equal(t, "here", ranked[0].ExternalID)
	assert.Equal(t, 0.0, ranked[0].DistanceMiles)
	assert.Equal(t, services.DropCounts{TooFar: 1}, dropped)

	_, err := json.Marshal(ranked)
	assert.NoError(t, err)
}

func TestRankCandidates_NaNCutoffKeepsNothing(t *testing.T) {
	ranked, dropped := services.RankCandidates(atlanta, []entities.ProviderCandidate{
		candidate("here", 33.749, -84.388),
	}, math.NaN())

	assert.Empty(t, ranked)
	assert.Equal(t, services.DropCounts{TooFar: 1}, dropped)
}
