package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/repository"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
)

type mockLinkStore struct {
	links   map[string]*models.SharingLink
	byToken map[string]string
	created *models.SharingLink
}

func newMockLinkStore(links ...*models.SharingLink) *mockLinkStore {
	store := &mockLinkStore{
		links:   make(map[string]*models.SharingLink),
		byToken: make(map[string]string),
	}
	for _, link := range links {
		store.links[link.ID] = link
		store.byToken[link.Token] = link.ID
	}
	return store
}

func (m *mockLinkStore) Create(ctx context.Context, link *models.SharingLink) error {
	if link.ID == "" {
		link.ID = "link-new"
	}
	m.links[link.ID] = link
	m.byToken[link.Token] = link.ID
	m.created = link
	return nil
}

func (m *mockLinkStore) GetByID(ctx context.Context, id string) (*models.SharingLink, error) {
	if link, ok := m.links[id]; ok {
		clone := *link
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLinkStore) GetByToken(ctx context.Context, token string) (*models.SharingLink, error) {
	if id, ok := m.byToken[token]; ok {
		return m.GetByID(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (m *mockLinkStore) ListByProject(ctx context.Context, projectID string) ([]models.SharingLink, error) {
	var out []models.SharingLink
	for _, link := range m.links {
		if link.ProjectID == projectID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (m *mockLinkStore) RegisterView(ctx context.Context, id string) (int, error) {
	link, ok := m.links[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	if link.MaxViews != nil && link.ViewCount >= *link.MaxViews {
		return 0, repository.ErrViewLimitReached
	}
	link.ViewCount++
	now := time.Now().UTC()
	link.LastAccessedAt = &now
	return link.ViewCount, nil
}

func (m *mockLinkStore) SetActive(ctx context.Context, id string, active bool) error {
	link, ok := m.links[id]
	if !ok {
		return sql.ErrNoRows
	}
	link.IsActive = active
	return nil
}

func (m *mockLinkStore) Delete(ctx context.Context, id string) error {
	link, ok := m.links[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.byToken, link.Token)
	delete(m.links, id)
	return nil
}

type mockSharingProjects struct {
	project *models.Project
}

func (m *mockSharingProjects) GetByID(ctx context.Context, id string) (*models.Project, error) {
	if m.project == nil || m.project.ID != id {
		return nil, sql.ErrNoRows
	}
	clone := *m.project
	return &clone, nil
}

type mockSharingSlides struct {
	slides []models.Slide
	lists  int
}

func (m *mockSharingSlides) ListByProject(ctx context.Context, projectID string) ([]models.Slide, error) {
	m.lists++
	return m.slides, nil
}

type mockDeckCache struct {
	entries map[string][]byte
	hits    int
}

func (m *mockDeckCache) Get(ctx context.Context, key string, dest interface{}) error {
	if data, ok := m.entries[key]; ok {
		m.hits++
		return json.Unmarshal(data, dest)
	}
	return appErrors.ErrCacheMiss
}

func (m *mockDeckCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = data
	return nil
}

func (m *mockDeckCache) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

type mockPDFRenderer struct {
	renders int
}

func (m *mockPDFRenderer) Render(project *models.Project, slides []models.Slide) ([]byte, error) {
	m.renders++
	return []byte("%PDF-1.4 stub"), nil
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func newSharingFixture(link *models.SharingLink) (*SharingService, *mockLinkStore, *mockSharingSlides, *mockDeckCache) {
	links := newMockLinkStore()
	if link != nil {
		links = newMockLinkStore(link)
	}
	projects := &mockSharingProjects{project: deckProject(2, 1)}
	slides := &mockSharingSlides{slides: []models.Slide{
		{ID: "s1", OrderIndex: 0, Headline: "Intro"},
		{ID: "s2", OrderIndex: 1, Headline: "Hidden", IsHidden: true},
		{ID: "s3", OrderIndex: 2, Headline: "Close"},
	}}
	cache := &mockDeckCache{}
	svc := NewSharingService(links, projects, slides, cache, &mockPDFRenderer{}, nil, nil, nil, SharingServiceConfig{})
	return svc, links, slides, cache
}

func TestCreateLinkDefaultsToViewTier(t *testing.T) {
	svc, links, _, _ := newSharingFixture(nil)

	link, err := svc.CreateLink(context.Background(), "proj-1", dto.CreateLinkRequest{}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.PermissionView, link.Permission)
	assert.True(t, link.IsActive)
	assert.GreaterOrEqual(t, len(link.Token), 43) // 32 random bytes, base64url
	assert.NotNil(t, links.created)
}

func TestCreateLinkRejectsPastExpiry(t *testing.T) {
	svc, _, _, _ := newSharingFixture(nil)

	past := time.Now().Add(-time.Hour)
	_, err := svc.CreateLink(context.Background(), "proj-1", dto.CreateLinkRequest{ExpiresAt: &past}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveUnknownTokenIsInvalidLink(t *testing.T) {
	svc, _, _, _ := newSharingFixture(nil)

	_, err := svc.Resolve(context.Background(), "no-such-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidLink.Code, appErrors.FromError(err).Code)
}

func TestResolveInactiveLink(t *testing.T) {
	svc, _, _, _ := newSharingFixture(&models.SharingLink{
		ID: "l1", ProjectID: "proj-1", Token: "tok", IsActive: false,
	})

	_, err := svc.Resolve(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLinkInactive.Code, appErrors.FromError(err).Code)
}

func TestResolveExpiredLinkRegardlessOfRemainingViews(t *testing.T) {
	svc, links, _, _ := newSharingFixture(&models.SharingLink{
		ID: "l1", ProjectID: "proj-1", Token: "tok", IsActive: true,
		ExpiresAt: timePtr(time.Now().Add(-time.Minute)),
		MaxViews:  intPtr(100),
	})

	_, err := svc.Resolve(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLinkExpired.Code, appErrors.FromError(err).Code)
	// expiry short-circuits before the counter
	assert.Equal(t, 0, links.links["l1"].ViewCount)
}

func TestResolveEnforcesViewLimit(t *testing.T) {
	svc, links, _, _ := newSharingFixture(&models.SharingLink{
		ID: "l1", ProjectID: "proj-1", Token: "tok", IsActive: true,
		MaxViews: intPtr(3),
	})

	for i := 1; i <= 3; i++ {
		deck, err := svc.Resolve(context.Background(), "tok")
		require.NoError(t, err, "view %d", i)
		assert.Equal(t, "proj-1", deck.Project.ID)
	}

	_, err := svc.Resolve(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrViewLimitExceeded.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 3, links.links["l1"].ViewCount)
}

func TestResolveFiltersHiddenSlides(t *testing.T) {
	svc, _, _, _ := newSharingFixture(&models.SharingLink{
		ID: "l1", ProjectID: "proj-1", Token: "tok", IsActive: true,
	})

	deck, err := svc.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, deck.Slides, 2)
	for _, slide := range deck.Slides {
		assert.False(t, slide.IsHidden)
	}
}

func TestResolveServesDeckFromCacheButAlwaysCounts(t *testing.T) {
	svc, links, slides, cache := newSharingFixture(&models.SharingLink{
		ID: "l1", ProjectID: "proj-1", Token: "tok", IsActive: true,
	})

	_, err := svc.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, 1, slides.lists)
	assert.Equal(t, 1, cache.hits)
	// view counter bypasses the cache entirely
	assert.Equal(t, 2, links.links["l1"].ViewCount)
}

func TestExportPDFRequiresDownloadTier(t *testing.T) {
	svc, _, _, _ := newSharingFixture(&models.SharingLink{
		ID: "l1", ProjectID: "proj-1", Token: "tok", IsActive: true,
		Permission: models.PermissionView,
	})

	_, _, err := svc.ExportPDF(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDownloadForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportPDFRendersForDownloadTier(t *testing.T) {
	svc, _, _, _ := newSharingFixture(&models.SharingLink{
		ID: "l1", ProjectID: "proj-1", Token: "tok", IsActive: true,
		Permission: models.PermissionDownload,
	})

	payload, filename, err := svc.ExportPDF(context.Background(), "tok")
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
	assert.Equal(t, "proj-1-v2.pdf", filename)
}

func TestDeactivateAndDeleteAreIndependent(t *testing.T) {
	svc, links, _, _ := newSharingFixture(&models.SharingLink{
		ID: "l1", ProjectID: "proj-1", Token: "tok", IsActive: true,
	})

	link, err := svc.DeactivateLink(context.Background(), "l1", "user-1")
	require.NoError(t, err)
	assert.False(t, link.IsActive)

	// deactivated links still exist and can be deleted outright
	require.NoError(t, svc.DeleteLink(context.Background(), "l1", "user-1"))
	_, ok := links.links["l1"]
	assert.False(t, ok)

	err = svc.DeleteLink(context.Background(), "l1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolveFeedsSharedViewAndCacheCounters(t *testing.T) {
	svc, _, _, _ := newSharingFixture(&models.SharingLink{
		ID: "l1", ProjectID: "proj-1", Token: "tok", IsActive: true,
		MaxViews: intPtr(2),
	})
	metrics := NewMetricsService()
	svc.metrics = metrics

	_, err := svc.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), "tok")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "tok")
	require.Error(t, err)
	_, err = svc.Resolve(context.Background(), "unknown")
	require.Error(t, err)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(2), snap.SharedViews) // refusals are counted under their own outcome
	assert.Equal(t, uint64(1), snap.CacheHits)   // second view served from the deck cache
	assert.Equal(t, uint64(1), snap.CacheMisses)
}
